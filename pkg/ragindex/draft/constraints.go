package draft

import (
	"sort"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

// deriveConstraints builds the submit-time payload envelope from a
// schema's body policy and field rules plus the frontmatter keys the
// rendered template actually produced (spec §4.11 "Derive constraints").
func deriveConstraints(sch *schema.Schema, renderedKeys []string) Constraints {
	c := Constraints{
		Readonly: []string{"id", "created_date", "last_modified"},
		Enums:    map[string][]string{},
		Globs:    map[string][]string{},
		Integers: map[string]IntRange{},
		Floats:   map[string]FloatRange{},
	}

	allowed := map[string]struct{}{"id": {}}
	for _, k := range renderedKeys {
		allowed[k] = struct{}{}
	}

	c.Allowed = sortedKeys(allowed)

	if sch.Body != nil {
		maxPerHeading := sch.Body.PerHeadingMax

		for _, h := range sch.Body.ExpectedHeadings {
			hc := HeadingConstraint{Name: h}
			if n, ok := maxPerHeading[h]; ok && n > 0 {
				hc.MaxLines = n
			}

			c.Headings = append(c.Headings, hc)
		}
	}

	for key, rule := range sch.Rules {
		switch rule.Type {
		case "integer":
			c.Integers[key] = IntRange{Min: rule.IntMin, Max: rule.IntMax}
		case "float":
			c.Floats[key] = FloatRange{Min: rule.FloatMin, Max: rule.FloatMax}
		}

		if len(rule.Allowed) > 0 {
			c.Enums[key] = rule.Allowed
		}

		if len(rule.Globs) > 0 {
			c.Globs[key] = rule.Globs
		}
	}

	return c
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
