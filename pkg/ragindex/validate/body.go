package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

var headingRe = regexp.MustCompile(`^##[ \t]+(.+?)[ \t]*$`)

// bodySection is one "## " section heading paired with its in-file line
// count; extractSections builds them in order, ignoring fenced code blocks
// (spec §4.6 check 8).
type bodySection struct {
	name      string
	lineCount int
}

func extractSections(body string) []bodySection {
	lines := strings.Split(body, "\n")

	var sections []bodySection

	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}

		if inFence {
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			sections = append(sections, bodySection{name: strings.TrimSpace(m[1])})
			continue
		}

		if len(sections) == 0 {
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		sections[len(sections)-1].lineCount++
	}

	return sections
}

// checkBodyPolicy is spec §4.6 check 8.
func checkBodyPolicy(resolved *model.Resolved, byName map[string]*schema.Schema, acc *accumulator) {
	for _, d := range resolved.Docs() {
		s := byName[d.SchemaName]
		if s == nil || s.Body == nil {
			continue
		}

		sections := extractSections(d.Body)
		sev := s.EffectiveSeverity(s.Body.Severity)

		applyHeadingCheck(d, s, sections, sev, acc)

		if s.Body.MaxHeadings > 0 && len(sections) > s.Body.MaxHeadings {
			acc.push(Diagnostic{
				Severity: sev,
				Code:     ragerr.CodeHeadingPolicy,
				Message:  fmt.Sprintf("%d headings exceeds maximum %d", len(sections), s.Body.MaxHeadings),
				DocID:    d.ID,
				Path:     d.RelPath,
			})
		}

		if s.Body.ScanPolicy == schema.ScanOnValidate {
			checkLineCounts(d, s, sections, acc)
		}
	}
}

func applyHeadingCheck(d *model.Document, s *schema.Schema, sections []bodySection, sev schema.Severity, acc *accumulator) {
	expected := s.Body.ExpectedHeadings
	if len(expected) == 0 || s.Body.HeadingCheck == "" || s.Body.HeadingCheck == schema.HeadingIgnore {
		return
	}

	present := make(map[string]bool, len(sections))
	names := make([]string, 0, len(sections))

	for _, sec := range sections {
		present[sec.name] = true
		names = append(names, sec.name)
	}

	switch s.Body.HeadingCheck {
	case schema.HeadingExact:
		if !equalOrdered(names, expected) {
			acc.push(Diagnostic{
				Severity: sev,
				Code:     ragerr.CodeHeadingPolicy,
				Message:  fmt.Sprintf("headings %v do not exactly match expected %v", names, expected),
				DocID:    d.ID,
				Path:     d.RelPath,
			})
		}
	case schema.HeadingMissingOnly:
		for _, want := range expected {
			if !present[want] {
				acc.push(Diagnostic{
					Severity: sev,
					Code:     ragerr.CodeHeadingPolicy,
					Message:  fmt.Sprintf("missing expected heading %q", want),
					DocID:    d.ID,
					Path:     d.RelPath,
				})
			}
		}
	}
}

func equalOrdered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func checkLineCounts(d *model.Document, s *schema.Schema, sections []bodySection, acc *accumulator) {
	for _, sec := range sections {
		max, ok := s.Body.PerHeadingMax[sec.name]
		if !ok || max <= 0 {
			continue
		}

		if sec.lineCount > max {
			acc.push(Diagnostic{
				Severity: schema.SeverityError,
				Code:     ragerr.CodeLineCount,
				Message:  fmt.Sprintf("section %q has %d lines, maximum %d", sec.name, sec.lineCount, max),
				DocID:    d.ID,
				Path:     d.RelPath,
				Field:    sec.name,
			})
		}
	}
}
