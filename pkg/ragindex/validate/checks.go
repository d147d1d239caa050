package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

// checkIDIntegrity is spec §4.6 check 1: every document must carry a
// non-empty id.
func checkIDIntegrity(snap *model.Snapshot, acc *accumulator) {
	for _, d := range snap.Docs {
		if d.ID == "" {
			acc.push(Diagnostic{
				Severity: schema.SeverityError,
				Code:     ragerr.CodeMissingID,
				Message:  "missing id",
				Path:     d.RelPath,
			})
		}
	}
}

// checkDuplicatesAndConflicts is spec §4.6 check 2, grounded directly on
// original_source/src/validate/ids.rs's detect_dups_conflicts: documents
// sharing an id with identical (title,status) are a duplicate; differing
// metadata is a conflict.
func checkDuplicatesAndConflicts(snap *model.Snapshot, acc *accumulator) {
	grouped := snap.ByID()

	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		docs := grouped[id]
		if len(docs) <= 1 {
			continue
		}

		titles := map[string]bool{}
		statuses := map[string]bool{}
		paths := make([]string, 0, len(docs))

		for _, d := range docs {
			titles[d.Title] = true
			statuses[d.Status] = true
			paths = append(paths, d.RelPath)
		}

		sort.Strings(paths)

		code := ragerr.CodeDuplicate
		label := "duplicate"

		if len(titles) > 1 || len(statuses) > 1 {
			code = ragerr.CodeConflict
			label = "conflict"
		}

		acc.push(Diagnostic{
			Severity: schema.SeverityError,
			Code:     code,
			Message:  fmt.Sprintf("%s id %s in: %s", label, id, strings.Join(paths, ", ")),
			DocID:    id,
		})
	}
}

// checkGlobalStatus is spec §4.6 check 3. An empty allowed list
// (allowed_statuses not configured) places no restriction on status.
func checkGlobalStatus(snap *model.Snapshot, byName map[string]*schema.Schema, allowed []string, acc *accumulator) {
	if len(allowed) == 0 {
		return
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = true
	}

	for _, d := range snap.Docs {
		if d.Status == "" {
			continue
		}

		if s := byName[d.SchemaName]; s != nil {
			if _, ok := s.Rules["status"]; ok {
				continue
			}
		}

		if !allowedSet[d.Status] {
			acc.push(Diagnostic{
				Severity: schema.SeverityError,
				Code:     ragerr.CodeBadStatus,
				Message:  fmt.Sprintf("invalid status %q", d.Status),
				DocID:    d.ID,
				Path:     d.RelPath,
				Field:    "status",
			})
		}
	}
}

// checkReferenceResolution is spec §4.6 check 4.
func checkReferenceResolution(resolved *model.Resolved, acc *accumulator) {
	for _, d := range resolved.Docs() {
		checkRefsResolve(resolved, d, "depends_on", d.DependsOn, acc)
		checkRefsResolve(resolved, d, "supersedes", d.Supersedes, acc)
		checkRefsResolve(resolved, d, "superseded_by", d.SupersededBy, acc)
	}
}

func checkRefsResolve(resolved *model.Resolved, d *model.Document, field string, targets []string, acc *accumulator) {
	for _, t := range targets {
		if resolved.Lookup(t) == nil {
			acc.push(Diagnostic{
				Severity: schema.SeverityError,
				Code:     ragerr.CodeUnresolvedRef,
				Message:  fmt.Sprintf("%s %q not found", field, t),
				DocID:    d.ID,
				Path:     d.RelPath,
				Field:    field,
			})
		}
	}
}

// checkRequiredKeys is spec §4.6 check 5. Carried-forward documents (empty
// Frontmatter) are skipped per spec §4.4.
func checkRequiredKeys(resolved *model.Resolved, byName map[string]*schema.Schema, acc *accumulator) {
	for _, d := range resolved.Docs() {
		if d.Frontmatter == nil {
			continue
		}

		s := byName[d.SchemaName]
		if s == nil {
			continue
		}

		for _, key := range s.Required {
			v, ok := d.Frontmatter[key]
			if !ok || v.IsEmpty() {
				acc.push(Diagnostic{
					Severity: schema.SeverityError,
					Code:     ragerr.CodeRequiredKey,
					Message:  fmt.Sprintf("missing required %q", key),
					DocID:    d.ID,
					Path:     d.RelPath,
					Field:    key,
				})
			}
		}
	}
}

var reservedKeys = map[string]bool{
	"id": true, "tags": true, "status": true, "groups": true,
	"depends_on": true, "supersedes": true, "superseded_by": true,
}

// checkUnknownKeys is spec §4.6 check 6.
func checkUnknownKeys(resolved *model.Resolved, byName map[string]*schema.Schema, acc *accumulator) {
	for _, d := range resolved.Docs() {
		if d.Frontmatter == nil {
			continue
		}

		s := byName[d.SchemaName]
		if s == nil {
			continue
		}

		known := map[string]bool{}
		for k := range reservedKeys {
			known[k] = true
		}

		for k := range s.Rules {
			known[k] = true
		}

		for _, k := range s.Required {
			known[k] = true
		}

		for _, k := range s.AllowedKeys {
			known[k] = true
		}

		var unknown []string

		for k := range d.Frontmatter {
			if !known[k] {
				unknown = append(unknown, k)
			}
		}

		if len(unknown) == 0 {
			continue
		}

		sort.Strings(unknown)

		sev := schema.SeverityIgnore

		switch s.UnknownPolicy {
		case schema.UnknownWarn:
			sev = schema.SeverityWarning
		case schema.UnknownError:
			sev = schema.SeverityError
		}

		if sev == schema.SeverityIgnore {
			continue
		}

		acc.push(Diagnostic{
			Severity: sev,
			Code:     ragerr.CodeUnknownKey,
			Message:  fmt.Sprintf("unknown keys: %s", strings.Join(unknown, ", ")),
			DocID:    d.ID,
			Path:     d.RelPath,
		})
	}
}

// checkFieldRules is spec §4.6 check 7.
func checkFieldRules(resolved *model.Resolved, byName map[string]*schema.Schema, acc *accumulator) {
	for _, d := range resolved.Docs() {
		if d.Frontmatter == nil {
			continue
		}

		s := byName[d.SchemaName]
		if s == nil {
			continue
		}

		for key, rule := range s.Rules {
			v, ok := d.Frontmatter[key]
			if !ok {
				continue
			}

			applyFieldRule(resolved, d, key, rule, v, s, acc)
		}
	}
}

func applyFieldRule(resolved *model.Resolved, d *model.Document, key string, rule schema.FieldRule, v model.Value, s *schema.Schema, acc *accumulator) {
	sev := s.EffectiveSeverity(rule.Severity)

	fail := func(msg string) {
		acc.push(Diagnostic{Severity: sev, Code: ragerr.CodeFieldRule, Message: msg, DocID: d.ID, Path: d.RelPath, Field: key})
	}

	switch rule.Type {
	case "array":
		if v.Kind != model.KindSequence {
			fail(fmt.Sprintf("%q should be array", key))
			return
		}
	case "integer":
		if !checkIntBounds(v, rule, fail, key) {
			return
		}
	case "float":
		if !checkFloatBounds(v, rule, fail, key) {
			return
		}
	case "date":
		checkDate(v, rule, fail, key)
	case "string":
		if v.Kind != model.KindScalar {
			fail(fmt.Sprintf("%q should be a string", key))
			return
		}
	}

	if len(rule.Allowed) > 0 {
		checkAllowed(v, rule.Allowed, fail, key)
	}

	if len(rule.Globs) > 0 {
		checkGlobs(v, rule.Globs, fail, key)
	}

	if rule.MinItems > 0 && v.Kind == model.KindSequence && len(v.Sequence) < rule.MinItems {
		fail(fmt.Sprintf("%q has %d items, minimum %d", key, len(v.Sequence), rule.MinItems))
	}

	if rule.Regex != "" {
		checkRegex(v, rule.Regex, fail, key)
	}

	if len(rule.RefersToTypes) > 0 {
		checkRefersToTypes(resolved, v, rule.RefersToTypes, sev, d, key, acc)
	}
}

func checkIntBounds(v model.Value, rule schema.FieldRule, fail func(string), key string) bool {
	n, ok := asInt64(v.Scalar)
	if !ok {
		fail(fmt.Sprintf("%q should be an integer", key))
		return false
	}

	if rule.IntMin != nil && n < *rule.IntMin {
		fail(fmt.Sprintf("%q value %d below minimum %d", key, n, *rule.IntMin))
	}

	if rule.IntMax != nil && n > *rule.IntMax {
		fail(fmt.Sprintf("%q value %d above maximum %d", key, n, *rule.IntMax))
	}

	return true
}

func checkFloatBounds(v model.Value, rule schema.FieldRule, fail func(string), key string) bool {
	f, ok := asFloat64(v.Scalar)
	if !ok {
		fail(fmt.Sprintf("%q should be a float", key))
		return false
	}

	if rule.FloatMin != nil && f < *rule.FloatMin {
		fail(fmt.Sprintf("%q value %v below minimum %v", key, f, *rule.FloatMin))
	}

	if rule.FloatMax != nil && f > *rule.FloatMax {
		fail(fmt.Sprintf("%q value %v above maximum %v", key, f, *rule.FloatMax))
	}

	return true
}

func checkDate(v model.Value, rule schema.FieldRule, fail func(string), key string) {
	s, ok := v.Scalar.(string)
	if !ok {
		fail(fmt.Sprintf("%q should be a date string", key))
		return
	}

	format := rule.DateFormat
	if format == "" {
		format = "2006-01-02"
	}

	if _, err := time.Parse(goDateLayout(format), s); err != nil {
		fail(fmt.Sprintf("%q not a valid date %q, format %s", key, s, format))
	}
}

// goDateLayout translates a handful of common strftime-style tokens (as the
// original Rust chrono format strings use) into Go's reference-time layout;
// callers in this codebase only ever declare "%Y-%m-%d"-shaped formats.
func goDateLayout(format string) string {
	r := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
	)

	return r.Replace(format)
}

func checkAllowed(v model.Value, allowed []string, fail func(string), key string) {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}

	for _, s := range v.AsStringSlice() {
		if !set[s] {
			fail(fmt.Sprintf("%q value %q not in allowed set", key, s))
		}
	}
}

func checkGlobs(v model.Value, globs []string, fail func(string), key string) {
	for _, s := range v.AsStringSlice() {
		matched := false

		for _, g := range globs {
			if ok, err := filepath.Match(g, s); err == nil && ok {
				matched = true
				break
			}
		}

		if !matched {
			fail(fmt.Sprintf("%q value %q matches no allowed glob", key, s))
		}
	}
}

func checkRegex(v model.Value, pattern string, fail func(string), key string) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return
	}

	for _, s := range v.AsStringSlice() {
		if !re.MatchString(s) {
			fail(fmt.Sprintf("%q value %q does not match pattern", key, s))
		}
	}
}

func checkRefersToTypes(resolved *model.Resolved, v model.Value, allowedTypes []string, sev schema.Severity, d *model.Document, key string, acc *accumulator) {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}

	for _, id := range v.AsStringSlice() {
		target := resolved.Lookup(id)
		if target == nil || !allowed[target.SchemaName] {
			acc.push(Diagnostic{
				Severity: sev,
				Code:     ragerr.CodeFieldRule,
				Message:  fmt.Sprintf("%q reference %q does not resolve to an allowed type", key, id),
				DocID:    d.ID,
				Path:     d.RelPath,
				Field:    key,
			})
		}
	}
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

// edgeValues returns the target ids declared for kind on d: the three
// built-in reference fields are read from their typed struct fields; any
// other declared edge kind is read from the raw frontmatter field of the
// same name (spec §4.6 check 10, §4.7: "typed frontmatter references").
func edgeValues(d *model.Document, kind string) []string {
	switch kind {
	case model.EdgeKindDependsOn:
		return d.DependsOn
	case model.EdgeKindSupersedes:
		return d.Supersedes
	case model.EdgeKindSupersededBy:
		return d.SupersededBy
	default:
		if d.Frontmatter == nil {
			return nil
		}

		return d.Frontmatter[kind].AsStringSlice()
	}
}

// checkEdgePolicies is spec §4.6 check 10.
func checkEdgePolicies(resolved *model.Resolved, byName map[string]*schema.Schema, acc *accumulator) {
	for _, d := range resolved.Docs() {
		s := byName[d.SchemaName]
		if s == nil {
			continue
		}

		kinds := make([]string, 0, len(s.EdgeKinds))
		for k := range s.EdgeKinds {
			kinds = append(kinds, k)
		}

		sort.Strings(kinds)

		for _, kind := range kinds {
			policy := s.EdgeKinds[kind]
			values := edgeValues(d, kind)

			if policy.Required && len(values) == 0 {
				sev := policy.RequiredSeverity
				if sev == "" {
					sev = schema.SeverityError
				}

				acc.push(Diagnostic{
					Severity: sev,
					Code:     ragerr.CodeEdgePolicy,
					Message:  fmt.Sprintf("edge kind %q is required but has no values", kind),
					DocID:    d.ID,
					Path:     d.RelPath,
					Field:    kind,
				})
			}

			if len(policy.CrossSchemaAllowed) == 0 {
				continue
			}

			allowed := make(map[string]bool, len(policy.CrossSchemaAllowed))
			for _, t := range policy.CrossSchemaAllowed {
				allowed[t] = true
			}

			for _, target := range values {
				tdoc := resolved.Lookup(target)
				if tdoc != nil && !allowed[tdoc.SchemaName] {
					acc.push(Diagnostic{
						Severity: schema.SeverityError,
						Code:     ragerr.CodeEdgePolicy,
						Message:  fmt.Sprintf("edge kind %q target %q has disallowed schema %q", kind, target, tdoc.SchemaName),
						DocID:    d.ID,
						Path:     d.RelPath,
						Field:    kind,
					})
				}
			}
		}
	}
}

// declaredEdgeKinds returns the built-in kinds plus every kind any schema
// declares a policy for, used by both cycle detection and isolation.
func declaredEdgeKinds(byName map[string]*schema.Schema) []string {
	set := map[string]bool{
		model.EdgeKindDependsOn:    true,
		model.EdgeKindSupersedes:   true,
		model.EdgeKindSupersededBy: true,
	}

	for _, s := range byName {
		for k := range s.EdgeKinds {
			set[k] = true
		}
	}

	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
