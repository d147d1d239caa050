package validate

import (
	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

// checkIsolation is spec §4.6 check 12, generalizing
// original_source/src/validate/isolation.rs's depends_on-only check to the
// three built-in reference kinds plus wikilink mentions: a document with no
// outgoing references/mentions and no incoming ones gets a warning.
func checkIsolation(resolved *model.Resolved, mentionOut, mentionIn map[string]map[string]bool, acc *accumulator) {
	hasDependent := map[string]bool{}

	for _, d := range resolved.Docs() {
		for _, kind := range []string{model.EdgeKindDependsOn, model.EdgeKindSupersedes, model.EdgeKindSupersededBy} {
			for _, target := range edgeValues(d, kind) {
				hasDependent[target] = true
			}
		}
	}

	for _, d := range resolved.Docs() {
		outEmpty := len(d.DependsOn) == 0 && len(d.Supersedes) == 0 && len(d.SupersededBy) == 0 && len(mentionOut[d.ID]) == 0
		inEmpty := !hasDependent[d.ID] && len(mentionIn[d.ID]) == 0

		if outEmpty && inEmpty {
			acc.push(Diagnostic{
				Severity: schema.SeverityWarning,
				Code:     ragerr.CodeIsolation,
				Message:  "no graph connections (valid, but isolated)",
				DocID:    d.ID,
				Path:     d.RelPath,
			})
		}
	}
}
