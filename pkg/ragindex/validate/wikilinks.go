package validate

import (
	"fmt"
	"regexp"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

// mentionRe matches `[[id]]` wikilink-style mentions (spec §4.6 check 9,
// §4.7), grounded on original_source/src/validate/wikilinks.rs's identical
// pattern.
var mentionRe = regexp.MustCompile(`\[\[([A-Za-z]+-[0-9A-Za-z_-]+)\]\]`)

// checkWikilinks is spec §4.6 check 9. Returns the computed
// outgoing/incoming sets so checkIsolation can reuse the same scan; the
// edge extractor (C7) runs its own mention scan.
func checkWikilinks(resolved *model.Resolved, byName map[string]*schema.Schema, acc *accumulator) (outgoing, incoming map[string]map[string]bool) {
	outgoing = map[string]map[string]bool{}
	incoming = map[string]map[string]bool{}

	for _, d := range resolved.Docs() {
		targets := map[string]bool{}

		for _, m := range mentionRe.FindAllStringSubmatch(d.Body, -1) {
			id := m[1]
			if id == d.ID {
				continue
			}

			targets[id] = true

			if incoming[id] == nil {
				incoming[id] = map[string]bool{}
			}

			incoming[id][d.ID] = true
		}

		outgoing[d.ID] = targets
	}

	for _, d := range resolved.Docs() {
		s := byName[d.SchemaName]
		if s == nil || s.Wikilink == nil {
			continue
		}

		sev := s.EffectiveSeverity(s.Wikilink.Severity)

		if s.Wikilink.MinOutgoing > 0 && len(outgoing[d.ID]) < s.Wikilink.MinOutgoing {
			acc.push(Diagnostic{
				Severity: sev,
				Code:     ragerr.CodeWikilink,
				Message:  fmt.Sprintf("wikilinks outgoing unique targets %d below minimum %d", len(outgoing[d.ID]), s.Wikilink.MinOutgoing),
				DocID:    d.ID,
				Path:     d.RelPath,
			})
		}

		if s.Wikilink.MinIncoming > 0 && len(incoming[d.ID]) < s.Wikilink.MinIncoming {
			acc.push(Diagnostic{
				Severity: sev,
				Code:     ragerr.CodeWikilink,
				Message:  fmt.Sprintf("wikilinks incoming unique referrers %d below minimum %d", len(incoming[d.ID]), s.Wikilink.MinIncoming),
				DocID:    d.ID,
				Path:     d.RelPath,
			})
		}
	}

	return outgoing, incoming
}
