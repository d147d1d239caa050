// Package edge extracts the directed edge set from a resolved document
// snapshot: typed frontmatter references plus body `[[id]]` mentions (spec
// §4.7), grounded on original_source/src/validate/wikilinks.rs's mention
// regex and the graph adjacency construction shared with the validator's
// cycle check (pkg/ragindex/validate/cycles.go).
package edge

import (
	"regexp"
	"sort"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

var mentionRe = regexp.MustCompile(`\[\[([A-Za-z]+-[0-9A-Za-z_-]+)\]\]`)

// Extract returns every edge whose both endpoints resolve to a known id in
// resolved: one typed edge per target of each declared reference kind, and one mentions
// edge per body `[[id]]` occurrence, aggregating duplicate mentions within
// one file into a single edge with multiple locations (spec §4.7).
func Extract(resolved *model.Resolved, kinds []string) []model.Edge {
	var edges []model.Edge

	for _, d := range resolved.Docs() {
		for _, kind := range kinds {
			for _, target := range typedValues(d, kind) {
				if resolved.Lookup(target) == nil {
					continue
				}

				edges = append(edges, model.Edge{From: d.ID, To: target, Kind: kind})
			}
		}

		edges = append(edges, mentionEdges(d, resolved)...)
	}

	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}

		if edges[i].Kind != edges[j].Kind {
			return edges[i].Kind < edges[j].Kind
		}

		return edges[i].To < edges[j].To
	})

	return edges
}

func typedValues(d *model.Document, kind string) []string {
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

// mentionEdges scans d.Body once, line by line, so a multi-occurrence
// mention aggregates into a single edge with multiple (line,col) locations
// rather than one edge per occurrence (spec §4.7).
func mentionEdges(d *model.Document, resolved *model.Resolved) []model.Edge {
	byTarget := map[string]*model.Edge{}

	lines := splitLines(d.Body)

	for lineIdx, line := range lines {
		for _, loc := range mentionRe.FindAllStringSubmatchIndex(line, -1) {
			target := line[loc[2]:loc[3]]
			if target == d.ID || resolved.Lookup(target) == nil {
				continue
			}

			e, ok := byTarget[target]
			if !ok {
				e = &model.Edge{From: d.ID, To: target, Kind: model.EdgeKindMentions}
				byTarget[target] = e
			}

			e.Locations = append(e.Locations, model.Location{
				Line:     lineIdx + 1,
				ColStart: loc[0],
				ColEnd:   loc[1],
			})
		}
	}

	targets := make([]string, 0, len(byTarget))
	for t := range byTarget {
		targets = append(targets, t)
	}

	sort.Strings(targets)

	out := make([]model.Edge, 0, len(targets))
	for _, t := range targets {
		out = append(out, *byTarget[t])
	}

	return out
}

func splitLines(s string) []string {
	var lines []string

	start := 0

	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}

	lines = append(lines, s[start:])

	return lines
}

// DeclaredKinds returns the built-in reference kinds plus any custom kind
// declared by at least one schema's edge-kind policy, the same set the
// validator uses for cycle detection (spec §4.6 check 11, §4.7).
func DeclaredKinds(schemaEdgeKinds ...[]string) []string {
	set := map[string]bool{
		model.EdgeKindDependsOn:    true,
		model.EdgeKindSupersedes:   true,
		model.EdgeKindSupersededBy: true,
	}

	for _, ks := range schemaEdgeKinds {
		for _, k := range ks {
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
