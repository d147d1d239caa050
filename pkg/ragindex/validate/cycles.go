package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

// buildAdjacency builds the directed graph of every declared reference kind
// (spec §4.6 check 11), keyed by source id. Edges carry no kind, so a
// cycle's severity is resolved from its member schemas, not from the kinds
// that close it.
func buildAdjacency(resolved *model.Resolved, kinds []string) map[string][]string {
	adj := make(map[string][]string, len(resolved.IDs()))

	for _, id := range resolved.IDs() {
		adj[id] = nil
	}

	for _, d := range resolved.Docs() {
		for _, kind := range kinds {
			for _, target := range edgeValues(d, kind) {
				if resolved.Lookup(target) == nil {
					continue
				}

				adj[d.ID] = append(adj[d.ID], target)
			}
		}
	}

	return adj
}

// checkCycles is spec §4.6 check 11, a direct generalization of
// original_source/src/validate/cycles.rs's find_cycles: DFS with an
// on-path set, one diagnostic per canonical (sorted-unique-node) cycle.
func checkCycles(resolved *model.Resolved, byName map[string]*schema.Schema, acc *accumulator) {
	kinds := declaredEdgeKinds(byName)
	adj := buildAdjacency(resolved, kinds)

	ids := resolved.IDs()
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	visited := map[string]bool{}
	onPath := map[string]bool{}

	var stack []string

	var cycles [][]string

	var dfs func(node string)

	dfs = func(node string) {
		visited[node] = true
		onPath[node] = true
		stack = append(stack, node)

		neighbors := append([]string(nil), adj[node]...)
		sort.Strings(neighbors)

		for _, n := range neighbors {
			if !visited[n] {
				dfs(n)
			} else if onPath[n] {
				pos := indexOf(stack, n)
				if pos >= 0 {
					cyc := append([]string(nil), stack[pos:]...)
					cyc = append(cyc, n)
					cycles = append(cycles, cyc)
				}
			}
		}

		stack = stack[:len(stack)-1]
		onPath[node] = false
	}

	for _, node := range sorted {
		if !visited[node] {
			dfs(node)
		}
	}

	emitCanonicalCycles(cycles, byName, resolved, acc)
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}

	return -1
}

func emitCanonicalCycles(cycles [][]string, byName map[string]*schema.Schema, resolved *model.Resolved, acc *accumulator) {
	seen := map[string]bool{}

	var canon []string

	for _, c := range cycles {
		nodes := append([]string(nil), c...)
		sort.Strings(nodes)
		nodes = dedupSorted(nodes)
		key := strings.Join(nodes, ">")

		if seen[key] {
			continue
		}

		seen[key] = true
		canon = append(canon, key)
	}

	sort.Strings(canon)

	for _, key := range canon {
		members := strings.Split(key, ">")

		sev := cycleSeverity(members, byName, resolved)

		acc.push(Diagnostic{
			Severity: sev,
			Code:     ragerr.CodeCycle,
			Message:  fmt.Sprintf("cycle detected among: %s", strings.Join(members, ", ")),
		})
	}
}

func dedupSorted(s []string) []string {
	out := s[:0]

	var prev string

	first := true

	for _, v := range s {
		if first || v != prev {
			out = append(out, v)
			prev = v
			first = false
		}
	}

	return out
}

// cycleSeverity resolves the effective severity for a cycle as the first
// non-empty of: any member schema's per-kind cycle_detection override, any
// member schema's cycle_policy, else "warn" (spec §4.6 check 11).
func cycleSeverity(members []string, byName map[string]*schema.Schema, resolved *model.Resolved) schema.Severity {
	for _, id := range members {
		doc := resolved.Lookup(id)
		if doc == nil {
			continue
		}

		s := byName[doc.SchemaName]
		if s == nil {
			continue
		}

		for _, policy := range s.EdgeKinds {
			if policy.CycleDetectionSeverity != "" {
				return policy.CycleDetectionSeverity
			}
		}

		if s.CyclePolicy != "" {
			return s.CyclePolicy
		}
	}

	return schema.SeverityWarning
}
