// Package graph implements the cluster/path/component operations exposed
// over the unified index (spec §4.9), grounded on
// original_source/src/graph.rs's compute_cluster/bfs_path and
// src/commands/ai_index_plan.rs's connected-components/density/
// representative computation.
package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

// adjacency builds a directed outgoing-neighbor set per id from the edge
// list restricted to kinds, plus its reverse (dependents) view.
func adjacency(edges []model.Edge, kinds map[string]bool) (out, in map[string][]string) {
	out = map[string][]string{}
	in = map[string][]string{}

	for _, e := range edges {
		if kinds != nil && !kinds[e.Kind] {
			continue
		}

		out[e.From] = append(out[e.From], e.To)
		in[e.To] = append(in[e.To], e.From)
	}

	return out, in
}

// ComputeCluster performs the recursive bidirectional traversal from root
// (spec §4.9): outgoing edges always followed; reverse (dependent) edges
// followed only when includeBidirectional. Depth decrements per edge;
// depth=0 returns an empty map. The root itself is included when depth>0.
func ComputeCluster(resolved *model.Resolved, edges []model.Edge, root string, depth int, includeBidirectional bool) map[string]*model.Document {
	out, in := adjacency(edges, nil)
	visited := map[string]bool{}
	cluster := map[string]*model.Document{}

	var traverse func(id string, remaining int)

	traverse = func(id string, remaining int) {
		if remaining == 0 || visited[id] {
			return
		}

		visited[id] = true

		doc := resolved.Lookup(id)
		if doc == nil {
			return
		}

		cluster[id] = doc

		for _, next := range sortedCopy(out[id]) {
			traverse(next, remaining-1)
		}

		if includeBidirectional {
			for _, next := range sortedCopy(in[id]) {
				traverse(next, remaining-1)
			}
		}
	}

	traverse(root, depth)

	return cluster
}

// BFSPath finds the first path from `from` to `to` at any distance <=
// maxDepth over the bidirectional neighbor set (outgoing refs ∪
// dependents), breaking ties on lexicographically-least neighbor id for
// determinism (spec §4.9).
func BFSPath(resolved *model.Resolved, edges []model.Edge, from, to string, maxDepth int) []string {
	if from == to {
		return []string{from}
	}

	out, in := adjacency(edges, nil)

	type item struct {
		id    string
		path  []string
		depth int
	}

	queue := []item{{id: from, path: []string{from}, depth: 0}}
	visited := map[string]bool{from: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			continue
		}

		neighbors := map[string]bool{}
		for _, n := range out[cur.id] {
			neighbors[n] = true
		}

		for _, n := range in[cur.id] {
			neighbors[n] = true
		}

		for _, n := range sortedSet(neighbors) {
			if n == to {
				return append(append([]string(nil), cur.path...), n)
			}

			if !visited[n] {
				visited[n] = true
				queue = append(queue, item{id: n, path: append(append([]string(nil), cur.path...), n), depth: cur.depth + 1})
			}
		}
	}

	return nil
}

// Component is one connected component of the undirected edge-kind view.
type Component struct {
	ClusterID string
	Members   []string
}

// ConnectedComponents computes the undirected view over edges restricted to
// kinds and schemaFilter (empty = unrestricted), dropping components
// smaller than minSize (spec §4.9).
func ConnectedComponents(resolved *model.Resolved, edges []model.Edge, kinds []string, schemaFilter string, minSize int) []Component {
	kindSet := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}

	vertices := map[string]bool{}

	for _, id := range resolved.IDs() {
		doc := resolved.Lookup(id)
		if schemaFilter != "" && doc.SchemaName != schemaFilter {
			continue
		}

		vertices[id] = true
	}

	undirected := map[string][]string{}

	addEdge := func(a, b string) {
		undirected[a] = append(undirected[a], b)
		undirected[b] = append(undirected[b], a)
	}

	for _, e := range edges {
		if !kindSet[e.Kind] {
			continue
		}

		if !vertices[e.From] || !vertices[e.To] {
			continue
		}

		addEdge(e.From, e.To)
	}

	visited := map[string]bool{}

	var comps [][]string

	ids := sortedSet(vertices)

	for _, v := range ids {
		if visited[v] {
			continue
		}

		var comp []string

		queue := []string{v}
		visited[v] = true

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)

			for _, n := range sortedCopy(undirected[cur]) {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}

		if len(comp) >= minSize {
			sort.Strings(comp)
			comps = append(comps, comp)
		}
	}

	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })

	out := make([]Component, 0, len(comps))
	for i, members := range comps {
		out = append(out, Component{ClusterID: clusterID(i + 1), Members: members})
	}

	return out
}

// Metrics summarizes a component (spec §4.9 component_metrics).
type Metrics struct {
	Size            int
	Density         float64
	Representatives []string
}

// ComponentMetrics computes size, density, and up-to-2 representatives
// (highest within-cluster degree, ties broken by ascending id) for members,
// restricted to the undirected edges among kinds.
func ComponentMetrics(members []string, edges []model.Edge, kinds []string) Metrics {
	kindSet := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}

	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}

	degree := make(map[string]int, len(members))

	type pair struct{ a, b string }

	seen := map[pair]bool{}

	for _, e := range edges {
		if !kindSet[e.Kind] || !memberSet[e.From] || !memberSet[e.To] {
			continue
		}

		a, b := e.From, e.To
		if a > b {
			a, b = b, a
		}

		p := pair{a, b}
		if seen[p] {
			continue
		}

		seen[p] = true
		degree[e.From]++
		degree[e.To]++
	}

	n := len(members)

	denom := float64(n * (n - 1) / 2)

	density := 0.0
	if n >= 2 && denom > 0 {
		density = float64(len(seen)) / denom
	}

	type scored struct {
		id  string
		deg int
	}

	scores := make([]scored, 0, len(members))
	for _, m := range members {
		scores = append(scores, scored{id: m, deg: degree[m]})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].deg != scores[j].deg {
			return scores[i].deg > scores[j].deg
		}

		return scores[i].id < scores[j].id
	})

	reps := make([]string, 0, 2)
	for i := 0; i < len(scores) && i < 2; i++ {
		reps = append(reps, scores[i].id)
	}

	return Metrics{Size: n, Density: density, Representatives: reps}
}

// RenderJSON is the graph-query envelope's JSON rendering (spec §4.9):
// `{root, members[], edges[], depth, bidirectional}`, with protocolVersion
// added by the query layer.
type RenderJSON struct {
	Root          string       `json:"root"`
	Members       []string     `json:"members"`
	Edges         []model.Edge `json:"edges"`
	Depth         int          `json:"depth"`
	Bidirectional bool         `json:"bidirectional"`
}

// sanitizeID replaces every non-alphanumeric rune with an underscore, the
// mermaid node-identifier constraint (spec §4.9), ported from
// original_source/src/commands/graph.rs's sanitize_id.
func sanitizeID(id string) string {
	var b strings.Builder

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return b.String()
}

// clusterEdges restricts edges to those whose endpoints are both in
// members, ported from original_source/src/commands/graph.rs's
// cluster_edges (itself restricted to depends_on; generalized here to
// whatever edge kinds the caller already filtered into `edges`).
func clusterEdges(members []string, edges []model.Edge) []model.Edge {
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}

	var out []model.Edge

	for _, e := range edges {
		if memberSet[e.From] && memberSet[e.To] {
			out = append(out, e)
		}
	}

	return out
}

// Render renders a cluster/path result in the requested format (spec §4.9:
// "render(component, format ∈ {mermaid, dot, json}) → string/Value"),
// ported from original_source/src/commands/graph.rs's render_mermaid and
// render_dot, generalized from a depends_on-only edge set to whatever edges
// the caller passes (typically edge.Extract's typed+mention edges already
// restricted to cluster members).
func Render(resolved *model.Resolved, format, root string, members []string, edges []model.Edge, depth int, bidirectional bool) (string, error) {
	sortedMembers := sortedCopy(members)
	within := clusterEdges(sortedMembers, edges)

	switch format {
	case "mermaid":
		return renderMermaid(resolved, sortedMembers, within), nil
	case "dot":
		return renderDot(resolved, sortedMembers, within), nil
	case "json":
		data, err := json.Marshal(RenderJSON{
			Root:          root,
			Members:       sortedMembers,
			Edges:         within,
			Depth:         depth,
			Bidirectional: bidirectional,
		})
		if err != nil {
			return "", fmt.Errorf("graph: render json: %w", err)
		}

		return string(data), nil
	default:
		return "", fmt.Errorf("graph: unknown render format %q", format)
	}
}

func renderMermaid(resolved *model.Resolved, members []string, edges []model.Edge) string {
	var b strings.Builder

	b.WriteString("flowchart LR\n")

	for _, id := range members {
		label := id
		if doc := resolved.Lookup(id); doc != nil && doc.Title != "" {
			label = id + ": " + strings.ReplaceAll(doc.Title, `"`, `\"`)
		}

		fmt.Fprintf(&b, "  %s[\"%s\"]\n", sanitizeID(id), label)
	}

	for _, e := range edges {
		fmt.Fprintf(&b, "  %s --> %s\n", sanitizeID(e.From), sanitizeID(e.To))
	}

	return b.String()
}

func renderDot(resolved *model.Resolved, members []string, edges []model.Edge) string {
	var b strings.Builder

	b.WriteString("digraph {\n")

	for _, id := range members {
		label := id
		if doc := resolved.Lookup(id); doc != nil && doc.Title != "" {
			label = id + ": " + strings.ReplaceAll(doc.Title, `"`, `\"`)
		}

		fmt.Fprintf(&b, "  \"%s\" [label=\"%s\"];\n", id, label)
	}

	for _, e := range edges {
		fmt.Fprintf(&b, "  \"%s\" -> \"%s\";\n", e.From, e.To)
	}

	b.WriteString("}\n")

	return b.String()
}

func clusterID(n int) string {
	return fmt.Sprintf("c_%04d", n)
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)

	return out
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
