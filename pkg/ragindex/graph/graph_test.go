package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/graph"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

func resolvedOf(docs ...*model.Document) *model.Resolved {
	snap := &model.Snapshot{Docs: docs}
	return snap.Resolve()
}

// Contract (S4): docs {A->B, B, C->D, D} with min_cluster_size=2 yield two
// components {A,B} and {C,D}, each density 1.0, each with both members as
// representatives, ids c_0001/c_0002 in first-member order.
func Test_ConnectedComponents_MatchesTwoPairClusters(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1", DependsOn: []string{"B-1"}}
	b := &model.Document{ID: "B-1"}
	c := &model.Document{ID: "C-1", DependsOn: []string{"D-1"}}
	d := &model.Document{ID: "D-1"}

	resolved := resolvedOf(a, b, c, d)
	edges := []model.Edge{
		{From: "A-1", To: "B-1", Kind: model.EdgeKindDependsOn},
		{From: "C-1", To: "D-1", Kind: model.EdgeKindDependsOn},
	}

	comps := graph.ConnectedComponents(resolved, edges, []string{model.EdgeKindDependsOn, model.EdgeKindMentions}, "", 2)
	require.Len(t, comps, 2)

	require.Equal(t, "c_0001", comps[0].ClusterID)
	require.Equal(t, []string{"A-1", "B-1"}, comps[0].Members)

	require.Equal(t, "c_0002", comps[1].ClusterID)
	require.Equal(t, []string{"C-1", "D-1"}, comps[1].Members)

	for _, comp := range comps {
		m := graph.ComponentMetrics(comp.Members, edges, []string{model.EdgeKindDependsOn})
		require.Equal(t, 2, m.Size)
		require.Equal(t, 1.0, m.Density)
		require.ElementsMatch(t, comp.Members, m.Representatives)
	}
}

// Contract: an isolated vertex with no qualifying edges is dropped once
// min_cluster_size exceeds 1.
func Test_ConnectedComponents_DropsBelowMinSize(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1"}
	resolved := resolvedOf(a)

	comps := graph.ConnectedComponents(resolved, nil, []string{model.EdgeKindDependsOn}, "", 2)
	require.Empty(t, comps)
}

// Contract: compute_cluster follows outgoing edges only by default, and
// additionally follows reverse (dependent) edges when includeBidirectional.
func Test_ComputeCluster_FollowsReverseEdgesOnlyWhenBidirectional(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1", DependsOn: []string{"B-1"}}
	b := &model.Document{ID: "B-1"}

	resolved := resolvedOf(a, b)
	edges := []model.Edge{{From: "A-1", To: "B-1", Kind: model.EdgeKindDependsOn}}

	forward := graph.ComputeCluster(resolved, edges, "B-1", 2, false)
	require.Len(t, forward, 1)
	require.Contains(t, forward, "B-1")

	bidi := graph.ComputeCluster(resolved, edges, "B-1", 2, true)
	require.Len(t, bidi, 2)
	require.Contains(t, bidi, "A-1")
	require.Contains(t, bidi, "B-1")
}

// Contract: bfs_path finds the shortest path across a chain of typed edges.
func Test_BFSPath_FindsShortestPathAcrossChain(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1", DependsOn: []string{"B-1"}}
	b := &model.Document{ID: "B-1", DependsOn: []string{"C-1"}}
	c := &model.Document{ID: "C-1"}

	resolved := resolvedOf(a, b, c)
	edges := []model.Edge{
		{From: "A-1", To: "B-1", Kind: model.EdgeKindDependsOn},
		{From: "B-1", To: "C-1", Kind: model.EdgeKindDependsOn},
	}

	path := graph.BFSPath(resolved, edges, "A-1", "C-1", 5)
	require.Equal(t, []string{"A-1", "B-1", "C-1"}, path)
}

// Contract: mermaid rendering sanitizes ids and emits one flowchart node
// per member plus one arrow per within-cluster edge.
func Test_Render_MermaidSanitizesIdsAndEmitsEdges(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1", Title: "Alpha", DependsOn: []string{"B-1"}}
	b := &model.Document{ID: "B-1", Title: "Beta"}

	resolved := resolvedOf(a, b)
	edges := []model.Edge{{From: "A-1", To: "B-1", Kind: model.EdgeKindDependsOn}}

	out, err := graph.Render(resolved, "mermaid", "A-1", []string{"A-1", "B-1"}, edges, 1, false)
	require.NoError(t, err)
	require.Contains(t, out, "flowchart LR")
	require.Contains(t, out, `A_1["A-1: Alpha"]`)
	require.Contains(t, out, "A_1 --> B_1")
}

// Contract: json rendering produces the documented envelope shape.
func Test_Render_JSONProducesDocumentedEnvelope(t *testing.T) {
	t.Parallel()

	resolved := resolvedOf(&model.Document{ID: "A-1"})

	out, err := graph.Render(resolved, "json", "A-1", []string{"A-1"}, nil, 2, true)
	require.NoError(t, err)
	require.Contains(t, out, `"root":"A-1"`)
	require.Contains(t, out, `"depth":2`)
	require.Contains(t, out, `"bidirectional":true`)
}

// Contract: bfs_path returns nil when no path exists within maxDepth.
func Test_BFSPath_ReturnsNilWhenUnreachable(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1"}
	b := &model.Document{ID: "B-1"}

	resolved := resolvedOf(a, b)

	path := graph.BFSPath(resolved, nil, "A-1", "B-1", 5)
	require.Nil(t, path)
}
