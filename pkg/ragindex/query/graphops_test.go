package query_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/query"
)

// Contract: cluster() wraps graph.ComputeCluster and reports size/members.
func Test_Cluster_WrapsComputeCluster(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1", Title: "Alpha", DependsOn: []string{"B-1"}}
	b := &model.Document{ID: "B-1", Title: "Beta"}
	src := sourceOf(a, b)
	src.Edges = []model.Edge{{From: "A-1", To: "B-1", Kind: model.EdgeKindDependsOn}}

	resp, err := query.Cluster(src, "A-1", 2, false)
	require.NoError(t, err)
	require.Equal(t, 2, resp.Size)
}

// Contract: path() wraps graph.BFSPath and reports found=false with no
// path when unreachable.
func Test_Path_ReportsUnreachable(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1"}
	b := &model.Document{ID: "B-1"}
	src := sourceOf(a, b)

	resp, err := query.Path(src, "A-1", "B-1", 5)
	require.NoError(t, err)
	require.False(t, resp.Found)
	require.Nil(t, resp.Path)
}

// Contract: graph() renders the requested format over the computed cluster.
func Test_Graph_RendersMermaidOverComputedCluster(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1", Title: "Alpha", DependsOn: []string{"B-1"}}
	b := &model.Document{ID: "B-1", Title: "Beta"}
	src := sourceOf(a, b)
	src.Edges = []model.Edge{{From: "A-1", To: "B-1", Kind: model.EdgeKindDependsOn}}

	resp, err := query.Graph(src, "A-1", "mermaid", 2, false)
	require.NoError(t, err)
	require.Contains(t, resp.Rendered, "flowchart LR")
	require.ElementsMatch(t, []string{"A-1", "B-1"}, resp.Members)
}
