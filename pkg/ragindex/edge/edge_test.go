package edge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/edge"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

func resolved(docs ...*model.Document) *model.Resolved {
	snap := &model.Snapshot{Docs: docs}
	return snap.Resolve()
}

// Contract: a typed depends_on reference to a known id produces one edge
// with no locations.
func Test_Extract_EmitsTypedEdge(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1", DependsOn: []string{"B-1"}}
	b := &model.Document{ID: "B-1"}

	edges := edge.Extract(resolved(a, b), edge.DeclaredKinds())
	require.Len(t, edges, 1)
	require.Equal(t, model.Edge{From: "A-1", To: "B-1", Kind: model.EdgeKindDependsOn}, edges[0])
}

// Contract (S3): two [[T]] mentions in one body aggregate into a single
// mentions edge carrying two locations.
func Test_Extract_AggregatesDuplicateMentions(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1", Body: "See [[T-1]] and also [[T-1]] again.\n"}
	target := &model.Document{ID: "T-1"}

	edges := edge.Extract(resolved(a, target), edge.DeclaredKinds())
	require.Len(t, edges, 1)
	require.Equal(t, model.EdgeKindMentions, edges[0].Kind)
	require.Len(t, edges[0].Locations, 2)
	require.Equal(t, 1, edges[0].Locations[0].Line)
}

// Contract: a reference to an unknown id is not emitted as an edge.
func Test_Extract_DropsEdgesToUnknownTargets(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1", DependsOn: []string{"ghost"}}

	edges := edge.Extract(resolved(a), edge.DeclaredKinds())
	require.Empty(t, edges)
}
