package index_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/index"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

// Contract (invariant 1): the hash excludes generatedAt, so two builds of
// the same content at different timestamps hash identically.
func Test_Hash_IsStableAcrossGeneratedAt(t *testing.T) {
	t.Parallel()

	idx1 := model.Index{Version: 1, GeneratedAt: time.Unix(0, 0), Nodes: []model.Node{{ID: "A-1"}}}
	idx2 := model.Index{Version: 1, GeneratedAt: time.Now(), Nodes: []model.Node{{ID: "A-1"}}}

	require.Equal(t, index.Hash(idx1), index.Hash(idx2))
}

// Contract: changing node content changes the hash.
func Test_Hash_ChangesWithContent(t *testing.T) {
	t.Parallel()

	idx1 := model.Index{Version: 1, Nodes: []model.Node{{ID: "A-1", Title: "A"}}}
	idx2 := model.Index{Version: 1, Nodes: []model.Node{{ID: "A-1", Title: "A, revised"}}}

	require.NotEqual(t, index.Hash(idx1), index.Hash(idx2))
}

// Contract: Build sorts nodes by id regardless of resolved enumeration order.
func Test_Build_SortsNodesByID(t *testing.T) {
	t.Parallel()

	docB := &model.Document{ID: "B-1", Title: "B"}
	docA := &model.Document{ID: "A-1", Title: "A"}

	snap := &model.Snapshot{Docs: []*model.Document{docB, docA}}
	resolved := snap.Resolve()

	idx := index.Build(resolved, nil, time.Now())
	require.Len(t, idx.Nodes, 2)
	require.Equal(t, "A-1", idx.Nodes[0].ID)
	require.Equal(t, "B-1", idx.Nodes[1].ID)
}
