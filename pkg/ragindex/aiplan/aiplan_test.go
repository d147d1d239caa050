package aiplan_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/aiplan"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

func writeIndex(t *testing.T, dir string, idx model.Index) string {
	t.Helper()

	data, err := json.Marshal(idx)
	require.NoError(t, err)

	path := filepath.Join(dir, "index.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return path
}

// Contract (S4): plan over {A->B, C->D} with min_cluster_size=2 yields two
// density-1.0 clusters, ids c_0001/c_0002.
func Test_Plan_ProposesTwoPairClusters(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	idx := model.Index{
		Version:     1,
		GeneratedAt: time.Now(),
		Nodes: []model.Node{
			{ID: "A-1", File: "a.md"},
			{ID: "B-1", File: "b.md"},
			{ID: "C-1", File: "c.md"},
			{ID: "D-1", File: "d.md"},
		},
		Edges: []model.Edge{
			{From: "A-1", To: "B-1", Kind: model.EdgeKindDependsOn},
			{From: "C-1", To: "D-1", Kind: model.EdgeKindDependsOn},
		},
	}

	path := writeIndex(t, dir, idx)

	plan, err := aiplan.Plan(path, aiplan.Options{MinClusterSize: 2})
	require.NoError(t, err)
	require.Len(t, plan.Clusters, 2)
	require.Equal(t, "c_0001", plan.Clusters[0].ClusterID)
	require.Equal(t, 1.0, plan.Clusters[0].Density)
	require.Equal(t, "c_0002", plan.Clusters[1].ClusterID)
}

// Contract: apply refuses to write when the index bytes have changed since
// the plan was produced.
func Test_Apply_DetectsConflictOnIndexDrift(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	idx := model.Index{Version: 1, Nodes: []model.Node{{ID: "A-1", File: "a.md"}}}
	path := writeIndex(t, dir, idx)

	plan, err := aiplan.Plan(path, aiplan.Options{})
	require.NoError(t, err)

	idx.Nodes = append(idx.Nodes, model.Node{ID: "B-1", File: "b.md"})
	writeIndex(t, dir, idx)

	result, err := aiplan.Apply(dir, path, plan, func(id string) (string, bool) { return "", false })
	require.NoError(t, err)
	require.True(t, result.Conflict)
}

// Contract: apply additively merges new tags into a note's existing tag
// list without dropping any pre-existing tag.
func Test_Apply_AddsTagsAdditively(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	notePath := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(notePath, []byte("---\nid: A-1\ntags:\n  - existing\n---\n# A\n"), 0o644))

	idx := model.Index{
		Version: 1,
		Nodes:   []model.Node{{ID: "A-1", File: "a.md"}},
		Edges:   []model.Edge{{From: "A-1", To: "B-1", Kind: model.EdgeKindDependsOn}},
	}
	idx.Nodes = append(idx.Nodes, model.Node{ID: "B-1", File: "b.md"})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("---\nid: B-1\n---\n# B\n"), 0o644))

	path := writeIndex(t, dir, idx)

	plan, err := aiplan.Plan(path, aiplan.Options{MinClusterSize: 2, TagsToApply: []string{"clustered"}})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Clusters)

	result, err := aiplan.Apply(dir, path, plan, func(id string) (string, bool) {
		if id == "A-1" {
			return notePath, true
		}

		return "", false
	})
	require.NoError(t, err)
	require.False(t, result.Conflict)
	require.Contains(t, result.FilesWritten, notePath)

	updated, err := os.ReadFile(notePath)
	require.NoError(t, err)
	require.Contains(t, string(updated), "existing")
	require.Contains(t, string(updated), "clustered")
}
