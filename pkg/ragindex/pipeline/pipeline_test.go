package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/pipeline"
)

// Contract: one full cycle over two linked notes produces a report, a
// resolved pair of documents, and an index with both nodes and one edge.
func Test_Run_ProducesIndexAndReportForLinkedNotes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("---\nid: A-1\n---\n# A\ndepends on [[B-1]]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("---\nid: B-1\n---\n# B\n"), 0o644))

	cfg := &config.Config{
		ConfigDir:    dir,
		Bases:        []string{dir},
		FilePatterns: []string{"*.md"},
	}

	result, err := pipeline.Run(pipeline.Options{Cfg: cfg, FullRescan: true})
	require.NoError(t, err)
	require.NotNil(t, result.Report)
	require.Len(t, result.Resolved.IDs(), 2)
	require.Len(t, result.Index.Nodes, 2)
	require.NotEmpty(t, result.Edges)
}
