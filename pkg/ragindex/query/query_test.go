package query_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/index"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/pipeline"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/query"
)

func writeNote(t *testing.T, dir, name, id string) {
	t.Helper()

	content := "---\nid: " + id + "\ntags: [x]\nstatus: draft\ndepends_on: []\n---\n\n# " + id + "\n\nbody\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func minimalConfig(dir string) *config.Config {
	return &config.Config{
		ConfigDir:      dir,
		Bases:          []string{dir},
		FilePatterns:   []string{"*.md"},
		IndexRelative:  "index.json",
		GroupsRelative: "groups.json",
	}
}

// Contract: Load falls back to a live scan and still returns a usable
// Source when no unified index has been written yet.
func Test_Load_FallsBackToLiveScanWithoutUnifiedIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeNote(t, dir, "a.md", "A-1")

	cfg := minimalConfig(dir)

	src, err := query.Load(cfg)
	require.NoError(t, err)
	require.False(t, src.UsedUnified)
	require.Contains(t, src.Resolved.IDs(), "A-1")
}

// Contract: Load prefers a previously written unified index over a live
// scan.
func Test_Load_PrefersUnifiedIndexWhenPresent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeNote(t, dir, "a.md", "A-1")

	cfg := minimalConfig(dir)

	result, err := pipeline.Run(pipeline.Options{Cfg: cfg, FullRescan: true, Now: time.Now()})
	require.NoError(t, err)
	require.NoError(t, index.WriteUnified(dir, cfg.IndexRelative, result.Index))

	src, err := query.Load(cfg)
	require.NoError(t, err)
	require.True(t, src.UsedUnified)
	require.Contains(t, src.Resolved.IDs(), "A-1")
}
