package doctor_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/doctor"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

// Contract: two files sharing an id with different titles are reported as
// a conflict; a frontmatter key the schema doesn't declare is tallied.
func Test_Run_ReportsConflictsAndUnknownKeys(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"),
		[]byte("---\nid: X-1\nstrange_key: yes\n---\n# Title A\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"),
		[]byte("---\nid: X-1\n---\n# Title B\n"), 0o644))

	cfg := &config.Config{
		ConfigDir:     dir,
		Bases:         []string{dir},
		FilePatterns:  []string{"*.md"},
		IndexRelative: "index.json",
		Schemas: []*schema.Schema{{
			Name:  "note",
			Globs: []string{"*.md"},
		}},
	}

	rep, err := doctor.Run(cfg)
	require.NoError(t, err)
	require.True(t, rep.OK)
	require.Equal(t, 2, rep.DocCount)
	require.Equal(t, []string{"X-1"}, rep.Conflicts)
	require.Equal(t, 2, rep.Types["note"])
	require.Equal(t, 1, rep.UnknownKeyStats["note"].Docs)
	require.Equal(t, 1, rep.UnknownKeyStats["note"].Keys)
	require.Len(t, rep.PerBase, 1)
	require.Equal(t, "scan", rep.PerBase[0].Mode)
}
