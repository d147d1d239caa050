package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// Contract: nested [config] values win over flat duplicates.
func Test_Load_NestedTableWinsOverFlat_When_BothDeclared(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cli-rag.toml"), `
bases = ["./flat-notes"]

[config.scan]
filepaths = ["./nested-notes"]
`)

	cfg, err := config.Load(config.LoadInput{WorkDir: dir})
	require.NoError(t, err)
	require.Equal(t, []string{"./nested-notes"}, cfg.Bases)
}

// Contract: more than one ancestor config is an E100 failure.
func Test_Load_DetectsMultipleAncestorConfigs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	writeFile(t, filepath.Join(root, ".cli-rag.toml"), "bases = [\"./a\"]\n")
	writeFile(t, filepath.Join(sub, ".cli-rag.toml"), "bases = [\"./b\"]\n")

	_, err := config.Load(config.LoadInput{WorkDir: sub})
	require.Error(t, err)
	require.True(t, ragerr.HasCode(err, ragerr.CodeMultipleConfigs))
}

// Contract: a single ancestor config (no ambiguity) loads normally.
func Test_Load_SingleAncestorConfigResolves(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeFile(t, filepath.Join(root, ".cli-rag.toml"), "bases = [\"./a\"]\n")

	cfg, err := config.Load(config.LoadInput{WorkDir: sub})
	require.NoError(t, err)
	require.Equal(t, []string{"./a"}, cfg.Bases)
}

// Contract: an import whose file declares a non-schema top-level key is E110.
func Test_Load_RejectsImportWithExtraKeys(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cli-rag.toml"), `
bases = ["./notes"]
import = ["fragments/*.toml"]
`)
	writeFile(t, filepath.Join(dir, "fragments", "bad.toml"), `
bases = ["nope"]
`)

	_, err := config.Load(config.LoadInput{WorkDir: dir})
	require.Error(t, err)
	require.True(t, ragerr.HasCode(err, ragerr.CodeImportBadKeys))
}

// Contract: duplicate schema names across inline + imported schemas is E120.
func Test_Load_RejectsDuplicateSchemaNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cli-rag.toml"), `
bases = ["./notes"]

[[schema]]
name = "adr"
file_patterns = ["ADR-*.md"]

[[schema]]
name = "adr"
file_patterns = ["adr-*.md"]
`)

	_, err := config.Load(config.LoadInput{WorkDir: dir})
	require.Error(t, err)
	require.True(t, ragerr.HasCode(err, ragerr.CodeDuplicateSchema))
}

// Contract: CLI_RAG_FILEPATHS overrides bases from the config file.
func Test_Load_EnvOverridesBases(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cli-rag.toml"), `bases = ["./from-file"]`)

	cfg, err := config.Load(config.LoadInput{
		WorkDir: dir,
		Env:     map[string]string{config.EnvFilepaths: "./a,./b"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"./a", "./b"}, cfg.Bases)
}
