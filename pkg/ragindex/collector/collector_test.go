package collector_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/collector"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

func writeNote(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// Contract: a file with no prior entry is counted as inserted.
func Test_Collect_CountsInsertedForNewFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeNote(t, path, "---\nid: a1\ntitle: A\n---\n# A\n", time.Now())

	snap, res, err := collector.Collect([]string{path}, nil, false)
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)
	require.Equal(t, 0, res.Updated)
	require.Len(t, snap.Docs, 1)
	require.Equal(t, "a1", snap.Docs[0].ID)
}

// Contract: an unchanged fingerprint carries the prior document forward with
// its Frontmatter cleared, and counts as skipped rather than updated.
func Test_Collect_CarriesForwardUnchangedFile_WithClearedFrontmatter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	mtime := time.Now()
	writeNote(t, path, "---\nid: a1\ntitle: A\n---\n# A\n", mtime)

	info, err := os.Stat(path)
	require.NoError(t, err)

	fp := model.Fingerprint{ModTime: info.ModTime(), Size: info.Size()}
	priorDoc := &model.Document{
		Path:        path,
		ID:          "a1",
		Title:       "A",
		Frontmatter: model.Mapping{"id": model.Value{Kind: model.KindScalar, Scalar: "a1"}},
		Fingerprint: fp,
	}

	prior := map[string]collector.PriorEntry{
		path: {Doc: priorDoc, Fingerprint: fp},
	}

	snap, res, err := collector.Collect([]string{path}, prior, false)
	require.NoError(t, err)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, 0, res.Inserted)
	require.Equal(t, 0, res.Updated)
	require.Len(t, snap.Docs, 1)
	require.Nil(t, snap.Docs[0].Frontmatter)
	require.Equal(t, "a1", snap.Docs[0].ID)
}

// Contract: a path present in prior but absent from candidatePaths counts as
// deleted.
func Test_Collect_CountsDeletedForMissingFile(t *testing.T) {
	t.Parallel()

	prior := map[string]collector.PriorEntry{
		"/gone/a.md": {Doc: &model.Document{ID: "a1"}, Fingerprint: model.Fingerprint{}},
	}

	snap, res, err := collector.Collect(nil, prior, false)
	require.NoError(t, err)
	require.Equal(t, 1, res.Deleted)
	require.Empty(t, snap.Docs)
}

// Contract: fullRescan reparses every file even when its fingerprint matches
// a prior entry exactly.
func Test_Collect_FullRescanReparsesUnchangedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	mtime := time.Now()
	writeNote(t, path, "---\nid: a1\ntitle: A\n---\n# A\n", mtime)

	info, err := os.Stat(path)
	require.NoError(t, err)

	fp := model.Fingerprint{ModTime: info.ModTime(), Size: info.Size()}
	prior := map[string]collector.PriorEntry{
		path: {Doc: &model.Document{ID: "a1"}, Fingerprint: fp},
	}

	snap, res, err := collector.Collect([]string{path}, prior, true)
	require.NoError(t, err)
	require.Equal(t, 0, res.Skipped)
	require.Equal(t, 1, res.Updated)
	require.NotNil(t, snap.Docs[0].Frontmatter)
}

// Contract: Collect retains every document sharing an id rather than
// collapsing to a single winner, so the validator can see duplicates and
// conflicts (spec §4.6 check 2).
func Test_Collect_RetainsAllDocumentsSharingAnID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	pathA := filepath.Join(dir, "a.md")
	pathB := filepath.Join(dir, "b.md")
	writeNote(t, pathA, "---\nid: dup1\ntitle: First\n---\n# First\n", older)
	writeNote(t, pathB, "---\nid: dup1\ntitle: Second\n---\n# Second\n", newer)

	snap, _, err := collector.Collect([]string{pathA, pathB}, nil, false)
	require.NoError(t, err)

	grouped := snap.ByID()
	require.Len(t, grouped["dup1"], 2)
}

// Contract: Resolve keeps the document with the larger mtime among those
// sharing an id (spec §3, §4.4), while duplicate detection itself is left to
// the validator operating on the raw snapshot.
func Test_Snapshot_Resolve_KeepsLargerMtimeAmongDuplicateIDs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	pathOld := filepath.Join(dir, "old.md")
	pathNew := filepath.Join(dir, "new.md")
	writeNote(t, pathOld, "---\nid: dup1\ntitle: Old\n---\n# Old\n", older)
	writeNote(t, pathNew, "---\nid: dup1\ntitle: New\n---\n# New\n", newer)

	snap, _, err := collector.Collect([]string{pathOld, pathNew}, nil, false)
	require.NoError(t, err)

	resolved := snap.Resolve()
	doc := resolved.Lookup("dup1")
	require.NotNil(t, doc)
	require.Equal(t, "New", doc.Title)
	require.Equal(t, []string{"dup1"}, resolved.IDs())
}

// Contract: documents with no id are retained in the snapshot and excluded
// from the id-grouped view.
func Test_Collect_RetainsDocumentsWithNoID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "noid.md")
	writeNote(t, path, "# Untitled\n", time.Now())

	snap, _, err := collector.Collect([]string{path}, nil, false)
	require.NoError(t, err)
	require.Len(t, snap.Docs, 1)
	require.Len(t, snap.NoID(), 1)
	require.Empty(t, snap.ByID())
}
