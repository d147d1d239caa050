package draft_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/draft"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

func testSchema() *schema.Schema {
	return &schema.Schema{
		Name:          "note",
		Globs:         []string{"*.md"},
		UnknownPolicy: schema.UnknownIgnore,
		New: &schema.NewNotePolicy{
			IDGenerator:      schema.IDGenIncrement,
			IDPrefix:         "NOTE-",
			IDPadding:        3,
			FilenameTemplate: "{{id}}-{{title|kebab-case}}",
			NoteTemplate:     "# {{title}}\n\n## Objective\n\n## Notes\n",
		},
		Body: &schema.BodyPolicy{
			ExpectedHeadings: []string{"Objective", "Notes"},
			PerHeadingMax:    map[string]int{"Objective": 1},
			HeadingCheck:     schema.HeadingMissingOnly,
		},
	}
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		ConfigDir:      dir,
		Bases:          []string{dir},
		FilePatterns:   []string{"*.md"},
		IndexRelative:  "index.json",
		GroupsRelative: "groups.json",
		Schemas:        []*schema.Schema{testSchema()},
	}
}

var fixedNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// Contract: start reserves an incrementing id, renders the filename
// template with a case modifier, and derives heading constraints from the
// schema's already-parsed note template.
func Test_Start_ReservesIDAndDerivesConstraints(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := draft.New(testConfig(dir), nil)

	resp, err := store.Start(draft.StartInput{SchemaName: "note", Title: "My First Note", Now: fixedNow})
	require.NoError(t, err)
	require.Equal(t, "NOTE-001", resp.ID)
	require.Equal(t, "NOTE-001-my-first-note.md", resp.Filename)
	require.Len(t, resp.Constraints.Headings, 2)
	require.Equal(t, 1, resp.Constraints.Headings[0].MaxLines)
	require.Contains(t, resp.Constraints.Readonly, "id")

	drafts, err := store.List(0, fixedNow)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
}

// Contract: submit without allow_oversize rejects a section exceeding its
// heading's max_lines with a LOC_LIMIT error (spec scenario S5).
func Test_Submit_OversizeSectionFailsWithoutAllowOversize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := draft.New(testConfig(dir), nil)

	start, err := store.Start(draft.StartInput{SchemaName: "note", Title: "Oversize Test", Now: fixedNow})
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]any{
		"frontmatter": map[string]any{},
		"sections":    map[string]string{"Objective": "a\nb\nc", "Notes": "fine"},
	})
	require.NoError(t, err)

	_, _, err = store.Submit(draft.SubmitInput{DraftID: start.DraftID, Payload: payload, Now: fixedNow})
	require.Error(t, err)
	require.True(t, ragerr.HasCode(err, ragerr.CodeLineCount))
}

// Contract: submit with allow_oversize commits the note even though a
// heading's line count exceeds its declared maximum.
func Test_Submit_AllowOversizeCommitsDespiteLongSection(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := draft.New(testConfig(dir), nil)

	start, err := store.Start(draft.StartInput{SchemaName: "note", Title: "Long Note", Now: fixedNow})
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]any{
		"sections": map[string]string{"Objective": "a\nb\nc", "Notes": "fine"},
	})
	require.NoError(t, err)

	resp, report, err := store.Submit(draft.SubmitInput{DraftID: start.DraftID, Payload: payload, AllowOversize: true, Now: fixedNow})
	require.NoError(t, err)
	require.True(t, report.OK)
	require.Equal(t, start.ID, resp.ID)

	drafts, err := store.List(0, fixedNow)
	require.NoError(t, err)
	require.Empty(t, drafts)
}

// Contract: submit rejects any payload that attempts to override a
// readonly frontmatter key.
func Test_Submit_RejectsReadonlyFieldOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := draft.New(testConfig(dir), nil)

	start, err := store.Start(draft.StartInput{SchemaName: "note", Title: "Readonly Test", Now: fixedNow})
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]any{
		"frontmatter": map[string]any{"id": "HACKED-1"},
		"sections":    map[string]string{"Objective": "ok", "Notes": "ok"},
	})
	require.NoError(t, err)

	_, _, err = store.Submit(draft.SubmitInput{DraftID: start.DraftID, Payload: payload, Now: fixedNow})
	require.Error(t, err)
	require.True(t, ragerr.HasCode(err, ragerr.CodeReadonlyField))
}

// Contract: submit on an expired draft deletes the record and reports
// DRAFT_EXPIRED.
func Test_Submit_ExpiredDraftIsRejectedAndDeleted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := draft.New(testConfig(dir), nil)

	start, err := store.Start(draft.StartInput{SchemaName: "note", Title: "Stale", Now: fixedNow})
	require.NoError(t, err)

	future := fixedNow.Add(draft.DefaultTTLSeconds*time.Second + time.Hour)

	payload, _ := json.Marshal(map[string]any{"sections": map[string]string{"Objective": "x", "Notes": "y"}})

	_, _, err = store.Submit(draft.SubmitInput{DraftID: start.DraftID, Payload: payload, Now: future})
	require.Error(t, err)
	require.True(t, ragerr.HasCode(err, ragerr.CodeDraftExpired))

	drafts, err := store.List(0, future)
	require.NoError(t, err)
	require.Empty(t, drafts)
}

// Contract: cancel without a draft-id auto-selects the sole outstanding
// draft; with more than one, it requires disambiguation.
func Test_Cancel_AutoSelectsSingleDraftAndRejectsAmbiguity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := draft.New(testConfig(dir), nil)

	start, err := store.Start(draft.StartInput{SchemaName: "note", Title: "Solo", Now: fixedNow})
	require.NoError(t, err)

	cancelled, err := store.Cancel("", fixedNow)
	require.NoError(t, err)
	require.Equal(t, start.DraftID, cancelled)

	_, err = store.Start(draft.StartInput{SchemaName: "note", Title: "First", Now: fixedNow})
	require.NoError(t, err)

	_, err = store.Start(draft.StartInput{SchemaName: "note", Title: "Second", Now: fixedNow})
	require.NoError(t, err)

	_, err = store.Cancel("", fixedNow)
	require.Error(t, err)
	require.True(t, ragerr.HasCode(err, ragerr.CodeMultipleDrafts))
}

// Contract: list filters to drafts older than stale_days.
func Test_List_FiltersByStaleDays(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := draft.New(testConfig(dir), nil)

	_, err := store.Start(draft.StartInput{SchemaName: "note", Title: "Old", Now: fixedNow})
	require.NoError(t, err)

	later := fixedNow.Add(48 * time.Hour)

	drafts, err := store.List(1, later)
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	drafts, err = store.List(100, later)
	require.NoError(t, err)
	require.Empty(t, drafts)
}
