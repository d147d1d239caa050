package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/validate"
)

func doc(id, title, status string, dependsOn ...string) *model.Document {
	return &model.Document{
		ID:          id,
		Title:       title,
		Status:      status,
		DependsOn:   dependsOn,
		Path:        id + ".md",
		RelPath:     id + ".md",
		Frontmatter: model.Mapping{"id": model.ScalarValue(id)},
	}
}

// Contract: a document with no id produces a missing-id error and ok=false.
func Test_Run_FlagsMissingID(t *testing.T) {
	t.Parallel()

	snap := &model.Snapshot{Docs: []*model.Document{{RelPath: "untitled.md"}}}

	report, err := validate.Run(snap, validate.Options{})
	require.NoError(t, err)
	require.False(t, report.OK)
	require.Len(t, report.Errors, 1)
	require.Equal(t, "missing_id", report.Errors[0].Code)
}

// Contract: two documents sharing an id with identical title/status are a
// duplicate; differing metadata is a conflict (spec §4.6 check 2).
func Test_Run_DistinguishesDuplicateFromConflict(t *testing.T) {
	t.Parallel()

	dupSnap := &model.Snapshot{Docs: []*model.Document{
		doc("A-1", "Same", "active"),
		doc("A-1", "Same", "active"),
	}}

	report, err := validate.Run(dupSnap, validate.Options{})
	require.NoError(t, err)
	require.False(t, report.OK)
	require.Equal(t, "duplicate", report.Errors[0].Code)

	conflictSnap := &model.Snapshot{Docs: []*model.Document{
		doc("A-1", "First", "active"),
		doc("A-1", "Second", "active"),
	}}

	report, err = validate.Run(conflictSnap, validate.Options{})
	require.NoError(t, err)
	require.False(t, report.OK)
	require.Equal(t, "conflict", report.Errors[0].Code)
}

// Contract: an unresolved depends_on target is reported (spec §4.6 check 4).
func Test_Run_FlagsUnresolvedReference(t *testing.T) {
	t.Parallel()

	snap := &model.Snapshot{Docs: []*model.Document{
		doc("A-1", "A", "active", "B-9"),
	}}

	report, err := validate.Run(snap, validate.Options{})
	require.NoError(t, err)
	require.False(t, report.OK)
	require.Equal(t, "unresolved_ref", report.Errors[0].Code)
}

// Contract (S2): a two-node mutual depends_on cycle reports once at warn
// severity by default, and at error severity when cycle_policy="error".
func Test_Run_DetectsMutualCycle_AtConfiguredSeverity(t *testing.T) {
	t.Parallel()

	snap := &model.Snapshot{Docs: []*model.Document{
		doc("X-1", "X", "active", "Y-1"),
		doc("Y-1", "Y", "active", "X-1"),
	}}

	warnSchema := &schema.Schema{Name: "adr", Globs: []string{"*.md"}, CyclePolicy: schema.SeverityWarning}

	report, err := validate.Run(snap, validate.Options{Schemas: []*schema.Schema{warnSchema}})
	require.NoError(t, err)
	require.True(t, report.OK)
	require.Len(t, report.Warnings, 1)
	require.Equal(t, "cycle", report.Warnings[0].Code)

	errSchema := &schema.Schema{Name: "adr", Globs: []string{"*.md"}, CyclePolicy: schema.SeverityError}

	report, err = validate.Run(snap, validate.Options{Schemas: []*schema.Schema{errSchema}})
	require.NoError(t, err)
	require.False(t, report.OK)
	require.Len(t, report.Errors, 1)
	require.Empty(t, report.Warnings)
}

// Contract: a document with no outgoing or incoming references is flagged
// isolated, at warning severity (spec §4.6 check 12).
func Test_Run_WarnsOnIsolatedDocument(t *testing.T) {
	t.Parallel()

	snap := &model.Snapshot{Docs: []*model.Document{doc("A-1", "A", "active")}}

	report, err := validate.Run(snap, validate.Options{})
	require.NoError(t, err)
	require.True(t, report.OK)
	require.Len(t, report.Warnings, 1)
	require.Equal(t, "isolation", report.Warnings[0].Code)
}

// Contract (S3): one [[T]] body mention produces an outgoing wikilink for
// the source and an incoming one for T; the referenced document is no
// longer isolated.
func Test_Run_WikilinkMentionClearsIsolation(t *testing.T) {
	t.Parallel()

	source := doc("A-1", "A", "active")
	source.Body = "See [[T-1]] for context.\n"
	target := doc("T-1", "T", "active")

	snap := &model.Snapshot{Docs: []*model.Document{source, target}}

	report, err := validate.Run(snap, validate.Options{})
	require.NoError(t, err)
	require.Empty(t, report.Warnings)
}

// Contract: a schema's required key missing from frontmatter is an error,
// but only when the document was actually (re)parsed (non-nil Frontmatter).
func Test_Run_RequiredKey_SkipsCarriedForwardDocuments(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{Name: "adr", Globs: []string{"*.md"}, Required: []string{"owner"}}

	missing := doc("A-1", "A", "active")
	missing.Path = "a.md"

	carried := doc("B-1", "B", "active")
	carried.Path = "b.md"
	carried.Frontmatter = nil

	snap := &model.Snapshot{Docs: []*model.Document{missing, carried}}

	report, err := validate.Run(snap, validate.Options{Schemas: []*schema.Schema{s}})
	require.NoError(t, err)
	require.False(t, report.OK)
	require.Len(t, report.Errors, 1)
	require.Equal(t, "required_key", report.Errors[0].Code)
	require.Equal(t, "A-1", report.Errors[0].DocID)
}
