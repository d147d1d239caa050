package frontmatter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/frontmatter"
)

// Contract: both YAML and TOML fences decode into the same projection shape.
func Test_Parse_DecodesBothFormats_When_FenceWellFormed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
	}{
		{
			name: "yaml",
			src: strings.Join([]string{
				"---",
				"id: ADR-123",
				"tags: [a, b]",
				"status: proposed",
				"groups: [\"Tools & Execution\"]",
				"depends_on: [ADR-100]",
				"supersedes: ADR-050",
				"---",
				"",
				"# ADR-123: Sample",
				"",
				"Body here.",
			}, "\n"),
		},
		{
			name: "toml",
			src: strings.Join([]string{
				"+++",
				`id = "ADR-123"`,
				`tags = ["a", "b"]`,
				`status = "proposed"`,
				`groups = ["Tools & Execution"]`,
				`depends_on = ["ADR-100"]`,
				`supersedes = "ADR-050"`,
				"+++",
				"",
				"# ADR-123: Sample",
				"",
				"Body here.",
			}, "\n"),
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			parsed, err := frontmatter.Parse([]byte(tc.src), "/tmp/ADR-123-sample.md")
			require.NoError(t, err)
			require.True(t, parsed.HadFence)
			require.Equal(t, "ADR-123", parsed.Projection.ID)
			require.Equal(t, "proposed", parsed.Projection.Status)
			require.Equal(t, []string{"a", "b"}, parsed.Projection.Tags)
			require.Equal(t, []string{"Tools & Execution"}, parsed.Projection.Groups)
			require.Equal(t, []string{"ADR-100"}, parsed.Projection.DependsOn)
			require.Equal(t, []string{"ADR-050"}, parsed.Projection.Supersedes)
			require.Equal(t, "ADR-123: Sample", parsed.Title)
			require.Contains(t, parsed.Body, "Body here.")
		})
	}
}

// Contract: missing frontmatter degrades to an empty projection, never an error.
func Test_Parse_TitleFallsBackToFilename_When_NoFence(t *testing.T) {
	t.Parallel()

	parsed, err := frontmatter.Parse([]byte("just a body, no fence\n"), "/tmp/plain-note.md")
	require.NoError(t, err)
	require.False(t, parsed.HadFence)
	require.Empty(t, parsed.Projection.ID)
	require.Equal(t, "plain-note.md", parsed.Title)
}

// Contract: CRLF line endings are normalized for delimiter scanning.
func Test_Parse_NormalizesCRLF_When_ScanningDelimiters(t *testing.T) {
	t.Parallel()

	src := "---\r\nid: X-1\r\n---\r\n\r\n# Title\r\n"

	parsed, err := frontmatter.Parse([]byte(src), "/tmp/x.md")
	require.NoError(t, err)
	require.True(t, parsed.HadFence)
	require.Equal(t, "X-1", parsed.Projection.ID)
}

// Contract: a nested mapping round-trips through the generic Raw tree.
func Test_Parse_PreservesNestedMapping_When_YAMLHasObjectField(t *testing.T) {
	t.Parallel()

	src := strings.Join([]string{
		"---",
		"id: X-2",
		"meta:",
		"  owner: alice",
		"  retries: 3",
		"---",
		"body",
	}, "\n")

	parsed, err := frontmatter.Parse([]byte(src), "/tmp/x2.md")
	require.NoError(t, err)

	meta, ok := parsed.Raw["meta"]
	require.True(t, ok)
	require.Equal(t, "alice", meta.Nested["owner"].Scalar)
}
