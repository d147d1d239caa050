package query_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/query"
)

// Contract: group(topic) matches case-insensitively against each
// document's groups.
func Test_Group_MatchesGroupsCaseInsensitively(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1", Title: "Alpha", Groups: []string{"Infra"}}
	b := &model.Document{ID: "B-1", Title: "Beta", Groups: []string{"security"}}
	src := sourceOf(a, b)

	resp := query.Group(src, "infra", false)
	require.Len(t, resp.Members, 1)
	require.Equal(t, "A-1", resp.Members[0].ID)
	require.Empty(t, resp.Members[0].Content)
}
