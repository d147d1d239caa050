package query_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/query"
)

// Contract: with no groups file present, topics() aggregates live from
// each document's Groups field.
func Test_Topics_AggregatesLiveWithoutGroupsFile(t *testing.T) {
	t.Parallel()

	a := &model.Document{ID: "A-1", Groups: []string{"infra"}}
	b := &model.Document{ID: "B-1", Groups: []string{"infra", "security"}}
	src := sourceOf(a, b)

	resp, err := query.Topics(src, []string{t.TempDir()}, "groups.json")
	require.NoError(t, err)
	require.False(t, resp.UsedGroupsFile)

	counts := map[string]int{}
	for _, tc := range resp.Topics {
		counts[tc.Topic] = tc.Count
	}

	require.Equal(t, 2, counts["infra"])
	require.Equal(t, 1, counts["security"])
}

// Contract: when a base has a groups.json file, its section selector
// counts take precedence over live aggregation.
func Test_Topics_PrefersGroupsFileWhenPresent(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	gf := `{"sections":[{"title":"infra","selectors":[{"anyIds":["A-1","B-1"]}]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(base, "groups.json"), []byte(gf), 0o644))

	src := sourceOf(&model.Document{ID: "A-1"})

	resp, err := query.Topics(src, []string{base}, "groups.json")
	require.NoError(t, err)
	require.True(t, resp.UsedGroupsFile)
	require.Equal(t, []query.TopicCount{{Topic: "infra", Count: 2}}, resp.Topics)
}
