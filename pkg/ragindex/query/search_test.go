package query_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/query"
)

func sourceOf(docs ...*model.Document) *query.Source {
	snap := &model.Snapshot{Docs: docs}

	return &query.Source{Resolved: snap.Resolve()}
}

// Contract: a checkbox todo line in the body is emitted as a "todo" item
// with the unchecked/checked state captured.
func Test_Search_EmitsTodoItemsFromBody(t *testing.T) {
	t.Parallel()

	d := &model.Document{ID: "ADR-100", Title: "Plan", Body: "- [ ] First task\nSome text\n- [x] Done task"}
	src := sourceOf(d)

	resp := query.Search(src, "ADR-100", []string{"todo"})
	require.True(t, resp.OK)

	var found bool

	for _, r := range resp.Results {
		if r.Kind == "todo" {
			found = true
		}
	}

	require.True(t, found)
}

// Contract: kanban frontmatter fields produce one "kanban" item per doc.
func Test_Search_EmitsKanbanItemFromFrontmatter(t *testing.T) {
	t.Parallel()

	d := &model.Document{
		ID: "ADR-101", Title: "Track", Body: "No tasks",
		Frontmatter: model.Mapping{
			"kanban_status":     model.ScalarValue("doing"),
			"kanban_statusline": model.ScalarValue("In progress"),
			"due_date":          model.ScalarValue("2025-12-31"),
		},
	}
	src := sourceOf(d)

	resp := query.Search(src, "ADR-101", []string{"kanban", "todo"})

	var item *query.SearchItem

	for i := range resp.Results {
		if resp.Results[i].Kind == "kanban" {
			item = &resp.Results[i]
		}
	}

	require.NotNil(t, item)
	require.Equal(t, "doing", item.KanbanStatus)
}

// Contract (S4-equivalent): a GTD box with cmd TODO maps rank/due/span per
// spec §4.10's documented rank->priorityScore table.
func Test_Search_EmitsGTDBoxWithRankDueAndSpan(t *testing.T) {
	t.Parallel()

	d := &model.Document{ID: "ADR-102", Title: "Review", Body: "[@TODO:rank=high:due=2025-09-01] Review deployment"}
	src := sourceOf(d)

	resp := query.Search(src, "ADR-102", []string{"todo"})

	var item *query.SearchItem

	for i := range resp.Results {
		if resp.Results[i].Kind == "todo" && resp.Results[i].Source == "body" {
			item = &resp.Results[i]
		}
	}

	require.NotNil(t, item)
	require.Equal(t, 8, item.PriorityScore)
	require.Equal(t, "2025-09-01", item.DueDate)
	require.Len(t, item.Span, 2)
	require.LessOrEqual(t, item.Span[0], item.Span[1])
}

// Contract: a GTD box whose command isn't "todo" reports kind "gtd", not
// "todo", and is excluded unless the gtd kind is requested.
func Test_Search_NonTodoGTDBoxReportsGTDKind(t *testing.T) {
	t.Parallel()

	d := &model.Document{ID: "ADR-103", Title: "Waiting", Body: "[@WAITING:rank=low] Blocked on vendor"}
	src := sourceOf(d)

	onlyTodo := query.Search(src, "ADR-103", []string{"todo"})
	require.Empty(t, onlyTodo.Results)

	withGTD := query.Search(src, "ADR-103", nil)

	var found bool

	for _, r := range withGTD.Results {
		if r.Kind == "gtd" {
			found = true
		}
	}

	require.True(t, found)
}
