package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

// SearchItem is one hit or body-extracted item (spec §4.10). Kind is one of
// {note, todo, kanban, gtd}: checkbox todos and GTD boxes whose command is
// "todo" both report kind "todo" (the test fixture
// original_source/tests/integration_search_gtd.rs's
// search_emits_gtd_box_with_rank_and_due_and_span expects exactly this); a
// GTD box with any other command reports kind "gtd".
type SearchItem struct {
	Kind          string   `json:"kind"`
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	File          string   `json:"file"`
	Tags          []string `json:"tags,omitempty"`
	Status        string   `json:"status,omitempty"`
	Groups        []string `json:"groups,omitempty"`
	Text          string   `json:"text,omitempty"`
	Source        string   `json:"source,omitempty"` // "body" | "frontmatter"
	Done          bool     `json:"done,omitempty"`
	KanbanStatus  string   `json:"kanbanStatus,omitempty"`
	Statusline    string   `json:"kanbanStatusline,omitempty"`
	PriorityScore int      `json:"priorityScore,omitempty"`
	DueDate       string   `json:"dueDate,omitempty"`
	Span          []int    `json:"span,omitempty"`
}

// SearchResponse is the search() envelope.
type SearchResponse struct {
	ProtocolVersion int          `json:"protocolVersion"`
	OK              bool         `json:"ok"`
	UsedUnified     bool         `json:"usedUnifiedIndex"`
	Results         []SearchItem `json:"results"`
}

var defaultSearchKinds = []string{"note", "todo", "kanban", "gtd"}

// Search implements search(query) (spec §4.10): case-insensitive substring
// match over id and title selects candidate documents; kinds (nil/empty
// defaults to all four) then selects which item shapes each candidate
// contributes.
func Search(src *Source, query string, kinds []string) SearchResponse {
	wanted := kindSet(kinds)
	q := strings.ToLower(query)

	var results []SearchItem

	for _, id := range src.Resolved.IDs() {
		d := src.Resolved.Lookup(id)
		if !strings.Contains(strings.ToLower(d.ID), q) && !strings.Contains(strings.ToLower(d.Title), q) {
			continue
		}

		if wanted["note"] {
			results = append(results, SearchItem{
				Kind: "note", ID: d.ID, Title: d.Title, File: d.RelPath,
				Tags: d.Tags, Status: d.Status, Groups: d.Groups,
			})
		}

		if wanted["todo"] {
			results = append(results, todoItems(d)...)
		}

		if wanted["kanban"] {
			results = append(results, kanbanItems(d)...)
		}

		results = append(results, gtdItems(d, wanted)...)
	}

	return SearchResponse{
		ProtocolVersion: ProtocolVersion,
		OK:              true,
		UsedUnified:     src.UsedUnified,
		Results:         results,
	}
}

func kindSet(kinds []string) map[string]bool {
	if len(kinds) == 0 {
		kinds = defaultSearchKinds
	}

	out := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		out[strings.ToLower(strings.TrimSpace(k))] = true
	}

	return out
}

var todoLineRe = regexp.MustCompile(`^(\s*-\s*\[([ xX])\]\s*)(.*)$`)

// todoItems scans d.Body for GFM checkbox lines `- [ ] ...` / `- [x] ...`
// (spec §4.10).
func todoItems(d *model.Document) []SearchItem {
	var out []SearchItem

	for _, line := range splitLines(d.Body) {
		m := todoLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		prefixLen := len(m[1])

		out = append(out, SearchItem{
			Kind:   "todo",
			ID:     d.ID,
			Title:  d.Title,
			File:   d.RelPath,
			Text:   m[3],
			Source: "body",
			Done:   strings.EqualFold(m[2], "x"),
			Span:   []int{prefixLen, len(line)},
		})
	}

	return out
}

// kanbanItems emits at most one item per document, sourced from frontmatter
// kanban_status/kanban_statusline/due_date (spec §4.10).
func kanbanItems(d *model.Document) []SearchItem {
	status, hasStatus := frontmatterString(d, "kanban_status")
	statusline, hasStatusline := frontmatterString(d, "kanban_statusline")
	due, hasDue := frontmatterString(d, "due_date")

	if !hasStatus && !hasStatusline && !hasDue {
		return nil
	}

	return []SearchItem{{
		Kind:         "kanban",
		ID:           d.ID,
		Title:        d.Title,
		File:         d.RelPath,
		Source:       "frontmatter",
		KanbanStatus: status,
		Statusline:   statusline,
		DueDate:      due,
	}}
}

var gtdBracketRe = regexp.MustCompile(`^\[([^\]]*)\](.*)$`)

// gtdItems scans d.Body for GTD boxes `[@CMD:attr=value:...] text` (spec
// §4.10), ported from original_source/src/commands/search_gtd.rs's
// parse_gtd_box and map_rank_to_priority_score.
func gtdItems(d *model.Document, wanted map[string]bool) []SearchItem {
	var out []SearchItem

	for _, line := range splitLines(d.Body) {
		trimmed := strings.TrimSpace(line)

		m := gtdBracketRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}

		inside := m[1]
		if !strings.HasPrefix(strings.TrimSpace(inside), "@") {
			continue
		}

		tokens := strings.Split(inside, ":")
		cmd := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokens[0]), "@"))

		attrs := make(map[string]string, len(tokens)-1)

		for _, t := range tokens[1:] {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}

			k, v, hasVal := strings.Cut(t, "=")
			k = strings.ToLower(strings.TrimSpace(k))

			if k == "" {
				continue
			}

			if !hasVal {
				v = "true"
			}

			attrs[k] = strings.TrimSpace(v)
		}

		remainder := strings.TrimSpace(m[2])

		kind := "gtd"
		if strings.EqualFold(cmd, "todo") {
			kind = "todo"
		}

		if !wanted[kind] {
			continue
		}

		item := SearchItem{
			Kind:   kind,
			ID:     d.ID,
			Title:  d.Title,
			File:   d.RelPath,
			Text:   remainder,
			Source: "body",
			Span:   []int{strings.Index(line, remainder), len(line)},
		}

		if rank, ok := attrs["rank"]; ok {
			if score, ok := mapRankToPriorityScore(rank); ok {
				item.PriorityScore = score
			}
		}

		if due, ok := attrs["due"]; ok {
			item.DueDate = due
		}

		out = append(out, item)
	}

	return out
}

// mapRankToPriorityScore maps a GTD rank attribute to a 1..10 priorityScore
// (spec §4.10): numeric 1..100 scales via ceil(n/10); low/medium/high/urgent
// map to fixed scores.
func mapRankToPriorityScore(rank string) (int, bool) {
	lower := strings.ToLower(rank)

	if n, err := strconv.Atoi(lower); err == nil && n >= 1 && n <= 100 {
		score := (n + 9) / 10
		if score < 1 {
			score = 1
		}

		if score > 10 {
			score = 10
		}

		return score, true
	}

	switch lower {
	case "low":
		return 3, true
	case "medium":
		return 5, true
	case "high":
		return 8, true
	case "urgent":
		return 10, true
	default:
		return 0, false
	}
}

func frontmatterString(d *model.Document, key string) (string, bool) {
	if d.Frontmatter == nil {
		return "", false
	}

	v, ok := d.Frontmatter[key]
	if !ok || v.Kind != model.KindScalar {
		return "", false
	}

	s, ok := v.Scalar.(string)

	return s, ok
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}
