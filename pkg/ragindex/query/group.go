package query

import (
	"os"
	"path/filepath"
	"strings"
)

// GroupMember is one document matching a group/topic filter (spec §4.10).
type GroupMember struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Status  string   `json:"status,omitempty"`
	Groups  []string `json:"groups"`
	File    string   `json:"file,omitempty"`
	Content string   `json:"content,omitempty"`
}

// GroupResponse is the group(topic) envelope.
type GroupResponse struct {
	ProtocolVersion int           `json:"protocolVersion"`
	OK              bool          `json:"ok"`
	Topic           string        `json:"topic"`
	Members         []GroupMember `json:"members"`
}

// Group implements group(topic, include_content?) (spec §4.10):
// case-insensitive substring match against each document's groups.
func Group(src *Source, topic string, includeContent bool) GroupResponse {
	q := strings.ToLower(topic)

	var members []GroupMember

	for _, id := range src.Resolved.IDs() {
		d := src.Resolved.Lookup(id)

		matched := false

		for _, g := range d.Groups {
			if strings.Contains(strings.ToLower(g), q) {
				matched = true
				break
			}
		}

		if !matched {
			continue
		}

		m := GroupMember{ID: d.ID, Title: d.Title, Status: d.Status, Groups: d.Groups, File: d.RelPath}

		if includeContent {
			m.Content = readFileContent(src.ConfigDir, d.RelPath)
		}

		members = append(members, m)
	}

	return GroupResponse{
		ProtocolVersion: ProtocolVersion,
		OK:              true,
		Topic:           topic,
		Members:         members,
	}
}

// readFileContent reads a document's raw on-disk content (frontmatter and
// body), returning "" if the file can't be read rather than failing the
// whole query — the file is always re-readable from the indexed path, but a
// concurrent delete between index write and query shouldn't surface as an
// error (spec §4.10 "live" semantics).
func readFileContent(configDir, relPath string) string {
	data, err := os.ReadFile(filepath.Join(configDir, relPath))
	if err != nil {
		return ""
	}

	return string(data)
}
