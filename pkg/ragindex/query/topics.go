package query

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// TopicCount is one aggregated group-label count (spec §4.10).
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// TopicsResponse is the topics() envelope.
type TopicsResponse struct {
	ProtocolVersion int          `json:"protocolVersion"`
	OK              bool         `json:"ok"`
	UsedGroupsFile  bool         `json:"usedGroupsFile"`
	Topics          []TopicCount `json:"topics"`
}

// groupsFile is the on-disk shape of the optional, user-authored groups
// file (nothing in this module writes it), ported from
// original_source/src/commands/topics.rs's reader.
type groupsFile struct {
	Sections []struct {
		Title     string `json:"title"`
		Selectors []struct {
			AnyIDs []string `json:"anyIds"`
		} `json:"selectors"`
	} `json:"sections"`
}

// Topics implements topics() (spec §4.10): prefers a previously written
// groups file under the first base that has one, otherwise aggregates
// group labels live from the resolved document set.
func Topics(src *Source, bases []string, groupsRelative string) (TopicsResponse, error) {
	for _, base := range bases {
		path := filepath.Join(base, groupsRelative)

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return TopicsResponse{}, fmt.Errorf("query: read groups file %q: %w", path, err)
		}

		var gf groupsFile
		if err := json.Unmarshal(data, &gf); err != nil {
			return TopicsResponse{}, fmt.Errorf("query: parse groups file %q: %w", path, err)
		}

		counts := map[string]int{}

		for _, sec := range gf.Sections {
			n := 0
			for _, sel := range sec.Selectors {
				n += len(sel.AnyIDs)
			}

			counts[sec.Title] += n
		}

		return TopicsResponse{
			ProtocolVersion: ProtocolVersion,
			OK:              true,
			UsedGroupsFile:  true,
			Topics:          sortedCounts(counts),
		}, nil
	}

	counts := map[string]int{}

	for _, id := range src.Resolved.IDs() {
		for _, g := range src.Resolved.Lookup(id).Groups {
			counts[g]++
		}
	}

	return TopicsResponse{
		ProtocolVersion: ProtocolVersion,
		OK:              true,
		UsedGroupsFile:  false,
		Topics:          sortedCounts(counts),
	}, nil
}

func sortedCounts(counts map[string]int) []TopicCount {
	out := make([]TopicCount, 0, len(counts))
	for topic, count := range counts {
		out = append(out, TopicCount{Topic: topic, Count: count})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })

	return out
}
