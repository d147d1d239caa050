package query_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/query"
)

// Contract: JSONRenderer/NDJSONRenderer both round-trip an envelope through
// encoding/json without structural drift — NDJSON is just JSONRenderer's
// compact, unindented sibling (spec §6 --format json|ndjson).
func Test_Renderers_RoundTripSameStructure(t *testing.T) {
	t.Parallel()

	resp := query.SearchResponse{
		ProtocolVersion: query.ProtocolVersion,
		OK:              true,
		UsedUnified:     true,
		Results: []query.SearchItem{
			{Kind: "note", ID: "A-1", Title: "Alpha", File: "a-1.md", Text: "a todo item", Source: "body"},
		},
	}

	var pretty bytes.Buffer
	require.NoError(t, query.JSONRenderer{}.Render(&pretty, resp))

	var compact bytes.Buffer
	require.NoError(t, query.NDJSONRenderer{}.Render(&compact, resp))

	var gotPretty, gotCompact query.SearchResponse
	require.NoError(t, json.Unmarshal(pretty.Bytes(), &gotPretty))
	require.NoError(t, json.Unmarshal(compact.Bytes(), &gotCompact))

	if diff := cmp.Diff(gotPretty, gotCompact); diff != "" {
		t.Fatalf("pretty vs compact render diverged (-pretty +compact):\n%s", diff)
	}

	if diff := cmp.Diff(resp, gotPretty); diff != "" {
		t.Fatalf("round-tripped envelope diverged from source (-want +got):\n%s", diff)
	}
}
