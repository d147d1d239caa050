package query

import (
	"encoding/json"
	"io"
)

// Renderer formats one query envelope for a `--format` mode (spec §6).
// `cmd/cli-rag` wires the json and ndjson Renderers through the core query
// envelopes; plain and ai format renderers are documented here as the
// extension point but this module has no implementation of them.
type Renderer interface {
	// Render writes env (one of the *Response/Report structs in this
	// package) to w in the renderer's wire format.
	Render(w io.Writer, env any) error
}

// JSONRenderer renders an envelope as a single pretty-printed JSON object.
type JSONRenderer struct{}

func (JSONRenderer) Render(w io.Writer, env any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(env)
}

// NDJSONRenderer renders an envelope as one compact JSON line, used by the
// watch command's cycle stream and by `--format ndjson` callers that want
// one envelope per line rather than pretty-printed JSON.
type NDJSONRenderer struct{}

func (NDJSONRenderer) Render(w io.Writer, env any) error {
	return json.NewEncoder(w).Encode(env)
}
