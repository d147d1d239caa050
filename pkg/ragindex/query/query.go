// Package query implements the read-only query surface exposed over the
// unified index (spec §4.10): search, topics, group, get, and the
// cluster/path/graph thin wrappers over pkg/ragindex/graph. Every operation
// returns a stable JSON envelope (protocolVersion, ok, plus
// operation-specific fields); the Renderer implementations in renderer.go
// write these same structs as JSON or NDJSON.
//
// Grounded on the teacher's internal/cli command dispatch (the
// Command.Exec signature and its IO wrapper's "warn, then still return a
// result" idiom for partial success) for how an operation reports a
// live-scan fallback without failing the call, and on
// original_source/src/commands/{search,topics,group,get,cluster}.rs for the
// per-operation field shapes.
package query

import (
	"fmt"
	"os"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/index"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/pipeline"
)

// ProtocolVersion is the stable envelope version emitted by every query
// operation (spec §4.10).
const ProtocolVersion = 1

// Source is the resolved document/edge view one query call runs over,
// either loaded from a previously written unified index or produced by a
// live pipeline.Run scan.
type Source struct {
	Resolved    *model.Resolved
	Edges       []model.Edge
	ConfigDir   string
	UsedUnified bool
}

// Load prefers the durable unified index and falls back to a live scan,
// printing the documented stderr note on fallback (spec §4.10: "Falls back
// to live scan if the unified index is absent; emits a one-line note on
// stderr indicating the fallback").
func Load(cfg *config.Config) (*Source, error) {
	idx, ok, err := index.ReadUnified(cfg.ConfigDir, cfg.IndexRelative)
	if err != nil {
		return nil, fmt.Errorf("query: load unified index: %w", err)
	}

	if ok {
		return &Source{
			Resolved:    pipeline.ResolvedFromIndex(idx),
			Edges:       idx.Edges,
			ConfigDir:   cfg.ConfigDir,
			UsedUnified: true,
		}, nil
	}

	fmt.Fprintln(os.Stderr, "Note: unified index not found; falling back to live scan. Consider `cli-rag validate`.")

	result, err := pipeline.Run(pipeline.Options{Cfg: cfg, FullRescan: true})
	if err != nil {
		return nil, fmt.Errorf("query: live scan: %w", err)
	}

	return &Source{
		Resolved:    result.Resolved,
		Edges:       result.Edges,
		ConfigDir:   cfg.ConfigDir,
		UsedUnified: false,
	}, nil
}

// notFound builds the ragerr.CodeUnresolvedRef "id not found" error used by
// get/cluster/path when the requested id is unknown (spec §4.10).
func notFound(id string) error {
	return &ragerr.Error{Code: ragerr.CodeUnresolvedRef, DocID: id, Err: fmt.Errorf("id not found")}
}
