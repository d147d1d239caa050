// Package index writes the durable unified index and resolved-config
// snapshot artifacts (spec §4.8), grounded on the teacher's
// internal/fs.WriteFileAtomic ("write-temp-then-rename") and on canonical
// stable-key JSON serialization so the SHA-256 content hash consumed by the
// AI cluster planner (spec §4.13) is deterministic across runs.
package index

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	ragfs "github.com/animegolem/cli-rag-sub000/internal/fs"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

// Build assembles the durable Index from a resolved snapshot plus the edges
// already computed by the edge extractor (C7), sorting nodes by id for
// deterministic serialization (spec §5: "document enumeration is sorted").
func Build(resolved *model.Resolved, edges []model.Edge, generatedAt time.Time) model.Index {
	ids := append([]string(nil), resolved.IDs()...)
	sort.Strings(ids)

	nodes := make([]model.Node, 0, len(ids))

	for _, id := range ids {
		d := resolved.Lookup(id)
		nodes = append(nodes, model.Node{
			ID:     d.ID,
			Schema: d.SchemaName,
			File:   d.RelPath,
			Title:  d.Title,
			Status: d.Status,
			Tags:   d.Tags,
			Groups: d.Groups,
			MTime:  d.Fingerprint.ModTime,
			Size:   d.Fingerprint.Size,
		})
	}

	return model.Index{Version: 1, GeneratedAt: generatedAt, Nodes: nodes, Edges: edges}
}

// canonicalJSON serializes idx with map-free, field-ordered structs (Go's
// encoding/json already emits struct fields in declaration order, which is
// what makes this deterministic) and two-space indentation for readability
// on disk. includeGeneratedAt controls whether the timestamp is part of the
// hashed bytes (spec §9 open question i: implementations must pick one and
// apply it consistently across plan/apply); this module excludes it so the
// hash is a pure function of document content.
func canonicalJSON(idx model.Index, includeGeneratedAt bool) ([]byte, error) {
	type wireIndex struct {
		Version     int           `json:"version"`
		GeneratedAt *time.Time    `json:"generatedAt,omitempty"`
		Nodes       []model.Node  `json:"nodes"`
		Edges       []model.Edge  `json:"edges"`
	}

	w := wireIndex{Version: idx.Version, Nodes: idx.Nodes, Edges: idx.Edges}
	if includeGeneratedAt {
		w.GeneratedAt = &idx.GeneratedAt
	}

	if w.Nodes == nil {
		w.Nodes = []model.Node{}
	}

	if w.Edges == nil {
		w.Edges = []model.Edge{}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(w); err != nil {
		return nil, fmt.Errorf("index: encode: %w", err)
	}

	return buf.Bytes(), nil
}

// Hash returns the "sha256:<hex>" content fingerprint of idx, excluding
// generatedAt (spec §4.13, §9 open question i).
func Hash(idx model.Index) string {
	data, _ := canonicalJSON(idx, false)
	sum := sha256.Sum256(data)

	return fmt.Sprintf("sha256:%x", sum)
}

// WriteUnified writes the unified index to configDir/indexRelative,
// including generatedAt in the on-disk bytes even though it's excluded from
// the hash pre-image.
func WriteUnified(configDir, indexRelative string, idx model.Index) error {
	data, err := canonicalJSON(idx, true)
	if err != nil {
		return err
	}

	return ragfs.WriteFileAtomic(filepath.Join(configDir, indexRelative), data, 0o644)
}

// ReadUnified reads the previously written unified index, returning
// ok=false (no error) when the file doesn't exist — the signal the query
// layer uses to fall back to a live scan (spec §4.10).
func ReadUnified(configDir, indexRelative string) (model.Index, bool, error) {
	data, err := os.ReadFile(filepath.Join(configDir, indexRelative))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Index{}, false, nil
		}

		return model.Index{}, false, fmt.Errorf("index: read unified: %w", err)
	}

	var idx model.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return model.Index{}, false, fmt.Errorf("index: decode unified: %w", err)
	}

	return idx, true, nil
}

// ResolvedSnapshot is the effective-config artifact written alongside the
// unified index (spec §4.8 item 2).
type ResolvedSnapshot struct {
	ConfigVersion  int               `json:"configVersion"`
	ScanRoots      []string          `json:"scanRoots"`
	GraphDepth     int               `json:"graphDepth"`
	Bidirectional  bool              `json:"includeBidirectional"`
	OverlayEnabled bool              `json:"overlayEnabled"`
	OverlayRepo    string            `json:"overlayRepoPath,omitempty"`
	OverlayUser    string            `json:"overlayUserPath,omitempty"`
	AuthoringDest  map[string]string `json:"authoringDestinations,omitempty"`
}

// WriteResolved writes the resolved-config snapshot to
// configDir/.cli-rag/resolved.json.
func WriteResolved(configDir string, snap ResolvedSnapshot) error {
	snap.ConfigVersion = 1

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")

	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("index: encode resolved snapshot: %w", err)
	}

	return ragfs.WriteFileAtomic(filepath.Join(configDir, ".cli-rag", "resolved.json"), buf.Bytes(), 0o644)
}
