// Package model defines the shared types that flow between every ragindex
// component: parsed documents, schema policies, graph edges, and the
// durable unified index snapshot.
package model

import "time"

// Fingerprint captures the (mtime, size) pair used by the incremental
// collector to decide whether a file needs reparsing.
type Fingerprint struct {
	ModTime time.Time
	Size    int64
}

// Equal reports whether two fingerprints represent the same observed state.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.ModTime.Equal(other.ModTime) && f.Size == other.Size
}

// Document is a parsed note. Created by the parser, mutated only by the
// collector (fingerprint refresh on carry-forward), destroyed when the file
// disappears and a rescan runs (spec §3).
type Document struct {
	Path           string // absolute source path
	RelPath        string // relative to the config directory
	ID             string // may be empty; downstream validation flags this
	Title          string
	Tags           []string
	Status         string
	Groups         []string
	DependsOn      []string
	Supersedes     []string
	SupersededBy   []string
	Refs           map[string][]string // user-declared reference fields -> target ids
	Frontmatter    Mapping             // full key->value frontmatter, preserved
	Body           string              // content after the frontmatter block
	SchemaName     string              // resolved by the schema matcher; empty if no match
	MatchedSchemas []string            // all schemas whose globs matched (for multi-match diagnostics)
	Fingerprint    Fingerprint
}

// Snapshot is the raw, undeduplicated document set for one validate/watch
// cycle: every file the collector parsed, including documents that share an
// id (true duplicates/conflicts) or carry no id at all. The validator groups
// Docs by id itself to detect duplicates/conflicts (spec §4.6 check 2); all
// other components operate on the deduplicated view returned by Resolve.
type Snapshot struct {
	Docs []*Document
}

// All returns every document in the snapshot.
func (s *Snapshot) All() []*Document {
	return s.Docs
}

// ByID groups Docs by id, omitting documents with no id.
func (s *Snapshot) ByID() map[string][]*Document {
	out := make(map[string][]*Document)

	for _, d := range s.Docs {
		if d.ID == "" {
			continue
		}

		out[d.ID] = append(out[d.ID], d)
	}

	return out
}

// NoID returns every document with an empty id.
func (s *Snapshot) NoID() []*Document {
	var out []*Document

	for _, d := range s.Docs {
		if d.ID == "" {
			out = append(out, d)
		}
	}

	return out
}

// Resolved is the deduplicated, id-keyed view used by graph, query, edge
// extraction, and indexing: exactly one document per id, chosen per the
// "retain the one with larger mtime" policy across documents sharing an id
// (spec §3, §4.4). Order is insertion order of first occurrence, matching
// deterministic enumeration requirements (spec §5).
type Resolved struct {
	order []string
	byID  map[string]*Document
}

// Lookup returns the resolved winner for id, or nil if unknown.
func (r *Resolved) Lookup(id string) *Document {
	return r.byID[id]
}

// IDs returns every resolved id in deterministic order.
func (r *Resolved) IDs() []string {
	return r.order
}

// Docs returns every resolved document in deterministic order.
func (r *Resolved) Docs() []*Document {
	out := make([]*Document, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}

	return out
}

// Resolve reduces the snapshot to its deduplicated view.
func (s *Snapshot) Resolve() *Resolved {
	res := &Resolved{byID: make(map[string]*Document)}

	for _, d := range s.Docs {
		if d.ID == "" {
			continue
		}

		cur, ok := res.byID[d.ID]
		if !ok {
			res.byID[d.ID] = d
			res.order = append(res.order, d.ID)

			continue
		}

		if d.Fingerprint.ModTime.After(cur.Fingerprint.ModTime) {
			res.byID[d.ID] = d
		}
	}

	return res
}

// EdgeKindDependsOn, EdgeKindSupersedes, EdgeKindSupersededBy, and
// EdgeKindMentions are the built-in edge kinds. User-declared reference
// fields contribute additional kinds named after the field.
const (
	EdgeKindDependsOn    = "depends_on"
	EdgeKindSupersedes   = "supersedes"
	EdgeKindSupersededBy = "superseded_by"
	EdgeKindMentions     = "mentions"
)

// Location is a (line, column-start, column-end) span within a document's
// body, 1-indexed on line, 0-indexed on columns. Only mention edges carry
// locations; typed edges carry none.
type Location struct {
	Line     int `json:"line"`
	ColStart int `json:"colStart"`
	ColEnd   int `json:"colEnd"`
}

// Edge is a directed relationship between two known ids.
type Edge struct {
	From      string     `json:"from"`
	To        string     `json:"to"`
	Kind      string     `json:"kind"`
	Locations []Location `json:"locations,omitempty"`
}

// Node is the durable, denormalized per-document record written to the
// unified index.
type Node struct {
	ID     string    `json:"id"`
	Schema string    `json:"schema"`
	File   string    `json:"file"` // relative to config dir
	Title  string    `json:"title"`
	Status string    `json:"status"`
	Tags   []string  `json:"tags"`
	Groups []string  `json:"groups"`
	MTime  time.Time `json:"mtime"`
	Size   int64     `json:"size"`
}

// Index is the durable unified index: nodes + kinded edges + metadata.
// Its canonical serialized bytes are SHA-256 hashed to produce a content
// fingerprint consumed by the AI cluster planner (spec §3, §4.13).
type Index struct {
	Version     int    `json:"version"`
	GeneratedAt time.Time `json:"generatedAt"`
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
}
