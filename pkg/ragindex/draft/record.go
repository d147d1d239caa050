// Package draft implements the staged authoring workflow (spec §4.11):
// start reserves an id and materializes constraints, submit assembles and
// validates a proposed note before committing it, cancel discards a
// reservation, and list enumerates outstanding drafts.
//
// Draft records persist as JSON under <config-dir>/.cli-rag/drafts via the
// same ragfs.WriteFileAtomic helper the indexer uses (pkg/ragindex/index),
// matching spec §5's "each write goes via write-temp-then-rename."
package draft

import "time"

// DefaultTTLSeconds is the draft lifetime when a schema does not override
// it (spec §3: "TTL seconds (default 86400)").
const DefaultTTLSeconds = 86400

// HeadingConstraint is one expected body heading and its optional line cap.
type HeadingConstraint struct {
	Name     string `json:"name"`
	MaxLines int    `json:"maxLines,omitempty"`
}

// IntRange bounds a frontmatter integer field.
type IntRange struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// FloatRange bounds a frontmatter float field.
type FloatRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Constraints is the derived envelope a submit payload must satisfy (spec
// §3 "Draft record" / §4.11 "Derive constraints").
type Constraints struct {
	Headings []HeadingConstraint    `json:"headings"`
	Allowed  []string               `json:"allowed"`
	Readonly []string               `json:"readonly"`
	Enums    map[string][]string    `json:"enums,omitempty"`
	Globs    map[string][]string    `json:"globs,omitempty"`
	Integers map[string]IntRange    `json:"integers,omitempty"`
	Floats   map[string]FloatRange  `json:"floats,omitempty"`
}

// Record is the persisted reservation a submit/cancel call later resolves
// by draft id (spec §3 "Draft record", §4.11).
type Record struct {
	DraftID         string         `json:"draftId"`
	Schema          string         `json:"schema"`
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Filename        string         `json:"filename"`
	Base            string         `json:"base"`
	FilePath        string         `json:"filePath"` // absolute target path, computed at start time
	CreatedAt       int64          `json:"createdAt"` // unix seconds
	TTLSeconds      int64          `json:"ttlSeconds"`
	NoteTemplate    string         `json:"noteTemplate"`
	SeedFrontmatter map[string]any `json:"seedFrontmatter"`
	Constraints     Constraints    `json:"constraints"`
	Instructions    string         `json:"instructions"`
	ContentHash     string         `json:"contentHash"`
	PrimaryHeading  string         `json:"primaryHeading"`
}

// Expired reports whether the record's TTL has elapsed as of now (spec
// §4.11 submit: "created_at + ttl_seconds >= now").
func (r Record) Expired(now time.Time) bool {
	deadline := time.Unix(r.CreatedAt, 0).Add(time.Duration(r.TTLSeconds) * time.Second)
	return now.After(deadline)
}
