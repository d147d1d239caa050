// Package collector reconciles filesystem state with a prior unified index
// using (mtime,size) fingerprints, reparsing only changed files (spec §4.4).
//
// Directly generalizes the teacher's MDDB.ReindexIncremental
// (pkg/mddb/reindex.go): "load all index metadata once, Stat()-only fast
// path, batch deletes by id" becomes "load prior unified index nodes once,
// Stat()-only fast path, drop missing nodes." IncrementalIndexResult's
// counter shape (Inserted/Updated/Deleted/Skipped/Total) is kept as-is.
//
// Collect does NOT deduplicate documents sharing an id: the returned
// Snapshot retains every parsed document, duplicates and conflicts
// included, so the validator can run its duplicate/conflict check (spec
// §4.6 check 2) the way the original's detect_dups_conflicts operates over
// a HashMap<id, Vec<AdrDoc>> that keeps every document per id
// (original_source/src/validate/ids.rs). Callers that need a single
// canonical document per id (graph traversal, indexing, reference
// resolution) call Snapshot.Resolve, which applies the "keep larger mtime"
// policy (spec §3, §4.4).
package collector

import (
	"fmt"
	"os"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/frontmatter"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
)

// Result summarizes the outcome of one collection pass.
type Result struct {
	Inserted int
	Updated  int
	Deleted  int
	Skipped  int
	Total    int
}

// PriorEntry is the minimal state the collector needs from the previous
// index to decide whether a file changed.
type PriorEntry struct {
	Doc         *model.Document
	Fingerprint model.Fingerprint
}

// Collect reconciles candidatePaths (from discovery) against prior (keyed by
// absolute path), reparsing files whose fingerprint changed or that have no
// prior entry, and carrying forward everything else unchanged. When
// fullRescan is true, prior is ignored entirely and every file is reparsed.
//
// On carry-forward, the document's Frontmatter map is cleared (spec §4.4:
// "its frontmatter map is empty in the carry-forward case so schema rule
// checks skip it — only structural checks still apply"); all other fields
// are retained from the prior parse.
func Collect(candidatePaths []string, prior map[string]PriorEntry, fullRescan bool) (*model.Snapshot, Result, error) {
	snap := &model.Snapshot{}

	var res Result

	seen := make(map[string]bool, len(candidatePaths))

	for _, path := range candidatePaths {
		seen[path] = true

		info, err := os.Stat(path)
		if err != nil {
			res.Skipped++
			continue
		}

		fp := model.Fingerprint{ModTime: info.ModTime(), Size: info.Size()}

		if !fullRescan {
			if p, ok := prior[path]; ok && p.Fingerprint.Equal(fp) {
				carried := carryForward(p.Doc)
				appendDoc(snap, carried)
				res.Skipped++

				continue
			}
		}

		doc, err := parseOne(path, fp)
		if err != nil {
			res.Skipped++
			continue
		}

		if _, existed := prior[path]; existed {
			res.Updated++
		} else {
			res.Inserted++
		}

		appendDoc(snap, doc)
	}

	for path := range prior {
		if !seen[path] {
			res.Deleted++
		}
	}

	res.Total = len(snap.Docs)

	return snap, res, nil
}

func carryForward(prior *model.Document) *model.Document {
	clone := *prior
	clone.Frontmatter = nil

	return &clone
}

func parseOne(path string, fp model.Fingerprint) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("collector: read %q: %w", path, err)
	}

	return ParseBytes(path, data, fp), nil
}

// ParseBytes parses already-in-memory note bytes into a Document, the same
// projection parseOne applies to a file read from disk. Exported so the
// draft store can validate an assembled-but-not-yet-written note through
// the identical parse path (spec §4.11: "Run the full Validator against
// (current docs ∪ this proposed note)").
func ParseBytes(path string, data []byte, fp model.Fingerprint) *model.Document {
	parsed, _ := frontmatter.Parse(data, path)

	return &model.Document{
		Path:         path,
		ID:           parsed.Projection.ID,
		Title:        parsed.Title,
		Tags:         parsed.Projection.Tags,
		Status:       parsed.Projection.Status,
		Groups:       parsed.Projection.Groups,
		DependsOn:    parsed.Projection.DependsOn,
		Supersedes:   parsed.Projection.Supersedes,
		SupersededBy: parsed.Projection.SupersededBy,
		Frontmatter:  parsed.Raw,
		Body:         parsed.Body,
		Fingerprint:  fp,
	}
}

func appendDoc(snap *model.Snapshot, doc *model.Document) {
	snap.Docs = append(snap.Docs, doc)
}
