// Package validate runs the twelve-check validation pipeline over a
// document snapshot (spec §4.6), accumulating diagnostics rather than
// failing fast, mirroring the original implementation's
// errors/warnings-accumulator discipline
// (original_source/src/validate/{ids,refs,rules,body,wikilinks,cycles,isolation}.rs)
// and the teacher's degrade-to-diagnostic philosophy in internal/cli/repair.go
// (io.WarnLLM collects per-ticket problems rather than aborting a batch
// repair).
package validate

import (
	"fmt"
	"sort"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

// Diagnostic is one validation finding, serialized per spec §7 stratum 2
// ("kind, message, optional file, and code").
type Diagnostic struct {
	Severity schema.Severity `json:"kind"`
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Path     string          `json:"file,omitempty"` // relative to config dir
	DocID    string          `json:"docId,omitempty"`
	Field    string          `json:"field,omitempty"`
	Line     int             `json:"line,omitempty"`
	Col      int             `json:"col,omitempty"`
}

// Report is the accumulated outcome of one validation pass (spec §4.6:
// "ok is true iff there are no error-severity diagnostics").
type Report struct {
	OK       bool         `json:"ok"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
	DocCount int          `json:"docCount"`
	IDCount  int          `json:"idCount"`
}

// OverlayHook invokes the overlay's `validate` capability, if enabled, once
// per document (spec §4.6 overlay augmentation). A nil hook means no
// overlay is active.
type OverlayHook func(doc *model.Document, schemaName string) ([]Diagnostic, error)

// Options configures one validation run.
type Options struct {
	Schemas        []*schema.Schema
	AllowedStatuses []string
	Overlay        OverlayHook
}

type accumulator struct {
	errors   []Diagnostic
	warnings []Diagnostic
}

func (a *accumulator) push(d Diagnostic) {
	switch d.Severity {
	case schema.SeverityWarning:
		a.warnings = append(a.warnings, d)
	case schema.SeverityIgnore:
		// dropped
	default:
		a.errors = append(a.errors, d)
	}
}

// Run executes the full pipeline against snap, matching each document to a
// schema first (C5), then running checks 1-12 in spec order, accumulating
// all diagnostics before returning.
func Run(snap *model.Snapshot, opts Options) (*Report, error) {
	byName := schema.ByName(opts.Schemas)
	acc := &accumulator{}

	for _, d := range snap.Docs {
		mr := schema.Match(opts.Schemas, baseName(d.Path))
		d.SchemaName = mr.Matched
		d.MatchedSchemas = mr.AllNames

		if len(mr.AllNames) > 1 {
			acc.push(Diagnostic{
				Severity: schema.SeverityWarning,
				Code:     ragerr.CodeMultiMatch,
				Message:  fmt.Sprintf("filename matches multiple schemas: %v (using %q)", mr.AllNames, mr.Matched),
				DocID:    d.ID,
				Path:     d.RelPath,
			})
		}
	}

	checkIDIntegrity(snap, acc)
	checkDuplicatesAndConflicts(snap, acc)
	checkGlobalStatus(snap, byName, opts.AllowedStatuses, acc)

	resolved := snap.Resolve()

	checkReferenceResolution(resolved, acc)
	checkRequiredKeys(resolved, byName, acc)
	checkUnknownKeys(resolved, byName, acc)
	checkFieldRules(resolved, byName, acc)
	checkBodyPolicy(resolved, byName, acc)

	out, in := checkWikilinks(resolved, byName, acc)

	checkEdgePolicies(resolved, byName, acc)
	checkCycles(resolved, byName, acc)
	checkIsolation(resolved, out, in, acc)

	if opts.Overlay != nil {
		runOverlay(resolved, opts.Overlay, acc)
	}

	sortDiagnostics(acc.errors)
	sortDiagnostics(acc.warnings)

	return &Report{
		OK:       len(acc.errors) == 0,
		Errors:   acc.errors,
		Warnings: acc.warnings,
		DocCount: len(snap.Docs),
		IDCount:  len(resolved.IDs()),
	}, nil
}

func runOverlay(resolved *model.Resolved, hook OverlayHook, acc *accumulator) {
	for _, doc := range resolved.Docs() {
		ds, err := hook(doc, doc.SchemaName)
		if err != nil {
			// Overlay runtime errors degrade to a warning; the cycle
			// completes (spec §7: "Transient errors ... degrade to
			// warnings").
			acc.push(Diagnostic{
				Severity: schema.SeverityWarning,
				Code:     "LUA[runtime_error]",
				Message:  fmt.Sprintf("overlay validate hook failed: %v", err),
				DocID:    doc.ID,
				Path:     doc.RelPath,
			})

			continue
		}

		for _, d := range ds {
			acc.push(d)
		}
	}
}

func sortDiagnostics(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Path != ds[j].Path {
			return ds[i].Path < ds[j].Path
		}

		return ds[i].Code < ds[j].Code
	})
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}

	return path
}
