// Package pipeline composes discovery, the incremental collector, the
// validator, the edge extractor, and the indexer into the single
// "one validate/index cycle" operation shared by the CLI's validate/index
// commands, the query layer's live-scan fallback, and the watcher's
// debounce loop (spec §4.4-§4.8) — grounded on the teacher's
// MDDB.ReindexIncremental (internal/store/reindex.go), which composes the
// same walk-then-reconcile-then-persist steps behind one entrypoint rather
// than making every caller re-assemble them.
package pipeline

import (
	"path/filepath"
	"time"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/collector"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/discovery"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/edge"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/index"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/validate"
)

// Result bundles everything one cycle computed.
type Result struct {
	Snapshot *model.Snapshot
	Resolved *model.Resolved
	Edges    []model.Edge
	Index    model.Index
	Report   *validate.Report
}

// Options configures one cycle.
type Options struct {
	Cfg        *config.Config
	Prior      map[string]collector.PriorEntry // absolute path -> prior entry; nil for full rescan
	FullRescan bool
	Overlay    validate.OverlayHook
	Now        time.Time
}

// Run executes one full discovery->collect->validate->extract->build cycle.
// It never writes anything to disk; callers decide whether and where to
// persist Result.Index (index.WriteUnified/WriteResolved).
func Run(opts Options) (Result, error) {
	cfg := opts.Cfg

	paths, err := discovery.Walk(discovery.Options{
		Roots:             cfg.Bases,
		FilePatterns:      cfg.FilePatterns,
		IgnoreGlobs:       cfg.IgnoreGlobs,
		FollowSymlinks:    cfg.FollowSymlinks,
		UseDefaultIgnores: true,
	})
	if err != nil {
		return Result{}, err
	}

	snap, _, err := collector.Collect(paths, opts.Prior, opts.FullRescan)
	if err != nil {
		return Result{}, err
	}

	report, err := validate.Run(snap, validate.Options{
		Schemas:         cfg.Schemas,
		AllowedStatuses: cfg.AllowedStatuses,
		Overlay:         opts.Overlay,
	})
	if err != nil {
		return Result{}, err
	}

	resolved := snap.Resolve()

	kinds := edge.DeclaredKinds(declaredKindsOf(cfg)...)
	edges := edge.Extract(resolved, kinds)

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	idx := index.Build(resolved, edges, now)

	return Result{
		Snapshot: snap,
		Resolved: resolved,
		Edges:    edges,
		Index:    idx,
		Report:   report,
	}, nil
}

// declaredKindsOf collects every schema-declared edge kind across cfg's
// schemas so custom reference fields participate in extraction and graph
// traversal the same way the validator's cycle check already treats them.
func declaredKindsOf(cfg *config.Config) [][]string {
	out := make([][]string, 0, len(cfg.Schemas))

	for _, s := range cfg.Schemas {
		var ks []string
		for k := range s.EdgeKinds {
			ks = append(ks, k)
		}

		out = append(out, ks)
	}

	return out
}

// PriorFromIndex rebuilds a best-effort prior map from a previously written
// unified index, keyed by absolute path, for incremental collector reuse
// within one long-lived process (e.g. the watcher's debounce loop). Carried
// Document fields not present in the durable Node shape (DependsOn, Refs,
// Body, ...) are absent; a changed fingerprint always triggers a full
// reparse of that file regardless, so this only affects files whose
// fingerprint is unchanged between cycles, where the carried Document is
// used purely for its id/title/status/tags/groups/schema bookkeeping that
// the Node already captured in full.
func PriorFromIndex(configDir string, idx model.Index) map[string]collector.PriorEntry {
	out := make(map[string]collector.PriorEntry, len(idx.Nodes))

	for _, n := range idx.Nodes {
		abs := filepath.Join(configDir, n.File)

		doc := &model.Document{
			Path:        abs,
			RelPath:     n.File,
			ID:          n.ID,
			Title:       n.Title,
			Status:      n.Status,
			Tags:        n.Tags,
			Groups:      n.Groups,
			SchemaName:  n.Schema,
			Fingerprint: model.Fingerprint{ModTime: n.MTime, Size: n.Size},
		}

		out[abs] = collector.PriorEntry{Doc: doc, Fingerprint: doc.Fingerprint}
	}

	return out
}

// ResolvedFromIndex rebuilds a minimal model.Resolved from a durable Index,
// shared by the AI cluster planner and the query layer's unified-index path
// so graph operations can run over previously indexed data without
// re-parsing notes. Typed dependency edges live in idx.Edges, not on the
// reconstructed Document, so callers needing depends_on must consult edges.
func ResolvedFromIndex(idx model.Index) *model.Resolved {
	docs := make([]*model.Document, 0, len(idx.Nodes))

	for _, n := range idx.Nodes {
		docs = append(docs, &model.Document{
			ID:          n.ID,
			RelPath:     n.File,
			Title:       n.Title,
			Status:      n.Status,
			Tags:        n.Tags,
			Groups:      n.Groups,
			SchemaName:  n.Schema,
			Fingerprint: model.Fingerprint{ModTime: n.MTime, Size: n.Size},
		})
	}

	snap := &model.Snapshot{Docs: docs}

	return snap.Resolve()
}
