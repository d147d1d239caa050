// Package aiplan implements the AI cluster planner (spec §4.13): a
// read-only "plan" phase that proposes cluster groupings and additive
// tag/label changes from the unified index, and an "apply" phase that
// writes those changes back to disk only when the index hasn't moved since
// the plan was produced. Grounded on
// original_source/src/commands/ai_index_plan.rs's connected-components,
// density, and representative computation, adapted from the Rust original's
// depends_on-only adjacency to this module's multi-kind edge set via
// pkg/ragindex/graph.
package aiplan

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	ragfs "github.com/animegolem/cli-rag-sub000/internal/fs"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/frontmatter"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/graph"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/pipeline"
)

// defaultEdgeKinds is the planner's default adjacency when the caller
// doesn't restrict to specific kinds, matching the Rust original's
// ai_index_plan default of {"depends_on", "mentions"}.
var defaultEdgeKinds = []string{model.EdgeKindDependsOn, model.EdgeKindMentions}

// Options configures one plan invocation.
type Options struct {
	EdgeKinds       []string // empty = defaultEdgeKinds
	SchemaFilter    string   // empty = unrestricted
	MinClusterSize  int      // <=0 = 1
	TagsToApply     []string // additive tags proposed for every cluster member
	LabelsToApply   map[string]string
}

// ClusterPlan is one proposed cluster within a Plan.
type ClusterPlan struct {
	ClusterID       string   `json:"clusterId"`
	Members         []string `json:"members"`
	Density         float64  `json:"density"`
	Representatives []string `json:"representatives"`
}

// Plan is the full output of the plan phase, bound to the exact on-disk
// index bytes it was computed from via SourceIndexHash.
type Plan struct {
	SourceIndexHash string        `json:"sourceIndexHash"`
	EdgeKinds       []string      `json:"edgeKinds"`
	SchemaFilter    string        `json:"schemaFilter,omitempty"`
	MinClusterSize  int           `json:"minClusterSize"`
	Clusters        []ClusterPlan `json:"clusters"`
	TagsToApply     []string      `json:"tagsToApply,omitempty"`
	LabelsToApply   map[string]string `json:"labelsToApply,omitempty"`
}

// hashRawBytes hashes the literal on-disk index bytes, not a recomputed
// canonical form — the planner binds to exactly what's on disk right now
// (spec §4.13), distinct from index.Hash's content-only canonicalization.
func hashRawBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", sum)
}

// Plan reads the unified index at indexPath and proposes cluster groupings
// over it per opts.
func Plan(indexPath string, opts Options) (Plan, error) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return Plan{}, fmt.Errorf("aiplan: read index: %w", err)
	}

	var idx model.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return Plan{}, fmt.Errorf("aiplan: decode index: %w", err)
	}

	kinds := opts.EdgeKinds
	if len(kinds) == 0 {
		kinds = defaultEdgeKinds
	}

	minSize := opts.MinClusterSize
	if minSize <= 0 {
		minSize = 1
	}

	resolved := pipeline.ResolvedFromIndex(idx)

	components := graph.ConnectedComponents(resolved, idx.Edges, kinds, opts.SchemaFilter, minSize)

	clusters := make([]ClusterPlan, 0, len(components))

	for _, c := range components {
		m := graph.ComponentMetrics(c.Members, idx.Edges, kinds)
		clusters = append(clusters, ClusterPlan{
			ClusterID:       c.ClusterID,
			Members:         c.Members,
			Density:         m.Density,
			Representatives: m.Representatives,
		})
	}

	return Plan{
		SourceIndexHash: hashRawBytes(data),
		EdgeKinds:       kinds,
		SchemaFilter:    opts.SchemaFilter,
		MinClusterSize:  minSize,
		Clusters:        clusters,
		TagsToApply:     opts.TagsToApply,
		LabelsToApply:   opts.LabelsToApply,
	}, nil
}

// ApplyResult reports what the apply phase changed.
type ApplyResult struct {
	FilesWritten []string
	Conflict     bool
}

// Apply re-checks plan.SourceIndexHash against the current bytes of
// indexPath and, if unchanged, additively writes plan.TagsToApply and
// plan.LabelsToApply into every cluster member's frontmatter (spec §4.13:
// apply is additive only — it never removes an existing tag or label). A
// drifted index is reported via ApplyResult.Conflict rather than an error;
// callers surface it as ragerr.CodePlanHashMismatch. configDir roots the
// relative file paths recorded in the index.
func Apply(configDir, indexPath string, plan Plan, pathForMember func(id string) (string, bool)) (ApplyResult, error) {
	current, err := os.ReadFile(indexPath)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("aiplan: read index: %w", err)
	}

	if hashRawBytes(current) != plan.SourceIndexHash {
		return ApplyResult{Conflict: true}, nil
	}

	var written []string

	memberSet := map[string]bool{}

	for _, c := range plan.Clusters {
		for _, id := range c.Members {
			memberSet[id] = true
		}
	}

	ids := make([]string, 0, len(memberSet))
	for id := range memberSet {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		path, ok := pathForMember(id)
		if !ok {
			continue
		}

		if err := applyToFile(path, plan.TagsToApply, plan.LabelsToApply); err != nil {
			return ApplyResult{FilesWritten: written}, err
		}

		written = append(written, path)
	}

	return ApplyResult{FilesWritten: written}, nil
}

func applyToFile(path string, tags []string, labels map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("aiplan: read %q: %w", path, err)
	}

	parsed, parseErr := frontmatter.Parse(data, path)
	if parseErr != nil && parsed.Raw == nil {
		return fmt.Errorf("aiplan: parse %q: %w", path, parseErr)
	}

	raw := parsed.Raw
	if raw == nil {
		raw = model.Mapping{}
	}

	raw["tags"] = model.SequenceValue(toAnySlice(unionTags(parsed.Projection.Tags, tags)))

	for k, v := range labels {
		raw[k] = model.ScalarValue(v)
	}

	format := parsed.Format
	if format == frontmatter.FormatNone {
		format = frontmatter.FormatYAML
	}

	out, err := frontmatter.Rewrite(format, raw, parsed.Body)
	if err != nil {
		return fmt.Errorf("aiplan: render %q: %w", path, err)
	}

	return ragfs.WriteFileAtomic(path, out, 0o644)
}

// unionTags appends any of additions not already present in existing,
// preserving existing's order (additive-only per spec §4.13).
func unionTags(existing, additions []string) []string {
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t] = true
	}

	out := append([]string(nil), existing...)

	for _, a := range additions {
		if !have[a] {
			out = append(out, a)
			have[a] = true
		}
	}

	return out
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}

	return out
}
