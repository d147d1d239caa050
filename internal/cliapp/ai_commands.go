package cliapp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	ragfs "github.com/animegolem/cli-rag-sub000/internal/fs"
	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/aiplan"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

// AICmd implements the `ai {new|index}` command family (spec §4.11, §4.13):
// a single top-level "ai" command name dispatching to the new-draft
// workflow or the cluster planner by its first positional argument, the
// way a single Command must since cli-rag's command table is keyed by
// Command.Name() (the first word of Usage) and both families share the
// "ai" prefix.
//
// ai index's two gaps left open by pkg/ragindex/aiplan (which only
// computes clusters and applies additive writes) are filled here, at the
// CLI boundary, since both are policy about *when* the CLI is allowed to
// call Apply rather than planning/writing mechanics:
//
//   - a schema tags-field capability check: a plan that proposes tags
//     against a schema that never declares (or tolerates) a `tags` key is
//     refused with ragerr.CodeNoTagsField before Apply ever runs (exit 4).
//   - an optional `.cli-rag/cache/ai-index.json` cache write, mirroring the
//     cache location query.Info reports, written only on a successful plan
//     when --write-cache is set.
func AICmd(d Deps) *Command {
	flags := flag.NewFlagSet("ai", flag.ContinueOnError)
	flags.SetInterspersed(false)

	return &Command{
		Flags: flags,
		Usage: "ai {new|index} ... [flags]",
		Short: "Agent authoring (new) and cluster planning (index) workflows",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("ai: usage is `ai {new|index} ...`")
			}

			sub := args[0]
			rest := args[1:]

			switch sub {
			case "new":
				return dispatchAINew(ctx, d, o, rest)
			case "index":
				return dispatchAIIndex(d, o, rest)
			default:
				return fmt.Errorf("ai: unknown subcommand %q (want new|index)", sub)
			}
		},
	}
}

func dispatchAIIndex(d Deps, o *IO, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("ai index: usage is `ai index {plan|apply}`")
	}

	sub := args[0]
	rest := args[1:]

	switch sub {
	case "plan":
		return aiIndexPlan(d, o, rest)
	case "apply":
		return aiIndexApply(d, o, rest)
	default:
		return fmt.Errorf("ai index: unknown subcommand %q", sub)
	}
}

func indexPath(d Deps) string {
	return filepath.Join(d.Cfg.ConfigDir, d.Cfg.IndexRelative)
}

func aiIndexPlan(d Deps, o *IO, args []string) error {
	flags := flag.NewFlagSet("ai index plan", flag.ContinueOnError)
	edgeKinds := flags.String("edge-kinds", "", "comma-separated edge kinds (default depends_on,mentions)")
	schemaFilter := flags.String("schema", "", "restrict clusters to one schema")
	minClusterSize := flags.Int("min-cluster-size", 1, "minimum members per reported cluster")
	tags := flags.String("tags", "", "comma-separated tags to additively propose")
	labels := flags.String("labels", "", "comma-separated key=value labels to additively propose")
	writeCache := flags.Bool("write-cache", false, "persist the plan to .cli-rag/cache/ai-index.json")

	if err := flags.Parse(args); err != nil {
		return err
	}

	tagsToApply := splitCSV(*tags)

	if err := checkTagsCapability(d, *schemaFilter, tagsToApply); err != nil {
		return err
	}

	plan, err := aiplan.Plan(indexPath(d), aiplan.Options{
		EdgeKinds:      splitCSV(*edgeKinds),
		SchemaFilter:   *schemaFilter,
		MinClusterSize: *minClusterSize,
		TagsToApply:    tagsToApply,
		LabelsToApply:  parseLabels(*labels),
	})
	if err != nil {
		return err
	}

	if *writeCache {
		if err := writeAIIndexCache(d, plan); err != nil {
			return err
		}
	}

	return d.renderer().Render(o.Out(), plan)
}

func aiIndexApply(d Deps, o *IO, args []string) error {
	flags := flag.NewFlagSet("ai index apply", flag.ContinueOnError)
	planFile := flags.String("plan-file", "", "path to a plan JSON document produced by `ai index plan`")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *planFile == "" {
		return fmt.Errorf("ai index apply: --plan-file required")
	}

	data, err := os.ReadFile(*planFile)
	if err != nil {
		return fmt.Errorf("ai index apply: read plan file: %w", err)
	}

	var plan aiplan.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return fmt.Errorf("ai index apply: decode plan file: %w", err)
	}

	if err := checkTagsCapability(d, plan.SchemaFilter, plan.TagsToApply); err != nil {
		return err
	}

	idxData, err := os.ReadFile(indexPath(d))
	if err != nil {
		return fmt.Errorf("ai index apply: read index: %w", err)
	}

	var idx model.Index
	if err := json.Unmarshal(idxData, &idx); err != nil {
		return fmt.Errorf("ai index apply: decode index: %w", err)
	}

	pathsByID := make(map[string]string, len(idx.Nodes))
	for _, n := range idx.Nodes {
		pathsByID[n.ID] = filepath.Join(d.Cfg.ConfigDir, n.File)
	}

	result, err := aiplan.Apply(d.Cfg.ConfigDir, indexPath(d), plan, func(id string) (string, bool) {
		p, ok := pathsByID[id]
		return p, ok
	})
	if err != nil {
		return err
	}

	if result.Conflict {
		return &ragerr.Error{Code: ragerr.CodePlanHashMismatch, Err: fmt.Errorf("ai index apply: index has changed since the plan was produced")}
	}

	return d.renderer().Render(o.Out(), result)
}

// checkTagsCapability refuses a plan/apply that proposes tags against a
// schema with no tags field and a closed (error) unknown-key policy —
// writing plan.TagsToApply there would just get rejected on the next
// validate (spec §4.13/§4.6 check 6).
func checkTagsCapability(d Deps, schemaFilter string, tagsToApply []string) error {
	if len(tagsToApply) == 0 || schemaFilter == "" {
		return nil
	}

	byName := schema.ByName(d.Cfg.Schemas)

	sch, ok := byName[schemaFilter]
	if !ok {
		return nil
	}

	if schemaHasTagsField(sch) {
		return nil
	}

	return &ragerr.Error{Code: ragerr.CodeNoTagsField, Err: fmt.Errorf("schema %q has no tags field", schemaFilter)}
}

func schemaHasTagsField(sch *schema.Schema) bool {
	if sch.UnknownPolicy != schema.UnknownError {
		return true
	}

	for _, k := range sch.Required {
		if k == "tags" {
			return true
		}
	}

	for _, k := range sch.AllowedKeys {
		if k == "tags" {
			return true
		}
	}

	if _, ok := sch.Rules["tags"]; ok {
		return true
	}

	return false
}

func parseLabels(s string) map[string]string {
	pairs := splitCSV(s)
	if len(pairs) == 0 {
		return nil
	}

	out := make(map[string]string, len(pairs))

	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}

		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return out
}

func writeAIIndexCache(d Deps, plan aiplan.Plan) error {
	cachePath := filepath.Join(d.Cfg.ConfigDir, ".cli-rag", "cache", "ai-index.json")

	payload := struct {
		Version  int                 `json:"version"`
		Clusters []aiplan.ClusterPlan `json:"clusters"`
	}{Version: 1, Clusters: plan.Clusters}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("ai index plan: encode cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return fmt.Errorf("ai index plan: create cache dir: %w", err)
	}

	return ragfs.WriteFileAtomic(cachePath, data, 0o644)
}
