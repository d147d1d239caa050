// Package doctor re-runs config resolution plus discovery over a repository
// and reports actionable repo-health findings (duplicate/conflicting ids,
// per-schema document counts, unknown frontmatter keys) without writing the
// unified index.
//
// This is a supplemented feature (spec.md's distilled CLI surface names
// `doctor` but dropped its logic): ported directly from
// original_source/src/commands/doctor.rs's build_report, translating its
// HashMap/BTreeSet id->docs grouping and schema-glob unknown-key scan into
// Go over model.Snapshot/schema.Schema.
package doctor

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/collector"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/discovery"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

// reservedKeys are the wire-level frontmatter keys every schema implicitly
// knows about, mirrored from doctor.rs's `reserved` set.
var reservedKeys = map[string]bool{
	"id": true, "tags": true, "status": true, "groups": true,
	"depends_on": true, "supersedes": true, "superseded_by": true,
}

// BaseMode reports whether a base directory will be served from its
// previously written index or a live scan.
type BaseMode struct {
	Base string `json:"base"`
	Mode string `json:"mode"` // "index" or "scan"
}

// UnknownKeyStat counts how many documents of a schema carry frontmatter
// keys the schema doesn't declare, and how many such keys total.
type UnknownKeyStat struct {
	Docs int `json:"docs"`
	Keys int `json:"keys"`
}

// Report is the full doctor() envelope (spec §9 supplemented feature).
type Report struct {
	ProtocolVersion int                        `json:"protocolVersion"`
	OK              bool                       `json:"ok"`
	Config          string                     `json:"config"`
	Bases           []string                   `json:"bases"`
	PerBase         []BaseMode                 `json:"perBase"`
	DocCount        int                        `json:"docCount"`
	GroupEntries    int                        `json:"groupEntries"`
	Conflicts       []string                   `json:"conflicts"`
	Types           map[string]int             `json:"types"`
	UnknownKeyStats map[string]UnknownKeyStat  `json:"unknownKeyStats"`
}

// ProtocolVersion is the stable envelope version (spec §4.10-style
// "ok plus operation-specific fields" convention, reused here).
const ProtocolVersion = 1

// Run performs one doctor pass: discovers documents, groups them by id to
// find title/status conflicts, counts per-schema matches, and tallies
// frontmatter keys no schema declares. It never writes the unified index.
func Run(cfg *config.Config) (Report, error) {
	paths, err := discovery.Walk(discovery.Options{
		Roots:             cfg.Bases,
		FilePatterns:      cfg.FilePatterns,
		IgnoreGlobs:       cfg.IgnoreGlobs,
		FollowSymlinks:    cfg.FollowSymlinks,
		UseDefaultIgnores: true,
	})
	if err != nil {
		return Report{}, err
	}

	snap, _, err := collector.Collect(paths, nil, true)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		ProtocolVersion: ProtocolVersion,
		OK:              true,
		Config:          cfg.ConfigPath,
		Bases:           cfg.Bases,
		Types:           map[string]int{},
		UnknownKeyStats: map[string]UnknownKeyStat{},
	}

	if rep.Config == "" {
		rep.Config = "<defaults>"
	}

	for _, base := range cfg.Bases {
		mode := "scan"
		if _, err := os.Stat(filepath.Join(base, cfg.IndexRelative)); err == nil {
			mode = "index"
		}

		rep.PerBase = append(rep.PerBase, BaseMode{Base: base, Mode: mode})
	}

	byID := map[string][]*model.Document{}
	schemaByName := schema.ByName(cfg.Schemas)

	for _, d := range snap.Docs {
		rep.DocCount++
		rep.GroupEntries += len(d.Groups)

		if d.ID != "" {
			byID[d.ID] = append(byID[d.ID], d)
		}

		match := schema.Match(cfg.Schemas, filepath.Base(d.Path))
		sch := schemaByName[match.Matched]

		if sch == nil {
			continue
		}

		rep.Types[sch.Name]++

		unknown := unknownKeys(sch, d)
		if len(unknown) == 0 {
			continue
		}

		stat := rep.UnknownKeyStats[sch.Name]
		stat.Docs++
		stat.Keys += len(unknown)
		rep.UnknownKeyStats[sch.Name] = stat
	}

	for id, docs := range byID {
		if len(docs) < 2 {
			continue
		}

		titles := map[string]bool{}
		statuses := map[string]bool{}

		for _, d := range docs {
			titles[d.Title] = true
			if d.Status != "" {
				statuses[d.Status] = true
			}
		}

		if len(titles) > 1 || len(statuses) > 1 {
			rep.Conflicts = append(rep.Conflicts, id)
		}
	}

	sort.Strings(rep.Conflicts)

	return rep, nil
}

// unknownKeys returns the document's frontmatter keys not covered by the
// reserved set, the schema's declared rules, its required list, or its
// allowed_keys list — mirroring doctor.rs's `known` set union.
func unknownKeys(sch *schema.Schema, d *model.Document) []string {
	known := map[string]bool{}
	for k := range reservedKeys {
		known[k] = true
	}

	for k := range sch.Rules {
		known[k] = true
	}

	for _, k := range sch.Required {
		known[k] = true
	}

	for _, k := range sch.AllowedKeys {
		known[k] = true
	}

	var unknown []string

	for k := range d.Frontmatter {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}

	return unknown
}
