package query

import (
	"os"
	"path/filepath"
	"time"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
)

// InfoConfig mirrors the config metadata block (spec §9 supplemented
// feature, ported from original_source/src/commands/info.rs's cfg_meta).
type InfoConfig struct {
	Path       string `json:"path"`
	Version    string `json:"version"`
	Deprecated bool   `json:"deprecated"`
}

// InfoIndex reports the unified index file's presence and age.
type InfoIndex struct {
	Path        string `json:"path"`
	Exists      bool   `json:"exists"`
	GeneratedAt string `json:"generatedAt,omitempty"`
	AgeSeconds  int64  `json:"ageSeconds,omitempty"`
}

// InfoCache reports the AI cluster planner's cache file presence.
type InfoCache struct {
	AIIndexPath string `json:"aiIndexPath"`
	Exists      bool   `json:"exists"`
}

// InfoOverlay reports overlay discovery results without re-executing
// anything (spec §4.1 presence-only semantics).
type InfoOverlay struct {
	Enabled  bool   `json:"enabled"`
	RepoPath string `json:"repoPath,omitempty"`
	UserPath string `json:"userPath,omitempty"`
}

// InfoResponse is the info() envelope (spec §9: "a read-only summary (doc
// counts per schema, index age, overlay presence)").
type InfoResponse struct {
	ProtocolVersion int            `json:"protocolVersion"`
	OK              bool           `json:"ok"`
	Config          InfoConfig     `json:"config"`
	Index           InfoIndex      `json:"index"`
	Cache           InfoCache      `json:"cache"`
	Overlay         InfoOverlay    `json:"overlay"`
	DocCounts       map[string]int `json:"docCounts"`
}

// Info assembles the info() summary from an already-loaded Source and cfg,
// reading only file metadata (mtime/existence) rather than reparsing
// documents (spec §9).
func Info(src *Source, cfg *config.Config, now time.Time) InfoResponse {
	resp := InfoResponse{
		ProtocolVersion: ProtocolVersion,
		OK:              true,
		Config: InfoConfig{
			Path:    cfg.ConfigPath,
			Version: "0.1",
		},
		Overlay: InfoOverlay{
			Enabled:  cfg.Overlay.Enabled,
			RepoPath: cfg.Overlay.RepoPath,
			UserPath: cfg.Overlay.UserPath,
		},
		DocCounts: map[string]int{},
	}

	if resp.Config.Path == "" {
		resp.Config.Path = "<defaults>"
	}

	indexPath := filepath.Join(cfg.ConfigDir, cfg.IndexRelative)
	resp.Index.Path = indexPath

	if st, err := os.Stat(indexPath); err == nil {
		resp.Index.Exists = true
		resp.Index.GeneratedAt = st.ModTime().UTC().Format(time.RFC3339)
		resp.Index.AgeSeconds = int64(now.Sub(st.ModTime()).Seconds())
	}

	cachePath := filepath.Join(cfg.ConfigDir, ".cli-rag", "cache", "ai-index.json")
	resp.Cache.AIIndexPath = cachePath

	if _, err := os.Stat(cachePath); err == nil {
		resp.Cache.Exists = true
	}

	for _, id := range src.Resolved.IDs() {
		d := src.Resolved.Lookup(id)
		if d.SchemaName != "" {
			resp.DocCounts[d.SchemaName]++
		}
	}

	return resp
}
