package config

import (
	"os"
	"path/filepath"
)

const (
	repoOverlayFileName = ".cli-rag/overlay.wasm"
	userOverlaySubPath  = "cli-rag/overlay.wasm"
)

// resolveOverlay checks for a repo-adjacent and a user-profile overlay
// module without executing anything (spec §4.1: "Overlay discovery (no
// execution at load)"). Disabled by --no-lua or CLI_RAG_NO_LUA=1|true.
func resolveOverlay(cfg *Config, disabledFlag bool, env map[string]string) {
	if disabledFlag || isTruthyEnv(env[EnvNoLua]) {
		cfg.Overlay = OverlayInfo{Enabled: false}
		return
	}

	info := OverlayInfo{}

	repoPath := filepath.Join(cfg.ConfigDir, repoOverlayFileName)
	if fileExists(repoPath) {
		info.RepoPath = repoPath
	}

	if home, err := os.UserConfigDir(); err == nil {
		userPath := filepath.Join(home, userOverlaySubPath)
		if fileExists(userPath) {
			info.UserPath = userPath
		}
	}

	info.Enabled = info.RepoPath != "" || info.UserPath != ""
	cfg.Overlay = info
}

func isTruthyEnv(v string) bool {
	return v == "1" || v == "true" || v == "TRUE" || v == "True"
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
