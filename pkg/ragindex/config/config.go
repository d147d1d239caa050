// Package config loads and normalizes the repo-local TOML configuration
// file (spec §4.1, §6), folding its optional nested [config] table onto
// the flat top-level shape, expanding schema imports, and applying
// environment/CLI overrides.
//
// Resolution order and override precedence are grounded on the teacher's
// ticket.LoadConfig chain (nearest-ancestor file discovery, env override,
// explicit path, highest-precedence --base-style override); the
// generic-tree walk needed for [config] folding and schema-fragment
// validation is grounded on BurntSushi/toml's map[string]any decode, the
// same library untoldecay/BeadsLog uses for its own layered config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/schema"
)

const configFileName = ".cli-rag.toml"

// EnvFilepaths, EnvNoLua, and EnvConfigPath are the environment variables
// consulted during resolution (spec §6).
const (
	EnvFilepaths  = "CLI_RAG_FILEPATHS"
	EnvNoLua      = "CLI_RAG_NO_LUA"
	EnvConfigPath = "CLI_RAG_CONFIG"
)

// GraphDefaults holds the default cluster-expansion parameters.
type GraphDefaults struct {
	Depth               int
	IncludeBidirectional bool
	IncludeContent      bool
}

// OverlayInfo records overlay discovery results (spec §4.1): presence only,
// no execution at load time.
type OverlayInfo struct {
	Enabled      bool
	RepoPath     string // repo-adjacent overlay module path, if found
	UserPath     string // user-profile overlay module path, if found
}

// Config is the effective, fully-resolved configuration for one repository.
type Config struct {
	ConfigDir          string // directory containing the loaded config file
	ConfigPath         string // absolute path to the loaded config file, "" if none
	Bases              []string
	IndexRelative      string
	GroupsRelative     string
	FilePatterns       []string
	IgnoreGlobs        []string
	AllowedStatuses    []string
	Graph              GraphDefaults
	Schemas            []*schema.Schema
	Overlay            OverlayInfo
	AuthoringDest      map[string]string // schema name -> destination subpath
	FollowSymlinks     bool
}

// LoadInput bundles Load's parameters (spec §4.1: load(explicit_path?, base_override?, overlays_disabled)).
type LoadInput struct {
	ExplicitPath    string
	BaseOverride    string
	OverlaysDisabled bool
	WorkDir         string // defaults to os.Getwd() when empty
	Env             map[string]string
}

// Load resolves, reads, and normalizes the effective configuration.
func Load(in LoadInput) (*Config, error) {
	workDir := in.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: getwd: %w", err)
		}

		workDir = wd
	}

	path, err := resolvePath(in, workDir)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		IndexRelative:  "index.json",
		GroupsRelative: "groups.json",
		Graph:          GraphDefaults{Depth: 2},
		AuthoringDest:  map[string]string{},
	}

	if path == "" {
		cfg.ConfigDir = workDir
		applyEnvOverrides(cfg, in.Env)
		applyBaseOverride(cfg, in.BaseOverride)
		resolveOverlay(cfg, in.OverlaysDisabled, in.Env)

		return cfg, nil
	}

	cfg.ConfigPath = path
	cfg.ConfigDir = filepath.Dir(path)

	tree, err := decodeGenericTOML(path)
	if err != nil {
		return nil, err
	}

	normalizeNested(tree)

	if err := bindFlat(cfg, tree); err != nil {
		return nil, err
	}

	if err := loadImports(cfg, tree); err != nil {
		return nil, err
	}

	if err := bindInlineSchemas(cfg, tree); err != nil {
		return nil, err
	}

	if err := checkSchemaUniqueness(cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg, in.Env)
	applyBaseOverride(cfg, in.BaseOverride)
	resolveOverlay(cfg, in.OverlaysDisabled, in.Env)

	return cfg, nil
}

// resolvePath implements the precedence order from spec §4.1: explicit >
// env override > nearest ancestor .cli-rag.toml. If neither explicit nor
// env is provided and more than one ancestor config exists, E100.
func resolvePath(in LoadInput, workDir string) (string, error) {
	if in.ExplicitPath != "" {
		abs, err := filepath.Abs(in.ExplicitPath)
		if err != nil {
			return "", fmt.Errorf("config: resolve explicit path: %w", err)
		}

		return abs, nil
	}

	if envPath := in.Env[EnvConfigPath]; envPath != "" {
		abs, err := filepath.Abs(envPath)
		if err != nil {
			return "", fmt.Errorf("config: resolve %s: %w", EnvConfigPath, err)
		}

		return abs, nil
	}

	found := ancestorConfigs(workDir)

	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", &ragerr.Error{
			Code: ragerr.CodeMultipleConfigs,
			Err:  fmt.Errorf("multiple project configs detected: %s", strings.Join(found, ", ")),
		}
	}
}

// ancestorConfigs walks upward from dir to the filesystem root collecting
// every .cli-rag.toml seen in dir and its ancestors. Only the nearest is normally used;
// this returns all of them so resolvePath can detect ambiguity (spec §4.1:
// "more than one ancestor config exists").
func ancestorConfigs(dir string) []string {
	var found []string

	for cur := dir; ; {
		candidate := filepath.Join(cur, configFileName)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			found = append(found, candidate)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}

		cur = parent
	}

	return found
}

func decodeGenericTOML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	return tree, nil
}

func applyBaseOverride(cfg *Config, base string) {
	if base != "" {
		cfg.Bases = []string{base}
	}
}

func applyEnvOverrides(cfg *Config, env map[string]string) {
	if v := env[EnvFilepaths]; v != "" {
		parts := strings.Split(v, ",")
		bases := make([]string, 0, len(parts))

		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				bases = append(bases, t)
			}
		}

		cfg.Bases = bases
	}
}

func checkSchemaUniqueness(cfg *Config) error {
	seen := make(map[string][]string)

	for _, s := range cfg.Schemas {
		seen[s.Name] = append(seen[s.Name], cfg.ConfigPath)
	}

	var dupes []string

	for name, paths := range seen {
		if len(paths) > 1 {
			dupes = append(dupes, name)
		}
	}

	if len(dupes) == 0 {
		return nil
	}

	sort.Strings(dupes)

	return &ragerr.Error{
		Code: ragerr.CodeDuplicateSchema,
		Err:  fmt.Errorf("duplicate schema names: %s", strings.Join(dupes, ", ")),
	}
}
