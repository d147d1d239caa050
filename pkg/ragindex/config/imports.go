package config

import (
	"fmt"
	"path/filepath"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
)

// loadImports expands each `import` glob (relative to the config directory),
// parses matching files, and folds their `schema` arrays into cfg.Schemas.
// Any other top-level key in an imported file is an error (E110, spec §4.1).
func loadImports(cfg *Config, tree map[string]any) error {
	patterns := stringSlice(tree["import"])
	if len(patterns) == 0 {
		return nil
	}

	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(full) {
			full = filepath.Join(cfg.ConfigDir, pattern)
		}

		matches, err := filepath.Glob(full)
		if err != nil {
			return fmt.Errorf("config: import glob %q: %w", pattern, err)
		}

		for _, m := range matches {
			if err := loadOneImport(cfg, m); err != nil {
				return err
			}
		}
	}

	return nil
}

func loadOneImport(cfg *Config, path string) error {
	fragment, err := decodeGenericTOML(path)
	if err != nil {
		return err
	}

	for key := range fragment {
		if key != "schema" {
			return &ragerr.Error{
				Code: ragerr.CodeImportBadKeys,
				Path: path,
				Err:  fmt.Errorf("imported file %q declares disallowed top-level key %q (only 'schema' is permitted)", path, key),
			}
		}
	}

	return bindInlineSchemas(cfg, fragment)
}
