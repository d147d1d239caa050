// Package discovery walks configured root directories, expanding
// file-pattern globs and applying ignore globs, to produce a de-duplicated
// ordered set of candidate note paths (spec §4.3).
//
// Grounded on the teacher's directory-enumeration pass in
// pkg/mddb/reindex.go's ReindexIncremental (single filesystem walk per
// cycle, Stat-only fast path reused downstream by the collector) and on
// internal/ticket's directory helpers for default ignore-set conventions.
package discovery

import (
	"os"
	"path/filepath"
	"sort"
)

// defaultIgnoreDirs mirrors common build/hidden directory conventions; a
// directory with one of these names is skipped whenever the caller sets
// UseDefaultIgnores, in addition to any directory matching IgnoreGlobs.
var defaultIgnoreDirs = []string{
	".git", ".cli-rag", "node_modules", ".venv", "vendor", ".idea", ".vscode",
}

// Options configures one discovery pass.
type Options struct {
	Roots          []string
	FilePatterns   []string // glob patterns matched against basenames; empty = "*.md"
	IgnoreGlobs    []string // glob patterns matched against relative paths
	FollowSymlinks bool
	UseDefaultIgnores bool
}

// Walk enumerates every file under Roots that matches FilePatterns and does
// not match IgnoreGlobs, returning an ordered, canonical-path-deduplicated
// list.
func Walk(opts Options) ([]string, error) {
	patterns := opts.FilePatterns
	if len(patterns) == 0 {
		patterns = []string{"*.md"}
	}

	seen := make(map[string]bool)

	var out []string

	for _, root := range opts.Roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}

		err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				// Unreadable entries degrade to "skip" rather than aborting
				// the whole scan (spec §7: transient errors degrade).
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}

			if info.IsDir() {
				if shouldSkipDir(info.Name(), opts) {
					return filepath.SkipDir
				}

				return nil
			}

			if info.Mode()&os.ModeSymlink != 0 && !opts.FollowSymlinks {
				return nil
			}

			rel, relErr := filepath.Rel(absRoot, path)
			if relErr != nil {
				rel = path
			}

			if !matchesAny(patterns, filepath.Base(path)) {
				return nil
			}

			if matchesAny(opts.IgnoreGlobs, rel) || matchesAny(opts.IgnoreGlobs, path) {
				return nil
			}

			canon, cErr := filepath.EvalSymlinks(path)
			if cErr != nil {
				canon = path
			}

			if !seen[canon] {
				seen[canon] = true
				out = append(out, path)
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(out)

	return out, nil
}

func shouldSkipDir(name string, opts Options) bool {
	if opts.UseDefaultIgnores {
		for _, d := range defaultIgnoreDirs {
			if name == d {
				return true
			}
		}
	}

	return matchesAny(opts.IgnoreGlobs, name)
}

func matchesAny(patterns []string, candidate string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, candidate); err == nil && ok {
			return true
		}
	}

	return false
}
