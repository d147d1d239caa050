// Package fs provides the small set of filesystem primitives shared by the
// indexer, the draft store, and the watcher: atomic "write-temp-then-rename"
// persistence and cross-process advisory locking.
//
// Markdown files under the configured bases are always the source of truth;
// everything written here (unified index, resolved-config snapshot, draft
// records) is a derived, rebuildable artifact, so durability failures are
// surfaced but never fatal to the documents themselves.
package fs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// WriteFileAtomic writes data to path via a temp file in the same directory
// followed by a rename, so readers never observe a torn file. Falls back to
// a direct write when the host filesystem cannot support atomic rename
// (documented non-goal: crash-consistent indexing, spec §4.8).
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("fs: mkdir for atomic write %q: %w", path, err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		// Fall back to a direct write rather than fail outright; atomic
		// rename isn't guaranteed on every host filesystem (spec §9 open
		// question iii).
		if writeErr := os.WriteFile(path, data, perm); writeErr != nil {
			return fmt.Errorf("fs: atomic write %q: %w (fallback also failed: %w)", path, err, writeErr)
		}

		return nil
	}

	return os.Chmod(path, perm)
}

// ErrLockTimeout is returned by RepoLock.Lock when the advisory lock could not
// be acquired before the caller's deadline.
var ErrLockTimeout = errors.New("fs: lock timeout")
