package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// RepoLock coordinates the single-writer assumption (spec §5) across
// processes. In-process goroutines must additionally serialize through a
// sync.RWMutex before acquiring this lock — mu always acquired before
// flock, matching the ordering documented by the teacher's MDDB type, so
// goroutines block early on the cheap mutex rather than all contending for
// the same kernel-level flock.
type RepoLock struct {
	fl *flock.Flock
}

// NewRepoLock returns a lock backed by path (created if missing).
func NewRepoLock(path string) *RepoLock {
	return &RepoLock{fl: flock.New(path)}
}

// Lock blocks until the exclusive lock is acquired or timeout elapses. The
// lock file's parent directory is created if missing — the lock may be the
// very first thing written under a repo's .cli-rag/ directory, ahead of the
// unified index itself.
func (l *RepoLock) Lock(timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o750); err != nil {
		return fmt.Errorf("fs: mkdir for repo lock: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ok, err := l.fl.TryLockContext(ctx, 25*time.Millisecond)
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrLockTimeout
	}

	if err != nil {
		return fmt.Errorf("fs: acquire repo lock: %w", err)
	}

	if !ok {
		return ErrLockTimeout
	}

	return nil
}

// Unlock releases the lock.
func (l *RepoLock) Unlock() error {
	return l.fl.Unlock()
}
