// Package watch implements the debounced filesystem-event loop (C12, spec
// §4.12): an initial synchronous full validate+index cycle, then recursive
// fsnotify watchers on every configured base feeding a single debounce
// loop that re-runs an incremental validate+index cycle on change and
// reports every cycle as a line of NDJSON.
//
// Grounded on the pack's only fsnotify consumer,
// untoldecay-BeadsLog/cmd/bd/daemon_watcher.go (FileWatcher: one
// recursive-directory watcher, drain-then-debounce-then-trigger loop,
// context-scoped goroutine with a WaitGroup for clean shutdown), and on
// the teacher's pkg/mddb.MDDB doc comment's lock-ordering discipline
// ("mu is always acquired BEFORE flock") for why this package coordinates
// through a single in-process loop rather than per-event goroutines —
// the filesystem is the shared resource and pipeline.Run/index.WriteUnified
// assume a single writer (spec §5).
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	ragfs "github.com/animegolem/cli-rag-sub000/internal/fs"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/collector"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/index"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/model"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/pipeline"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/validate"
)

// repoLockTimeout bounds how long one cycle waits for the cross-process
// write lock before giving up (spec §5: mu acquired before flock; here the
// debounce loop's single-goroutine serialization plays mu's role and
// RepoLock is the flock half, guarding against a concurrent `cli-rag
// validate` run in another process).
const repoLockTimeout = 5 * time.Second

// ProtocolVersion is the stable envelope version of the watch NDJSON stream
// (spec §4.12, §6).
const ProtocolVersion = 1

// DefaultDebounceMs is used when Options.DebounceMs is zero.
const DefaultDebounceMs = 300

// Options configures one watch invocation.
type Options struct {
	Cfg        *config.Config
	Overlay    validate.OverlayHook
	DebounceMs int
	DryRun     bool
	Out        io.Writer   // NDJSON sink; defaults to os.Stdout
	Logger     *zap.Logger // defaults to zap.NewNop()
	Now        func() time.Time
}

type startEvent struct {
	Event           string   `json:"event"`
	ProtocolVersion int      `json:"protocolVersion"`
	DebounceMs      int      `json:"debounceMs"`
	Bases           []string `json:"bases"`
}

type cycleEvent struct {
	Event        string `json:"event"`
	OK           bool   `json:"ok"`
	Errors       int    `json:"errors"`
	Warnings     int    `json:"warnings"`
	DocCount     int    `json:"docCount"`
	RewroteIndex bool   `json:"rewroteIndex"`
}

// Run executes the watch loop until ctx is cancelled (SIGINT, spec §4.12:
// "Cancellation is process-level"). It returns nil on clean cancellation.
func Run(ctx context.Context, opts Options) error {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	debounceMs := opts.DebounceMs
	if debounceMs <= 0 {
		debounceMs = DefaultDebounceMs
	}

	enc := json.NewEncoder(out)

	if err := enc.Encode(startEvent{
		Event:           "watch_start",
		ProtocolVersion: ProtocolVersion,
		DebounceMs:      debounceMs,
		Bases:           opts.Cfg.Bases,
	}); err != nil {
		return fmt.Errorf("watch: emit handshake: %w", err)
	}

	lastIdx, err := runCycle(opts, nil, true, now())
	if err != nil {
		return fmt.Errorf("watch: initial cycle: %w", err)
	}

	if err := emitCycle(enc, lastIdx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, base := range opts.Cfg.Bases {
		if err := addRecursive(watcher, base); err != nil {
			log.Warn("watch: failed to register base", zap.String("base", base), zap.Error(err))
		}
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !relevant(ev) {
				continue
			}

			log.Debug("watch: change detected", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))

			drainNonBlocking(watcher.Events)

			select {
			case <-time.After(time.Duration(debounceMs) * time.Millisecond):
			case <-ctx.Done():
				return nil
			}

			drainNonBlocking(watcher.Events)

			result, err := runCycle(opts, lastIdx, false, now())
			if err != nil {
				log.Warn("watch: cycle failed", zap.Error(err))
				continue
			}

			lastIdx = result

			if err := emitCycle(enc, result); err != nil {
				return err
			}

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			log.Warn("watch: fsnotify error", zap.Error(werr))

		case <-ctx.Done():
			return nil
		}
	}
}

type cycleResult struct {
	report       *validate.Report
	idx          model.Index
	rewroteIndex bool
}

// runCycle runs one discovery->validate->index pipeline pass. prior, when
// non-nil, seeds the incremental collector from the previous cycle's index,
// whether or not that cycle wrote it
// (spec §4.12: subsequent cycles "re-run incremental validate"); full is
// true only for the initial synchronous pass.
func runCycle(opts Options, prior *cycleResult, full bool, now time.Time) (*cycleResult, error) {
	fullRescan := full || prior == nil

	var priorEntries map[string]collector.PriorEntry
	if !fullRescan {
		priorEntries = pipeline.PriorFromIndex(opts.Cfg.ConfigDir, prior.idx)
	}

	result, err := pipeline.Run(pipeline.Options{
		Cfg:        opts.Cfg,
		Prior:      priorEntries,
		FullRescan: fullRescan,
		Overlay:    opts.Overlay,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	rewrote := false

	if result.Report.OK && !opts.DryRun {
		lock := ragfs.NewRepoLock(filepath.Join(opts.Cfg.ConfigDir, ".cli-rag", "lock"))
		if err := lock.Lock(repoLockTimeout); err != nil {
			return nil, fmt.Errorf("watch: acquire repo lock: %w", err)
		}

		writeErr := index.WriteUnified(opts.Cfg.ConfigDir, opts.Cfg.IndexRelative, result.Index)

		_ = lock.Unlock()

		if writeErr != nil {
			return nil, fmt.Errorf("watch: write unified index: %w", writeErr)
		}

		rewrote = true
	}

	return &cycleResult{report: result.Report, idx: result.Index, rewroteIndex: rewrote}, nil
}

func emitCycle(enc *json.Encoder, r *cycleResult) error {
	ev := cycleEvent{
		Event:        "cycle",
		OK:           r.report.OK,
		Errors:       len(r.report.Errors),
		Warnings:     len(r.report.Warnings),
		DocCount:     r.report.DocCount,
		RewroteIndex: r.rewroteIndex,
	}

	if err := enc.Encode(ev); err != nil {
		return fmt.Errorf("watch: emit cycle: %w", err)
	}

	return nil
}

func drainNonBlocking(events chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

// watchIgnoreDirs mirrors discovery.go's defaultIgnoreDirs list; duplicated
// here (unexported there) so the recursive fsnotify registration skips the
// same build/hidden directories the discovery walk already excludes.
var watchIgnoreDirs = map[string]bool{
	".git": true, ".cli-rag": true, "node_modules": true,
	".venv": true, "vendor": true, ".idea": true, ".vscode": true,
}

// addRecursive registers fsnotify watches on root and every subdirectory,
// since fsnotify (unlike inotify's IN_ONLYDIR-recursive variants on some
// platforms) only watches one directory level at a time.
func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		if watchIgnoreDirs[info.Name()] && path != root {
			return filepath.SkipDir
		}

		return w.Add(path)
	})
}
