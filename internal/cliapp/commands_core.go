package cliapp

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	ragfs "github.com/animegolem/cli-rag-sub000/internal/fs"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/doctor"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/index"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/overlay"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/pipeline"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/query"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/validate"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/watch"
)

const repoLockTimeout = 5 * time.Second

// ValidateCmd implements `validate` (spec §4.6): one full discovery ->
// validate -> index cycle, writing the unified index and resolved
// snapshot under the cross-process repo lock when the report is ok.
func ValidateCmd(d Deps) *Command {
	flags := flag.NewFlagSet("validate", flag.ContinueOnError)
	dryRun := flags.Bool("dry-run", false, "report only; never write the index")

	return &Command{
		Flags: flags,
		Usage: "validate [flags]",
		Short: "Run the full validate/index cycle",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			ov, err := overlay.Load(ctx, overlayPath(d))
			if err != nil {
				return err
			}
			defer closeOverlay(ov)

			result, err := pipeline.Run(pipeline.Options{
				Cfg:        d.Cfg,
				FullRescan: true,
				Overlay:    validate.NewOverlayHook(ov),
			})
			if err != nil {
				return err
			}

			if result.Report.OK && !*dryRun {
				if err := writeIndexLocked(d, result); err != nil {
					return err
				}
			}

			if err := d.renderer().Render(o.Out(), result.Report); err != nil {
				return err
			}

			if !result.Report.OK {
				return errValidationFailed
			}

			return nil
		},
	}
}

// WatchCmd implements `watch` (spec §4.12): wires the caller's SIGINT
// (delivered as ctx cancellation by cliapp.Run) into watch.Run's loop.
func WatchCmd(d Deps) *Command {
	flags := flag.NewFlagSet("watch", flag.ContinueOnError)
	debounceMs := flags.Int("debounce-ms", watch.DefaultDebounceMs, "debounce window in milliseconds")
	dryRun := flags.Bool("dry-run", false, "report cycles; never write the index")

	return &Command{
		Flags: flags,
		Usage: "watch [flags]",
		Short: "Watch configured bases and re-index on change",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			ov, err := overlay.Load(ctx, overlayPath(d))
			if err != nil {
				return err
			}
			defer closeOverlay(ov)

			return watch.Run(ctx, watch.Options{
				Cfg:        d.Cfg,
				Overlay:    validate.NewOverlayHook(ov),
				DebounceMs: *debounceMs,
				DryRun:     *dryRun,
				Out:        o.Out(),
				Logger:     d.Logger,
			})
		},
	}
}

// DoctorCmd implements `doctor` (spec §9 supplemented feature).
func DoctorCmd(d Deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("doctor", flag.ContinueOnError),
		Usage: "doctor",
		Short: "Report repo-health findings without writing the index",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			rep, err := doctor.Run(d.Cfg)
			if err != nil {
				return err
			}

			return d.renderer().Render(o.Out(), rep)
		},
	}
}

// InfoCmd implements `info` (spec §9 supplemented feature).
func InfoCmd(d Deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("info", flag.ContinueOnError),
		Usage: "info",
		Short: "Summarize config, index, cache, and overlay state",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			src, err := query.Load(d.Cfg)
			if err != nil {
				return err
			}

			resp := query.Info(src, d.Cfg, time.Now())

			return d.renderer().Render(o.Out(), resp)
		},
	}
}

// CompletionsCmd implements `completions <shell>`. Shell-completion script
// generation is out of this module's scope (SPEC_FULL.md §6); the command
// still honors the one behavior spec §6 pins down: an unsupported shell
// name exits 2.
func CompletionsCmd(d Deps) *Command {
	return &Command{
		Flags: flag.NewFlagSet("completions", flag.ContinueOnError),
		Usage: "completions <shell>",
		Short: "Shell completion scripts (bash|zsh|fish)",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("completions: shell name required")
			}

			switch args[0] {
			case "bash", "zsh", "fish":
				o.Println("# completion script generation for this shell is outside this module's scope")
				return nil
			default:
				return fmt.Errorf("completions: unsupported shell %q", args[0])
			}
		},
	}
}

func overlayPath(d Deps) string {
	if !d.Cfg.Overlay.Enabled {
		return ""
	}

	if d.Cfg.Overlay.RepoPath != "" {
		return d.Cfg.Overlay.RepoPath
	}

	return d.Cfg.Overlay.UserPath
}

func closeOverlay(ov *overlay.Runtime) {
	if ov != nil {
		_ = ov.Close()
	}
}

func writeIndexLocked(d Deps, result pipeline.Result) error {
	lock := ragfs.NewRepoLock(filepath.Join(d.Cfg.ConfigDir, ".cli-rag", "lock"))
	if err := lock.Lock(repoLockTimeout); err != nil {
		return fmt.Errorf("cliapp: acquire repo lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := index.WriteUnified(d.Cfg.ConfigDir, d.Cfg.IndexRelative, result.Index); err != nil {
		return err
	}

	return index.WriteResolved(d.Cfg.ConfigDir, index.ResolvedSnapshot{
		ScanRoots:      d.Cfg.Bases,
		GraphDepth:     d.Cfg.Graph.Depth,
		Bidirectional:  d.Cfg.Graph.IncludeBidirectional,
		OverlayEnabled: d.Cfg.Overlay.Enabled,
		OverlayRepo:    d.Cfg.Overlay.RepoPath,
		OverlayUser:    d.Cfg.Overlay.UserPath,
		AuthoringDest:  d.Cfg.AuthoringDest,
	})
}
