package cliapp

import (
	"context"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/draft"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/overlay"
)

// NewCmd implements `new <schema>` (original_source/src/commands/new.rs):
// the synchronous, non-interactive counterpart to `ai new start`/`submit`.
// Rather than reimplementing id reservation and template rendering, it
// drives the same draft.Store through one start immediately followed by
// one submit of the rendered note template verbatim — the draft workflow
// already derives the id, destination, and frontmatter exactly the way
// new.rs does, so `new` is that workflow with no human/agent pause in
// between.
func NewCmd(d Deps) *Command {
	flags := flag.NewFlagSet("new", flag.ContinueOnError)
	title := flags.String("title", "", "document title (defaults to the reserved id)")
	id := flags.String("id", "", "explicit id (defaults to the schema's id generator)")
	dryRun := flags.Bool("dry-run", false, "print the rendered note without writing it")

	return &Command{
		Flags: flags,
		Usage: "new <schema> [flags]",
		Short: "Create a note directly, without the draft review step",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("new: schema name required")
			}

			ov, err := overlay.Load(ctx, overlayPath(d))
			if err != nil {
				return err
			}
			defer closeOverlay(ov)

			store := draft.New(d.Cfg, ov)
			now := time.Now()

			startResp, err := store.Start(draft.StartInput{
				SchemaName: args[0],
				Title:      *title,
				ExplicitID: *id,
				Now:        now,
			})
			if err != nil {
				return err
			}

			if *dryRun {
				o.Println(startResp.NoteTemplate)
				return nil
			}

			submitResp, _, err := store.Submit(draft.SubmitInput{
				DraftID:       startResp.DraftID,
				Payload:       []byte(startResp.NoteTemplate),
				AllowOversize: true,
				Now:           now,
			})
			if err != nil {
				return err
			}

			return d.renderer().Render(o.Out(), submitResp)
		},
	}
}

// dispatchAINew routes `ai new {start|submit|cancel|list}` (spec §4.11).
// Called from AICmd, which owns the single top-level "ai" command name.
func dispatchAINew(ctx context.Context, d Deps, o *IO, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("ai new: usage is `ai new {start|submit|cancel|list}`")
	}

	sub := args[0]
	rest := args[1:]

	switch sub {
	case "start":
		return aiNewStart(ctx, d, o, rest)
	case "submit":
		return aiNewSubmit(ctx, d, o, rest)
	case "cancel":
		return aiNewCancel(ctx, d, o, rest)
	case "list":
		return aiNewList(d, o, rest)
	default:
		return fmt.Errorf("ai new: unknown subcommand %q", sub)
	}
}

func aiNewStart(ctx context.Context, d Deps, o *IO, args []string) error {
	flags := flag.NewFlagSet("ai new start", flag.ContinueOnError)
	schemaName := flags.String("schema", "", "schema name")
	title := flags.String("title", "", "document title")
	id := flags.String("id", "", "explicit id")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *schemaName == "" {
		return fmt.Errorf("ai new start: --schema required")
	}

	ov, err := overlay.Load(ctx, overlayPath(d))
	if err != nil {
		return err
	}
	defer closeOverlay(ov)

	store := draft.New(d.Cfg, ov)

	resp, err := store.Start(draft.StartInput{
		SchemaName: *schemaName,
		Title:      *title,
		ExplicitID: *id,
		Now:        time.Now(),
	})
	if err != nil {
		return err
	}

	return d.renderer().Render(o.Out(), resp)
}

func aiNewSubmit(ctx context.Context, d Deps, o *IO, args []string) error {
	flags := flag.NewFlagSet("ai new submit", flag.ContinueOnError)
	draftID := flags.String("draft-id", "", "draft id returned by `ai new start`")
	payload := flags.String("payload", "", "JSON {frontmatter, sections} or a markdown file body")
	allowOversize := flags.Bool("allow-oversize", false, "bypass heading max_lines constraints")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *draftID == "" {
		return fmt.Errorf("ai new submit: --draft-id required")
	}

	ov, err := overlay.Load(ctx, overlayPath(d))
	if err != nil {
		return err
	}
	defer closeOverlay(ov)

	store := draft.New(d.Cfg, ov)

	resp, report, err := store.Submit(draft.SubmitInput{
		DraftID:       *draftID,
		Payload:       []byte(*payload),
		AllowOversize: *allowOversize,
		Now:           time.Now(),
	})
	if err != nil {
		if report != nil {
			_ = d.renderer().Render(o.Out(), report)
			return errValidationFailed
		}

		return err
	}

	return d.renderer().Render(o.Out(), resp)
}

func aiNewCancel(ctx context.Context, d Deps, o *IO, args []string) error {
	flags := flag.NewFlagSet("ai new cancel", flag.ContinueOnError)
	draftID := flags.String("draft-id", "", "draft id; omit to cancel the sole outstanding draft")

	if err := flags.Parse(args); err != nil {
		return err
	}

	ov, err := overlay.Load(ctx, overlayPath(d))
	if err != nil {
		return err
	}
	defer closeOverlay(ov)

	store := draft.New(d.Cfg, ov)

	cancelled, err := store.Cancel(*draftID, time.Now())
	if err != nil {
		return err
	}

	return d.renderer().Render(o.Out(), map[string]string{"draftId": cancelled})
}

func aiNewList(d Deps, o *IO, args []string) error {
	flags := flag.NewFlagSet("ai new list", flag.ContinueOnError)
	staleDays := flags.Int("stale-days", 0, "only list drafts older than N days")

	if err := flags.Parse(args); err != nil {
		return err
	}

	store := draft.New(d.Cfg, nil)

	records, err := store.List(*staleDays, time.Now())
	if err != nil {
		return err
	}

	return d.renderer().Render(o.Out(), records)
}
