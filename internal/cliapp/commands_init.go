package cliapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
)

// projectTemplate and genericTemplate mirror the two presets
// original_source/src/commands/init.rs offers (Preset::Project selects a
// source-tree-shaped layout with a docs/ base and an ADR-like schema;
// Preset::Generic is a minimal single-base starting point).
const projectTemplate = `# cli-rag project configuration
bases = ["docs"]
index_relative = ".cli-rag/index.json"
groups_relative = "groups.toml"
file_patterns = ["*.md"]
ignore_globs = [".git/**", "node_modules/**"]
allowed_statuses = ["draft", "active", "superseded", "archived"]
graph_depth = 2
graph_include_bidirectional = false
follow_symlinks = false

[authoring_destinations]
note = "docs"

[[schema]]
name = "note"
file_patterns = ["*.md"]
required = ["id", "title", "status"]
allowed_keys = ["id", "title", "status", "tags", "depends_on"]
unknown_policy = "warn"
cycle_policy = "warn"
`

const genericTemplate = `# cli-rag configuration
bases = ["."]
index_relative = ".cli-rag/index.json"
groups_relative = "groups.toml"
file_patterns = ["*.md"]
allowed_statuses = ["draft", "active"]
graph_depth = 2

[[schema]]
name = "note"
file_patterns = ["*.md"]
required = ["id", "title"]
unknown_policy = "ignore"
`

// InitCmd implements `init` (spec §9 supplemented feature, grounded on
// original_source/src/commands/init.rs). Preset selection follows the
// original's precedence: --preset flag, then CLI_RAG_INIT_CHOICE
// (bound at the cliapp.Run layer into Deps.InitChoice via viper), then
// "generic".
func InitCmd(d Deps) *Command {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	preset := flags.String("preset", "", "project|generic (default: CLI_RAG_INIT_CHOICE, else generic)")
	force := flags.Bool("force", false, "overwrite an existing .cli-rag.toml in the working directory")
	printTemplate := flags.Bool("print-template", false, "print the chosen template without writing it")
	dryRun := flags.Bool("dry-run", false, "report what would be written without writing it")

	return &Command{
		Flags: flags,
		Usage: "init [flags]",
		Short: "Write a starter .cli-rag.toml in the working directory",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			choice := *preset
			if choice == "" {
				choice = d.InitChoice
			}

			if choice == "" {
				choice = "generic"
			}

			var tmpl string

			switch choice {
			case "project":
				tmpl = projectTemplate
			case "generic":
				tmpl = genericTemplate
			default:
				return fmt.Errorf("init: unknown preset %q (want project|generic)", choice)
			}

			if *printTemplate {
				o.Println(tmpl)
				return nil
			}

			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("init: getwd: %w", err)
			}

			target := filepath.Join(wd, ".cli-rag.toml")

			if _, err := os.Stat(target); err == nil && !*force {
				return fmt.Errorf("init: %s already exists (use --force to overwrite)", target)
			}

			if *dryRun {
				o.Printf("would write %s (preset=%s)\n", target, choice)
				return nil
			}

			if err := os.WriteFile(target, []byte(tmpl), 0o644); err != nil {
				return fmt.Errorf("init: write %s: %w", target, err)
			}

			return d.renderer().Render(o.Out(), map[string]string{"path": target, "preset": choice})
		},
	}
}
