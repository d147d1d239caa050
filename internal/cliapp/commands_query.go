package cliapp

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/query"
)

// SearchCmd implements `search <query>` (spec §4.10).
func SearchCmd(d Deps) *Command {
	flags := flag.NewFlagSet("search", flag.ContinueOnError)
	kinds := flags.String("kinds", "", "comma-separated kinds to include (note,todo,kanban,gtd); default all")

	return &Command{
		Flags: flags,
		Usage: "search <query> [flags]",
		Short: "Search documents and extracted body items",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("search: query required")
			}

			src, err := query.Load(d.Cfg)
			if err != nil {
				return err
			}

			resp := query.Search(src, args[0], splitCSV(*kinds))

			return d.renderer().Render(o.Out(), resp)
		},
	}
}

// TopicsCmd implements `topics` (spec §4.10).
func TopicsCmd(d Deps) *Command {
	flags := flag.NewFlagSet("topics", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "topics [flags]",
		Short: "List aggregated group/topic labels",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			src, err := query.Load(d.Cfg)
			if err != nil {
				return err
			}

			resp, err := query.Topics(src, d.Cfg.Bases, d.Cfg.GroupsRelative)
			if err != nil {
				return err
			}

			return d.renderer().Render(o.Out(), resp)
		},
	}
}

// GroupCmd implements `group <topic>` (spec §4.10).
func GroupCmd(d Deps) *Command {
	flags := flag.NewFlagSet("group", flag.ContinueOnError)
	includeContent := flags.Bool("include-content", false, "embed each member's raw file content")

	return &Command{
		Flags: flags,
		Usage: "group <topic> [flags]",
		Short: "List documents matching a group/topic filter",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("group: topic required")
			}

			src, err := query.Load(d.Cfg)
			if err != nil {
				return err
			}

			resp := query.Group(src, args[0], *includeContent)

			return d.renderer().Render(o.Out(), resp)
		},
	}
}

// GetCmd implements `get <id>` (spec §4.10).
func GetCmd(d Deps) *Command {
	flags := flag.NewFlagSet("get", flag.ContinueOnError)
	includeDependents := flags.Bool("include-dependents", false, "list documents that depend on this one")
	neighborStyle := flags.String("neighbor-style", "", "metadata|outline|full; empty disables neighbor embedding")
	depth := flags.Int("depth", 1, "neighbor traversal depth")

	return &Command{
		Flags: flags,
		Usage: "get <id> [flags]",
		Short: "Get one document's metadata, content, and neighbors",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("get: id required")
			}

			src, err := query.Load(d.Cfg)
			if err != nil {
				return err
			}

			resp, err := query.Get(src, args[0], query.GetOptions{
				IncludeDependents: *includeDependents,
				NeighborStyle:     query.NeighborStyle(*neighborStyle),
				Depth:             *depth,
			})
			if err != nil {
				return err
			}

			return d.renderer().Render(o.Out(), resp)
		},
	}
}

// ClusterCmd implements `cluster <root>` (spec §4.9/§4.10).
func ClusterCmd(d Deps) *Command {
	flags := flag.NewFlagSet("cluster", flag.ContinueOnError)
	depth := flags.Int("depth", 2, "traversal depth")
	bidirectional := flags.Bool("include-bidirectional", false, "traverse reverse-dependent edges too")

	return &Command{
		Flags: flags,
		Usage: "cluster <root> [flags]",
		Short: "Expand a document's dependency cluster",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("cluster: root id required")
			}

			src, err := query.Load(d.Cfg)
			if err != nil {
				return err
			}

			resp, err := query.Cluster(src, args[0], *depth, *bidirectional)
			if err != nil {
				return err
			}

			return d.renderer().Render(o.Out(), resp)
		},
	}
}

// PathCmd implements `path --from <id> --to <id>` (spec §4.9/§4.10, S1).
func PathCmd(d Deps) *Command {
	flags := flag.NewFlagSet("path", flag.ContinueOnError)
	from := flags.String("from", "", "source id")
	to := flags.String("to", "", "target id")
	maxDepth := flags.Int("max-depth", 10, "maximum BFS depth")

	return &Command{
		Flags: flags,
		Usage: "path --from <id> --to <id> [flags]",
		Short: "Find the shortest dependency path between two documents",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			if *from == "" || *to == "" {
				return fmt.Errorf("path: --from and --to are required")
			}

			src, err := query.Load(d.Cfg)
			if err != nil {
				return err
			}

			resp, err := query.Path(src, *from, *to, *maxDepth)
			if err != nil {
				return err
			}

			return d.renderer().Render(o.Out(), resp)
		},
	}
}

// GraphCmd implements `graph <root>` (spec §4.9/§4.10).
func GraphCmd(d Deps) *Command {
	flags := flag.NewFlagSet("graph", flag.ContinueOnError)
	format := flags.String("graph-format", "mermaid", "mermaid|dot|json")
	depth := flags.Int("depth", 2, "traversal depth")
	bidirectional := flags.Bool("include-bidirectional", false, "traverse reverse-dependent edges too")

	return &Command{
		Flags: flags,
		Usage: "graph <root> [flags]",
		Short: "Render a document's dependency cluster as a graph",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("graph: root id required")
			}

			src, err := query.Load(d.Cfg)
			if err != nil {
				return err
			}

			resp, err := query.Graph(src, args[0], *format, *depth, *bidirectional)
			if err != nil {
				return err
			}

			return d.renderer().Render(o.Out(), resp)
		},
	}
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}

	return out
}
