package cliapp

import (
	"go.uber.org/zap"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/query"
)

// Format is the `--format` global switch (spec §6). cli-rag fully wires
// FormatJSON through every query envelope; FormatPlain/FormatAI are
// accepted but render via query.Renderer, whose plain/ai implementations
// are outside this module's scope (SPEC_FULL.md §6) — commands fall back
// to FormatJSON's renderer for them rather than failing the call.
type Format string

const (
	FormatPlain  Format = "plain"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatAI     Format = "ai"
)

// Deps bundles the resolved configuration and global switches every
// command constructor closes over, mirroring the teacher's allCommands(cfg
// ticket.Config, env map[string]string) closure-capture pattern.
type Deps struct {
	Cfg        *config.Config
	Format     Format
	Env        map[string]string
	InitChoice string
	Logger     *zap.Logger
}

// renderer picks the Renderer for d.Format, defaulting to JSON for the
// plain/ai formats this module doesn't implement end to end.
func (d Deps) renderer() query.Renderer {
	if d.Format == FormatNDJSON {
		return query.NDJSONRenderer{}
	}

	return query.JSONRenderer{}
}

func allCommands(d Deps) []*Command {
	return []*Command{
		InitCmd(d),
		DoctorCmd(d),
		SearchCmd(d),
		TopicsCmd(d),
		GroupCmd(d),
		GetCmd(d),
		ClusterCmd(d),
		PathCmd(d),
		GraphCmd(d),
		ValidateCmd(d),
		WatchCmd(d),
		InfoCmd(d),
		CompletionsCmd(d),
		NewCmd(d),
		AICmd(d),
	}
}
