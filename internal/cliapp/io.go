// Package cliapp is the cli-rag command table: a pflag-based dispatcher
// ported from the teacher's internal/cli (Command/IO/Run), generalized from
// tk's fixed ticket-command list to the cli-rag surface named in spec §6
// (init, doctor, search, topics, group, get, cluster, path, graph,
// validate, watch, info, completions, new, ai new {...}, ai index {...}).
package cliapp

import (
	"fmt"
	"io"
)

// IO handles command output with LLM-friendly warning visibility, exactly
// the teacher's internal/cli.IO: warnings print to stderr at both the start
// and end of output so they survive truncation or piping.
type IO struct {
	out      io.Writer
	errOut   io.Writer
	warnings []string
	started  bool
}

// NewIO creates a new IO instance.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// WarnLLM records an actionable warning; any warnings cause Finish to
// report exit code 1 unless a command already returned a more specific
// error-derived code.
func (o *IO) WarnLLM(issue, action string) {
	o.warnings = append(o.warnings, fmt.Sprintf("%s: %s", issue, action))
}

// Println writes to stdout, flushing any buffered warnings first.
func (o *IO) Println(a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout, flushing any buffered warnings
// first.
func (o *IO) Printf(format string, a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr unconditionally.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Out exposes the raw stdout writer for callers that need a json.Encoder
// or a query.Renderer rather than Println's varargs shape.
func (o *IO) Out() io.Writer {
	o.flushWarningsStart()
	return o.out
}

// Finish prints warnings to stderr and returns exit code: 1 if any
// warnings, 0 otherwise. Commands that fail with a structured error never
// reach Finish — Command.Run translates the error to its exit code first.
func (o *IO) Finish() int {
	o.flushWarningsStart()

	for _, w := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}

	if len(o.warnings) > 0 {
		return 1
	}

	return 0
}

func (o *IO) flushWarningsStart() {
	if !o.started && len(o.warnings) > 0 {
		for _, w := range o.warnings {
			_, _ = fmt.Fprintln(o.errOut, "warning:", w)
		}

		o.started = true
	}
}
