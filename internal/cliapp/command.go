package cliapp

import (
	"context"
	"errors"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/animegolem/cli-rag-sub000/pkg/ragerr"
)

// Command defines a CLI command with unified help generation, the
// teacher's internal/cli.Command shape unchanged except Run now maps a
// returned error to cli-rag's stable exit codes (spec §6) via
// ragerr.ExitCodeFor instead of collapsing every error to 1.
type Command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Long  string
	Exec  func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return "  " + padRight(c.Usage, 28) + c.Short
}

// PrintHelp prints the full help output for "cli-rag <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: cli-rag", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command, returning the stable process
// exit code (spec §6/§7): 1 for errValidationFailed or a flag-parse
// failure, otherwise ragerr.ExitCodeFor(err) for any error Exec returns
// (2 for an error that is not a *ragerr.Error), 0 on success (modulo
// IO.Finish's warning-driven exit 1).
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		var ve *validationExit
		if errors.As(err, &ve) {
			return ragerr.ExitValidation
		}

		o.ErrPrintln("error:", err)

		return ragerr.ExitCodeFor(err)
	}

	return 0
}

// validationExit signals "the report already printed itself; exit 1" for
// commands whose failure mode is a diagnostics report rather than a single
// message (validate, watch's initial cycle, draft submit) — spec §7 stratum
// 2, distinct from the structured *ragerr.Error strata ExitCodeFor maps.
type validationExit struct{}

func (*validationExit) Error() string { return "validation errors present" }

// errValidationFailed is returned by a command's Exec after it has already
// printed the non-ok report to o, so Command.Run exits 1 without an extra
// "error:" line.
var errValidationFailed error = &validationExit{}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s + " "
	}

	return s + strings.Repeat(" ", n-len(s))
}
