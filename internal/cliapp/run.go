package cliapp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
)

// globalOptionsHelp mirrors the teacher's globalOptionsHelp block, extended
// to cli-rag's global switches (spec §6: --config, --base, --format,
// --no-lua).
const globalOptionsHelp = `  -h, --help               Show help
  -c, --config <file>     Use specified config file
      --base <dir>         Override bases (highest precedence)
      --format <fmt>       plain|json|ndjson|ai (default json)
      --no-lua             Disable overlay scripting`

// Run is cli-rag's entry point, the teacher's internal/cli.Run dispatch
// generalized to the cli-rag command table and given a pflag/viper split:
// viper owns global flag <-> environment variable binding for switches
// config.Load doesn't itself resolve (CLI_RAG_INIT_CHOICE), while
// config.Load keeps full ownership of its own env overrides
// (CLI_RAG_CONFIG/CLI_RAG_FILEPATHS/CLI_RAG_NO_LUA) exactly as before —
// this file never re-implements that precedence, only adds to it.
func Run(_ io.Reader, out, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	v := viper.New()
	v.SetEnvPrefix("CLI_RAG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("format", "json")
	v.SetDefault("init-choice", "")

	for k, val := range env {
		os.Setenv(k, val) //nolint:errcheck // viper's AutomaticEnv reads via os.Getenv
	}

	globalFlags := flag.NewFlagSet("cli-rag", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagConfig := globalFlags.StringP("config", "c", "", "Use specified config file")
	flagBase := globalFlags.String("base", "", "Override bases (highest precedence)")
	globalFlags.String("format", v.GetString("format"), "plain|json|ndjson|ai")
	flagNoLua := globalFlags.Bool("no-lua", false, "Disable overlay scripting")

	if err := globalFlags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	_ = v.BindPFlag("format", globalFlags.Lookup("format"))

	cfg, err := config.Load(config.LoadInput{
		ExplicitPath:     *flagConfig,
		BaseOverride:     *flagBase,
		OverlaysDisabled: *flagNoLua,
		Env:              env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	deps := Deps{
		Cfg:        cfg,
		Format:     Format(v.GetString("format")),
		Env:        env,
		InitChoice: v.GetString("init-choice"),
		Logger:     zap.NewNop(),
	}

	commands := allCommands(deps)

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	commandAndArgs := globalFlags.Args()

	if *flagHelp || (len(commandAndArgs) == 0 && globalFlags.NFlag() == 0) {
		printUsage(out, commands)
		return 0
	}

	if len(commandAndArgs) == 0 {
		fprintln(errOut, "error: no command provided")
		printUsage(errOut, commands)

		return 1
	}

	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)

		return 1
	}

	cmdIO := NewIO(out, errOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)

	go func() {
		done <- cmd.Run(ctx, cmdIO, commandAndArgs[1:])
	}()

	select {
	case exitCode := <-done:
		if exitCode != 0 {
			return exitCode
		}

		return cmdIO.Finish()
	case <-sigCh:
		fprintln(errOut, "shutting down with 5s timeout...")
		cancel()
	}

	select {
	case <-done:
		fprintln(errOut, "graceful shutdown ok (130)")
		return 130
	case <-time.After(5 * time.Second):
		fprintln(errOut, "graceful shutdown timed out, forced exit (130)")
		return 130
	case <-sigCh:
		fprintln(errOut, "graceful shutdown interrupted, forced exit (130)")
		return 130
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printGlobalOptions(w io.Writer) {
	fprintln(w, "Usage: cli-rag [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Run 'cli-rag --help' for a list of commands.")
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, "cli-rag - indexed markdown knowledge base")
	fprintln(w)
	fprintln(w, "Usage: cli-rag [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}
}
