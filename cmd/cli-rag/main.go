// Command cli-rag indexes, validates, and queries a tree of
// schema-governed markdown notes (spec §1).
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/animegolem/cli-rag-sub000/internal/cliapp"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cliapp.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env, sigCh)

	os.Exit(exitCode)
}
