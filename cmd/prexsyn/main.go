// Command prexsyn is the CLI entry point: build-space, generate, serve.
package main

import (
	"os"

	"github.com/prexsyn/engine/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	// cli.Execute already prints formatted errors to stderr.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
