// Package main is the entry point for the backfill CLI.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/backfill/cmd/backfill/commands"
	"go.trai.ch/backfill/internal/app"
	"go.trai.ch/backfill/internal/core/domain"
	_ "go.trai.ch/backfill/internal/wiring"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string, opts ...func(*app.App)) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		// Write directly to stderr
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	defer components.Telemetry.Close() //nolint:errcheck // Best effort close in defer

	// Apply options
	for _, opt := range opts {
		opt(components.App)
	}

	// 2. Interface - CLI
	cli := commands.New(components.App)
	cli.SetArgs(args)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		// The build already reported its own output.
		if !errors.Is(err, domain.ErrBuildExecutionFailed) {
			components.Logger.Error(err)
		}
		return domain.ExitCodeOf(err)
	}
	return 0
}
