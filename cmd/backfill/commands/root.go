// Package commands implements the CLI commands for backfill.
package commands

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/backfill/internal/app"
	"go.trai.ch/backfill/internal/build"
)

// CLI represents the command line interface for backfill.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:           "backfill [flags] -- <command...>",
		Short:         "Incremental build cache for JavaScript monorepos",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return c.runBuild(cmd, args)
		},
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().String("mode", "", "Cache mode: READ_WRITE, READ_ONLY, WRITE_ONLY or PASS")
	rootCmd.PersistentFlags().StringArray("output-glob", nil, "Output glob relative to the package root (repeatable)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: silly, verbose, info, warn, error or mute")
	rootCmd.PersistentFlags().String("cwd", "", "Package root to operate on (defaults to the working directory)")

	c.rootCmd = rootCmd
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newHashCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

// runOptions collects the persistent flags and the command words.
func runOptions(cmd *cobra.Command, args []string) app.RunOptions {
	mode, _ := cmd.Flags().GetString("mode")
	globs, _ := cmd.Flags().GetStringArray("output-glob")
	level, _ := cmd.Flags().GetString("log-level")
	cwd, _ := cmd.Flags().GetString("cwd")
	return app.RunOptions{
		Cwd:         cwd,
		Command:     strings.Join(args, " "),
		Mode:        mode,
		OutputGlobs: globs,
		LogLevel:    level,
	}
}
