package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run -- <command...>",
		Short: "Run a build command through the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runBuild,
	}
}

func (c *CLI) runBuild(cmd *cobra.Command, args []string) error {
	_, err := c.app.Run(cmd.Context(), runOptions(cmd, args))
	return err
}
