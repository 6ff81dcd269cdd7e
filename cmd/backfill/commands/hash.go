package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newHashCmd() *cobra.Command {
	var content bool

	cmd := &cobra.Command{
		Use:   "hash [--content] -- <command...>",
		Short: "Print the fingerprint of a build command without running it",
		Long: "Print the fingerprint of a build command without running it.\n" +
			"With --content the package's content hash is printed instead; it ignores the command.",
		Args: func(cmd *cobra.Command, args []string) error {
			if content {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := runOptions(cmd, args)
			if content {
				sum, err := c.app.ContentHash(cmd.Context(), opts)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), sum)
				return err
			}

			fp, err := c.app.Hash(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), fp.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&content, "content", false, "print the content hash, which ignores the build command")
	return cmd
}
