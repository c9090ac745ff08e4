package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/cigen/internal/app"
)

func (c *CLI) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the jobs of every stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")

			return c.app.List(cmd.Context(), c.pipeline, app.ListOptions{
				Options: opts,
				All:     all,
			})
		},
	}
	cmd.Flags().BoolP("all", "a", false, "Include jobs that would not run")
	addVariableFlag(cmd)
	return cmd
}
