package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/cigen/internal/app"
)

func (c *CLI) newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the GitLab CI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			check, _ := cmd.Flags().GetBool("check")

			return c.app.Generate(cmd.Context(), c.pipeline, app.GenerateOptions{
				Options: opts,
				Output:  output,
				Check:   check,
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Path of the generated document (overrides the settings)")
	cmd.Flags().Bool("check", false, "Fail if the document on disk is not up to date")
	addVariableFlag(cmd)
	return cmd
}
