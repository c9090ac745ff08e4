package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/cigen/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run JOB",
		Short: "Run a single job by its internal name",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			withPrefix, _ := cmd.Flags().GetBool("with-prefix")
			journal, _ := cmd.Flags().GetString("journal")

			return c.app.Run(cmd.Context(), c.pipeline, args[0], app.RunOptions{
				Options:    opts,
				WithPrefix: withPrefix,
				Journal:    journal,
			})
		},
	}
	cmd.Flags().Bool("with-prefix", false, "Run the job under its run prefix")
	cmd.Flags().String("journal", "", "Record the run as a JSON lines journal at this path")
	addVariableFlag(cmd)
	return cmd
}
