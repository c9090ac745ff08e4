// Package commands implements the CLI commands of a cigen pipeline program.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/cigen/internal/app"
	"go.trai.ch/cigen/internal/build"
	"go.trai.ch/cigen/pkg/pipeline"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface of a pipeline program.
type CLI struct {
	app      Application
	pipeline *pipeline.Pipeline
	rootCmd  *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Generate(ctx context.Context, p *pipeline.Pipeline, opts app.GenerateOptions) error
	Run(ctx context.Context, p *pipeline.Pipeline, internalName string, opts app.RunOptions) error
	List(ctx context.Context, p *pipeline.Pipeline, opts app.ListOptions) error
}

// New creates a new CLI instance operating on p.
func New(a Application, p *pipeline.Pipeline) *CLI {
	rootCmd := &cobra.Command{
		Use:           "pipeline",
		Short:         "Generate and run the GitLab CI pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate("{{.Name}} version {{.Version}}\n")
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.Bool("no-input-env", false, "Do not read variable values from the environment")
	flags.Bool("no-forward-env", false, "Do not export variable values to the job environment")
	flags.StringP("dir", "C", "", "Directory containing the settings files")

	c := &CLI{
		app:      a,
		pipeline: p,
		rootCmd:  rootCmd,
	}

	rootCmd.AddCommand(c.newGenerateCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func addVariableFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("variable", "v", nil, "Set a pipeline variable (NAME=VALUE)")
}

// options collects the flags shared by every command.
func options(cmd *cobra.Command) (app.Options, error) {
	noInputEnv, err := cmd.Flags().GetBool("no-input-env")
	if err != nil {
		return app.Options{}, err
	}
	noForwardEnv, err := cmd.Flags().GetBool("no-forward-env")
	if err != nil {
		return app.Options{}, err
	}
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return app.Options{}, err
	}
	assignments, err := cmd.Flags().GetStringArray("variable")
	if err != nil {
		return app.Options{}, zerr.Wrap(err, "failed to read variables")
	}
	return app.Options{
		Dir:          dir,
		Assignments:  assignments,
		NoInputEnv:   noInputEnv,
		NoForwardEnv: noForwardEnv,
		Stdout:       cmd.OutOrStdout(),
	}, nil
}
