// Package cli is the entry point of a pipeline program.
//
// A pipeline program declares its stages, variables and jobs and hands the
// resulting pipeline to Main:
//
//	func main() {
//		cli.Main(newPipeline())
//	}
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/cigen/internal/app"
	_ "go.trai.ch/cigen/internal/wiring" // Register graft nodes.
	"go.trai.ch/cigen/pkg/cli/commands"
	"go.trai.ch/cigen/pkg/pipeline"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

type config struct {
	stdout   io.Writer
	stderr   io.Writer
	provider ComponentProvider
}

// Option configures Run.
type Option func(*config)

// WithOutput replaces the standard output and error streams.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *config) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithComponentProvider replaces the resolution of the application graph.
func WithComponentProvider(provider ComponentProvider) Option {
	return func(c *config) {
		c.provider = provider
	}
}

func resolveComponents(ctx context.Context) (*app.Components, func(), error) {
	c, _, err := graft.ExecuteFor[*app.Components](ctx)
	return c, func() {}, err
}

// Main runs the command line of p and exits the process.
func Main(p *pipeline.Pipeline) {
	os.Exit(Run(context.Background(), p, os.Args[1:]))
}

// Run executes the command line args against p and returns the exit status.
// A failing job exits with its own status; every other error exits with 1.
func Run(ctx context.Context, p *pipeline.Pipeline, args []string, opts ...Option) int {
	cfg := config{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		provider: resolveComponents,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, cleanup, err := cfg.provider(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = fmt.Fprintln(cfg.stderr, "Error: "+err.Error())
		return 1
	}
	defer cleanup()

	cli := commands.New(components.App, p)
	cli.SetArgs(args)
	cli.SetOutput(cfg.stdout, cfg.stderr)

	if err := cli.Execute(ctx); err != nil {
		var exit interface{ ExitCode() int }
		if errors.As(err, &exit) && exit.ExitCode() > 0 {
			return exit.ExitCode()
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
