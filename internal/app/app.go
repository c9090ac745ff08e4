// Package app implements the application layer for cigen.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fatih/color"
	"go.trai.ch/cigen/internal/core/domain"
	"go.trai.ch/cigen/internal/core/ports"
	"go.trai.ch/cigen/pkg/pipeline"
	"go.trai.ch/zerr"
)

var (
	startColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
	stageColor   = color.New(color.Bold)
)

// App represents the main application logic.
type App struct {
	logger    ports.Logger
	loader    ports.SettingsLoader
	emitter   ports.Emitter
	executor  ports.Executor
	env       ports.Environment
	telemetry ports.Telemetry
}

// New creates a new App instance.
func New(
	logger ports.Logger,
	loader ports.SettingsLoader,
	emitter ports.Emitter,
	executor ports.Executor,
	env ports.Environment,
	telemetry ports.Telemetry,
) *App {
	return &App{
		logger:    logger,
		loader:    loader,
		emitter:   emitter,
		executor:  executor,
		env:       env,
		telemetry: telemetry,
	}
}

// Options are shared by all commands.
type Options struct {
	// Dir is searched for settings files. Defaults to the working directory.
	Dir string
	// Assignments are NAME=VALUE pairs for pipeline variables.
	Assignments []string
	// NoInputEnv stops reading variable values from the process environment.
	NoInputEnv bool
	// NoForwardEnv stops exporting variable values to the job environment.
	NoForwardEnv bool
	// Stdout receives user facing output. Defaults to os.Stdout.
	Stdout io.Writer
}

func (o Options) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

// GenerateOptions configure Generate.
type GenerateOptions struct {
	Options
	// Output overrides the path of the generated document.
	Output string
	// Check verifies the document on disk instead of writing it.
	Check bool
}

// RunOptions configure Run.
type RunOptions struct {
	Options
	// WithPrefix re-invokes cigen under the run prefix of the job.
	WithPrefix bool
	// Journal records the run to a file. Overrides the settings.
	Journal string
}

// ListOptions configure List.
type ListOptions struct {
	Options
	// All includes jobs that would not run.
	All bool
}

// configure resolves the settings, applies them to the pipeline variables and prepares p.
func (a *App) configure(p *pipeline.Pipeline, opts Options) (*domain.Settings, error) {
	assignments, err := domain.ParseAssignments(opts.Assignments)
	if err != nil {
		return nil, err
	}

	vars := p.Variables()
	settings, err := a.loader.Load(domain.SettingsRequest{
		Dir:            opts.Dir,
		Variables:      vars.Names(),
		UseEnvironment: !opts.NoInputEnv,
		Assignments:    assignments,
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load settings")
	}

	names := make([]string, 0, len(settings.Variables))
	for name := range settings.Variables {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		v, ok := vars.Get(name)
		if !ok {
			err := zerr.Wrap(domain.ErrUnknownVariable, "variable "+name+" is not declared by the pipeline")
			return nil, zerr.With(err, "variable", name)
		}
		v.SetValue(settings.Variables[name])
	}

	if err := p.Prepare(); err != nil {
		return nil, zerr.Wrap(err, "invalid pipeline")
	}
	return settings, nil
}

// Generate renders the pipeline and writes, or checks, the CI document.
func (a *App) Generate(_ context.Context, p *pipeline.Pipeline, opts GenerateOptions) error {
	settings, err := a.configure(p, opts.Options)
	if err != nil {
		return err
	}

	enabled, err := p.EvaluateWorkflow()
	if err != nil {
		return zerr.Wrap(err, "failed to evaluate workflow")
	}
	if !enabled {
		a.logger.Warn(domain.ErrPipelineDisabled.Error() + " for the current variables")
	}

	output := opts.Output
	if output == "" {
		output = settings.Output
	}
	if !filepath.IsAbs(output) && opts.Dir != "" {
		output = filepath.Join(opts.Dir, output)
	}

	doc, err := p.Render(settings.RunScript)
	if err != nil {
		return zerr.Wrap(err, "failed to render pipeline")
	}

	if opts.Check {
		if err := a.emitter.Check(output, doc); err != nil {
			return err
		}
		a.logger.Info(output + " is up to date")
		return nil
	}

	changed, err := a.emitter.Emit(output, doc)
	if err != nil {
		return err
	}
	if changed {
		a.logger.Info("Wrote " + output)
	} else {
		a.logger.Info(output + " is up to date")
	}
	return nil
}

// Run executes a single job by its internal name.
// A job that fails is reported as *domain.JobExit.
func (a *App) Run(ctx context.Context, p *pipeline.Pipeline, internalName string, opts RunOptions) error {
	settings, err := a.configure(p, opts.Options)
	if err != nil {
		return err
	}

	job, err := p.Lookup(internalName)
	if err != nil {
		return err
	}

	if opts.WithPrefix && job.Config().RunPrefix != "" {
		return a.runWithPrefix(ctx, p, job, opts)
	}

	stdout := opts.stdout()
	a.showVariables(p, stdout)

	if !opts.NoForwardEnv {
		if err := a.export(p); err != nil {
			return err
		}
	}

	if journal := a.journalPath(settings, opts); journal != "" {
		if err := a.telemetry.Journal(journal); err != nil {
			return err
		}
	}
	defer func() {
		if err := a.telemetry.Close(); err != nil {
			a.logger.Error(err)
		}
	}()

	_, _ = startColor.Fprintf(stdout, "Starting job '%s' (%s)\n", job.Name(), internalName)
	ctx, vertex := a.telemetry.Record(ctx, job.Name())
	ctx = pipeline.WithCommandRunner(ctx, &commandRunner{executor: a.executor, dir: opts.Dir, stdout: stdout})

	if !job.HasWork() {
		a.logger.Info("Nothing to do.")
		vertex.Log(domain.LogLevelInfo, "Nothing to do.")
	}

	outcome, err := p.Execute(ctx, internalName)
	if err != nil {
		vertex.Complete(err)
		return err
	}

	if resultErr, ok := outcome.Result.(error); ok {
		a.logger.Error(zerr.With(zerr.Wrap(resultErr, "job returned an error"), "job", internalName))
	}
	if outcome.Unrecognized {
		msg := fmt.Sprintf("job %s returned %T, treating it as success", internalName, outcome.Result)
		a.logger.Warn(msg)
		vertex.Log(domain.LogLevelWarn, msg)
	}

	if outcome.Code == 0 {
		vertex.Complete(nil)
		_, _ = successColor.Fprintln(stdout, "Job finished successfully")
		return nil
	}

	exit := &domain.JobExit{Job: internalName, Code: outcome.Code}
	vertex.Complete(exit)
	_, _ = failureColor.Fprintln(stdout, "Job FAILED")
	return exit
}

// runWithPrefix runs the job in a child cigen process started under the run prefix.
// The child receives every variable value explicitly and ignores its environment.
func (a *App) runWithPrefix(ctx context.Context, p *pipeline.Pipeline, job *pipeline.Job, opts RunOptions) error {
	exe, err := a.env.Executable()
	if err != nil {
		return err
	}

	argv := strings.Fields(job.Config().RunPrefix)
	argv = append(argv, exe, "--no-input-env")
	if opts.NoForwardEnv {
		argv = append(argv, "--no-forward-env")
	}
	argv = append(argv, "run", job.InternalName())
	if opts.Journal != "" {
		argv = append(argv, "--journal", opts.Journal)
	}
	for name, v := range p.Variables().All() {
		if v.HasValue() {
			argv = append(argv, "-v", name+"="+v.Value())
		}
	}

	a.logger.Info("Running with prefix: " + strings.Join(argv, " "))
	code, err := a.executor.Execute(ctx, domain.Command{Args: argv, Dir: opts.Dir, Stdout: opts.stdout()})
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to run job with prefix"), "job", job.InternalName())
	}
	if code != 0 {
		return &domain.JobExit{Job: job.InternalName(), Code: code}
	}
	return nil
}

func (a *App) journalPath(settings *domain.Settings, opts RunOptions) string {
	journal := opts.Journal
	if journal == "" {
		journal = settings.Journal
	}
	if journal != "" && !filepath.IsAbs(journal) && opts.Dir != "" {
		journal = filepath.Join(opts.Dir, journal)
	}
	return journal
}

func (a *App) showVariables(p *pipeline.Pipeline, w io.Writer) {
	for name, v := range p.Variables().All() {
		if v.Shows() {
			_, _ = fmt.Fprintf(w, "%s=%s\n", name, v.Value())
		}
	}
}

func (a *App) export(p *pipeline.Pipeline) error {
	for name, v := range p.Variables().All() {
		if !v.HasValue() {
			continue
		}
		if err := a.env.Export(name, v.Value()); err != nil {
			return err
		}
	}
	return nil
}

// List prints the jobs of every stage with their effective disposition.
func (a *App) List(_ context.Context, p *pipeline.Pipeline, opts ListOptions) error {
	if _, err := a.configure(p, opts.Options); err != nil {
		return err
	}

	listings, err := p.List(opts.All)
	if err != nil {
		return err
	}

	w := opts.stdout()
	for _, listing := range listings {
		if len(listing.Jobs) == 0 && !opts.All {
			continue
		}
		_, _ = stageColor.Fprintf(w, "%s:\n", listing.Stage.Name)
		for _, j := range listing.Jobs {
			_, _ = fmt.Fprintf(w, "  %s (%s): %s\n", j.Job.Name(), j.Job.InternalName(), j.When)
		}
	}
	return nil
}

// commandRunner executes command work of a job through the Executor port.
type commandRunner struct {
	executor ports.Executor
	dir      string
	stdout   io.Writer
}

func (r *commandRunner) RunCommand(ctx context.Context, argv []string) (int, error) {
	return r.executor.Execute(ctx, domain.Command{Args: argv, Dir: r.dir, Stdout: r.stdout})
}
