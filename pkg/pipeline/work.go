package pipeline

import (
	"context"
	"errors"
)

// Work is the body of a job. Its result is mapped to an exit status by ExitStatus.
type Work func(ctx context.Context) any

// CommandRunner runs a single subprocess and reports its exit code.
type CommandRunner interface {
	RunCommand(ctx context.Context, argv []string) (int, error)
}

type commandRunnerKey struct{}

// WithCommandRunner returns a context carrying r for Command work.
func WithCommandRunner(ctx context.Context, r CommandRunner) context.Context {
	return context.WithValue(ctx, commandRunnerKey{}, r)
}

// CommandRunnerFrom returns the CommandRunner carried by ctx.
func CommandRunnerFrom(ctx context.Context) (CommandRunner, bool) {
	r, ok := ctx.Value(commandRunnerKey{}).(CommandRunner)
	return r, ok && r != nil
}

// Command returns work running exactly one subprocess. The exit code of the
// process is the result of the work.
func Command(name string, args ...string) Work {
	argv := append([]string{name}, args...)
	return func(ctx context.Context) any {
		r, ok := CommandRunnerFrom(ctx)
		if !ok {
			return ErrNoCommandRunner
		}
		code, err := r.RunCommand(ctx, argv)
		if err != nil {
			return err
		}
		return code
	}
}

// ExitStatus maps the result of a job to a process exit code.
// recognized is false for results that are neither bool, integer nor error;
// those map to 0 and should be reported as a warning.
func ExitStatus(result any) (code int, recognized bool) {
	switch r := result.(type) {
	case nil:
		return 0, true
	case bool:
		if r {
			return 0, true
		}
		return 1, true
	case int:
		return r, true
	case int32:
		return int(r), true
	case int64:
		return int(r), true
	case error:
		var withCode interface{ ExitCode() int }
		if errors.As(r, &withCode) && withCode.ExitCode() > 0 {
			return withCode.ExitCode(), true
		}
		return 1, true
	default:
		return 0, false
	}
}
