// Package shell provides the subprocess executor adapter.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/cigen/internal/core/domain"
	"go.trai.ch/cigen/internal/core/ports"
	"go.trai.ch/zerr"
)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	environ func() []string
}

// NewExecutor creates a new Executor inheriting the process environment.
func NewExecutor() *Executor {
	return &Executor{environ: os.Environ}
}

// Execute runs the command and returns its exit code.
// The environment of the child is the process environment overlaid with cmd.Env.
// Output goes to cmd.Stdout and cmd.Stderr, defaulting to the process streams,
// and is also copied to the vertex carried by ctx.
func (e *Executor) Execute(ctx context.Context, cmd domain.Command) (int, error) {
	if len(cmd.Args) == 0 {
		return 0, nil
	}

	name := cmd.Args[0]
	env := resolveEnvironment(e.environ(), cmd.Env)

	// Resolve the executable with the PATH of the child environment.
	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args[1:]...) //nolint:gosec // user provided command
	// Keep the name as invoked in Args[0].
	c.Args[0] = name
	c.Dir = cmd.Dir
	c.Env = env
	c.Stdin = os.Stdin
	c.Stdout, c.Stderr = outputs(ctx, cmd)

	err := c.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return -1, zerr.With(zerr.Wrap(err, "command terminated by signal"), "command", name)
	}
	return -1, zerr.With(zerr.Wrap(err, "failed to start command"), "command", name)
}

func outputs(ctx context.Context, cmd domain.Command) (stdout, stderr io.Writer) {
	stdout, stderr = cmd.Stdout, cmd.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if v, ok := ports.VertexFromContext(ctx); ok {
		stdout = io.MultiWriter(stdout, v.Stdout())
		stderr = io.MultiWriter(stderr, v.Stderr())
	}
	return stdout, stderr
}

// resolveEnvironment overlays entries on base. Later entries win.
func resolveEnvironment(base, entries []string) []string {
	envMap := make(map[string]string, len(base)+len(entries))
	for _, list := range [][]string{base, entries} {
		for _, entry := range list {
			if k, v, ok := strings.Cut(entry, "="); ok {
				envMap[k] = v
			}
		}
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
