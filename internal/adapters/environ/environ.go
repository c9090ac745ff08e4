// Package environ gives access to the process environment.
package environ

import (
	"os"

	"go.trai.ch/zerr"
)

// Process implements ports.Environment for the running process.
type Process struct{}

// New creates a new Process environment.
func New() *Process {
	return &Process{}
}

// Environ returns the environment in KEY=VALUE form.
func (p *Process) Environ() []string {
	return os.Environ()
}

// Export sets name for the current process and its children.
func (p *Process) Export(name, value string) error {
	if err := os.Setenv(name, value); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to export variable"), "variable", name)
	}
	return nil
}

// Executable returns the path of the running program.
func (p *Process) Executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", zerr.Wrap(err, "failed to locate executable")
	}
	return exe, nil
}
