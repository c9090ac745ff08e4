package domain

import (
	"fmt"
	"io"
)

// Command is a single subprocess invocation.
type Command struct {
	// Args holds the program followed by its arguments.
	Args []string
	// Env holds KEY=VALUE entries applied on top of the current process environment.
	Env []string
	// Dir is the working directory. Empty means the current directory.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// JobExit carries a non-zero job exit status through the command layer.
type JobExit struct {
	Job  string
	Code int
}

// Error implements error.
func (e *JobExit) Error() string {
	return fmt.Sprintf("job %s exited with status %d", e.Job, e.Code)
}

// ExitCode returns the process exit status.
func (e *JobExit) ExitCode() int {
	return e.Code
}
