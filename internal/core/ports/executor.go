package ports

import (
	"context"

	"go.trai.ch/cigen/internal/core/domain"
)

// Executor runs subprocesses.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs cmd to completion and returns its exit code.
	//
	// A process that ran and exited non-zero is not an error.
	// It returns -1 and an error if the process could not be started.
	Execute(ctx context.Context, cmd domain.Command) (int, error)
}
