package ports

import (
	"context"
	"io"

	"go.trai.ch/cigen/internal/core/domain"
)

// Telemetry records the execution of jobs.
//
//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks
type Telemetry interface {
	// Record starts a vertex for name and returns a context carrying it.
	Record(ctx context.Context, name string) (context.Context, Vertex)
	// Journal persists the recording to path. Without a journal, nothing is kept.
	Journal(path string) error
	// Close flushes the recording.
	Close() error
}

// Vertex is a recorded unit of work.
type Vertex interface {
	// Stdout returns a writer capturing standard output.
	Stdout() io.Writer
	// Stderr returns a writer capturing error output.
	Stderr() io.Writer
	// Log records a message associated with the vertex.
	Log(level domain.LogLevel, msg string)
	// Complete marks the vertex as finished.
	Complete(err error)
}

type vertexKey struct{}

// ContextWithVertex returns a context carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex carried by ctx.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
