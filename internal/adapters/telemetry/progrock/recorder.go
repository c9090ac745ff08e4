// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/cigen/internal/core/ports"
	"go.trai.ch/zerr"
)

// Recorder implements ports.Telemetry with a progrock recording.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a new Recorder that discards its updates until a journal is set.
func New() *Recorder {
	return NewRecorder(progrock.Discard{})
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Journal switches the recording to a JSON lines journal at path.
// The previous writer is closed.
func (r *Recorder) Journal(path string) error {
	w, err := progrock.CreateJournal(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create journal"), "path", path)
	}
	if err := r.w.Close(); err != nil {
		_ = w.Close()
		return zerr.Wrap(err, "failed to close recording")
	}
	r.w = w
	r.rec = progrock.NewRecorder(w)
	return nil
}

// Record starts a vertex for the job name.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	v := &Vertex{vertex: r.rec.Vertex(digest.FromString(name), name)}
	return ports.ContextWithVertex(ctx, v), v
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	return r.w.Close()
}
