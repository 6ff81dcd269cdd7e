// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/backfill/internal/core/ports"
)

// Recorder implements ports.Telemetry by recording vertices onto a progrock tape.
// Completed vertices also report their duration to the logger at debug level.
type Recorder struct {
	w      progrock.Writer
	rec    *progrock.Recorder
	logger ports.Logger
}

// New creates a new Recorder with a default tape.
func New(logger ports.Logger) *Recorder {
	return NewRecorder(progrock.NewTape(), logger)
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer, logger ports.Logger) *Recorder {
	return &Recorder{
		w:      w,
		rec:    progrock.NewRecorder(w),
		logger: logger,
	}
}

// Record starts recording a new vertex.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	d := digest.FromString(name)
	vertex := &Vertex{
		name:    name,
		vertex:  r.rec.Vertex(d, name),
		logger:  r.logger,
		started: time.Now(),
	}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
