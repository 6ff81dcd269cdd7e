package progrock

import (
	"fmt"
	"io"
	"time"

	"github.com/vito/progrock"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
)

// Vertex implements ports.Vertex wrapping *progrock.VertexRecorder.
type Vertex struct {
	name    string
	vertex  *progrock.VertexRecorder
	logger  ports.Logger
	started time.Time
	cached  bool
}

// Stdout returns a writer to capture standard output stream.
func (v *Vertex) Stdout() io.Writer {
	return v.vertex.Stdout()
}

// Stderr returns a writer to capture error output stream.
func (v *Vertex) Stderr() io.Writer {
	return v.vertex.Stderr()
}

// Log records a structured log message associated with this vertex.
func (v *Vertex) Log(level domain.LogLevel, msg string) {
	_, _ = fmt.Fprintf(v.vertex.Stdout(), "[%s] %s\n", level.String(), msg)
}

// Complete marks the vertex as finished (successfully or with an error).
func (v *Vertex) Complete(err error) {
	v.vertex.Done(err)
	if v.logger == nil {
		return
	}
	v.logger.
		WithField("vertex", v.name).
		WithField("duration", time.Since(v.started).String()).
		WithField("cached", v.cached).
		WithField("failed", err != nil).
		Debug("vertex completed")
}

// Cached marks the vertex as a cache hit.
func (v *Vertex) Cached() {
	v.cached = true
	v.vertex.Cached()
}
