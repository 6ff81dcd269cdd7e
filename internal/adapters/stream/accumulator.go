// Package stream provides readers that bound and supervise remote transfers.
package stream

import (
	"bytes"
	"io"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/zerr"
)

// Accumulator buffers an entire inbound stream before serving any of it, so consumers
// never observe a partially received artifact.
type Accumulator struct {
	src    io.Reader
	limit  int64
	buf    *bytes.Reader
	err    error
	loaded bool
}

// NewAccumulator wraps r. A positive limit fails the stream with
// domain.ErrSizeLimitExceeded once more than limit bytes arrive.
func NewAccumulator(r io.Reader, limit int64) *Accumulator {
	return &Accumulator{src: r, limit: limit}
}

// Read drains the source on first call and then serves the buffered bytes.
func (a *Accumulator) Read(p []byte) (int, error) {
	if !a.loaded {
		a.load()
	}
	if a.err != nil {
		return 0, a.err
	}
	return a.buf.Read(p)
}

// Bytes drains the source and returns everything it produced.
func (a *Accumulator) Bytes() ([]byte, error) {
	if !a.loaded {
		a.load()
	}
	if a.err != nil {
		return nil, a.err
	}
	data := make([]byte, a.buf.Len())
	_, _ = a.buf.Read(data)
	_, _ = a.buf.Seek(0, io.SeekStart)
	return data, nil
}

func (a *Accumulator) load() {
	a.loaded = true

	src := a.src
	if a.limit > 0 {
		src = io.LimitReader(a.src, a.limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		a.err = zerr.Wrap(err, "failed to receive stream")
		return
	}
	if a.limit > 0 && int64(len(data)) > a.limit {
		a.err = zerr.With(zerr.Wrap(domain.ErrSizeLimitExceeded, "stream exceeds size limit"), "limit", a.limit)
		return
	}
	a.buf = bytes.NewReader(data)
}
