package stream

import (
	"context"
	"io"
	"sync"
	"time"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/zerr"
)

const chunkSize = 32 * 1024

type chunk struct {
	data []byte
	err  error
}

// StallReader fails a transfer that stops producing data. A background goroutine forwards
// chunks from the source and arms the deadline only while it waits on the source, so a slow
// consumer never counts against the transfer.
type StallReader struct {
	ctx     context.Context
	src     io.Reader
	timeout time.Duration
	chunks  chan chunk
	stalled chan struct{}
	done    chan struct{}

	pending []byte
	err     error
	once    sync.Once
}

// NewStallReader starts forwarding r. A source read that takes longer than timeout fails
// the stream with domain.ErrTransferStalled.
func NewStallReader(ctx context.Context, r io.Reader, timeout time.Duration) *StallReader {
	s := &StallReader{
		ctx:     ctx,
		src:     r,
		timeout: timeout,
		chunks:  make(chan chunk),
		stalled: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *StallReader) pump() {
	timer := time.AfterFunc(s.timeout, func() { close(s.stalled) })
	defer timer.Stop()

	for {
		buf := make([]byte, chunkSize)
		n, err := s.src.Read(buf)
		if !timer.Stop() {
			return
		}
		select {
		case s.chunks <- chunk{data: buf[:n], err: err}:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
		timer.Reset(s.timeout)
	}
}

// Read returns forwarded bytes, the source's terminal error, or a stall error.
func (s *StallReader) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		select {
		case c := <-s.chunks:
			s.pending = c.data
			if c.err != nil {
				s.err = c.err
			}
		case <-s.stalled:
			s.err = zerr.With(zerr.Wrap(domain.ErrTransferStalled, "no data received before timeout"), "timeout", s.timeout.String())
		case <-s.ctx.Done():
			s.err = zerr.Wrap(s.ctx.Err(), "transfer cancelled")
		}
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Close stops the forwarding goroutine and closes the source when it is closable.
func (s *StallReader) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if c, ok := s.src.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
