// Package storage adapts cache backends to ports.CacheStorage and selects them from config.
package storage

import (
	"context"
	"time"

	fsutil "go.trai.ch/backfill/internal/adapters/fs"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
)

// Backend is a cache provider that works on already resolved output files.
type Backend interface {
	// Fetch restores the entry stored under fp into the package root.
	Fetch(ctx context.Context, fp domain.Fingerprint) (bool, error)

	// Put stores files, given as slash separated paths relative to the package root, under fp.
	Put(ctx context.Context, fp domain.Fingerprint, files []string) error
}

var _ ports.CacheStorage = (*Instrumented)(nil)

// Instrumented is the layer every backend shares: it resolves output globs, rejects empty
// outputs and records each operation.
type Instrumented struct {
	name        string
	backend     Backend
	packageRoot string
	resolver    ports.OutputResolver
	telemetry   ports.Telemetry
	logger      ports.Logger
}

// NewInstrumented wraps backend for the package at packageRoot.
func NewInstrumented(
	name string,
	backend Backend,
	packageRoot string,
	resolver ports.OutputResolver,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Instrumented {
	return &Instrumented{
		name:        name,
		backend:     backend,
		packageRoot: packageRoot,
		resolver:    resolver,
		telemetry:   telemetry,
		logger:      logger,
	}
}

// Fetch restores the entry for fp. A miss is false without an error.
func (s *Instrumented) Fetch(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	if err := fp.Validate(); err != nil {
		return false, err
	}

	ctx, vertex := s.telemetry.Record(ctx, "fetch "+fp.Short())
	start := time.Now()

	hit, err := s.backend.Fetch(ctx, fp)
	if hit && err == nil {
		vertex.Cached()
	}
	vertex.Complete(err)

	s.logger.WithField("provider", s.name).
		WithField("fingerprint", fp.Short()).
		WithField("hit", hit).
		WithField("duration", time.Since(start).String()).
		Debug("cache fetch finished")

	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "cache fetch failed"), "provider", s.name)
	}
	return hit, nil
}

// Put stores the files matched by outputGlobs under fp. Nothing is written when no file
// matches.
func (s *Instrumented) Put(ctx context.Context, fp domain.Fingerprint, outputGlobs []string) error {
	if err := fp.Validate(); err != nil {
		return err
	}

	files, err := s.resolver.Resolve(s.packageRoot, outputGlobs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return zerr.With(zerr.Wrap(domain.ErrNoOutputFound, "output globs matched no files"), "globs", outputGlobs)
	}

	ctx, vertex := s.telemetry.Record(ctx, "put "+fp.Short())
	start := time.Now()

	err = s.backend.Put(ctx, fp, files)
	vertex.Complete(err)

	s.logger.WithField("provider", s.name).
		WithField("fingerprint", fp.Short()).
		WithField("files", len(files)).
		WithField("bytes", fsutil.TotalSize(s.packageRoot, files)).
		WithField("duration", time.Since(start).String()).
		Debug("cache put finished")

	if err != nil {
		return zerr.With(zerr.Wrap(err, "cache put failed"), "provider", s.name)
	}
	return nil
}
