// Package orchestrator runs one cached build: hash, fetch, build and put, as the mode allows.
package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/backfill/internal/adapters/storage" //nolint:depguard // Mode overlay is applied per invocation
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
)

// Invocation describes one run.
type Invocation struct {
	PackageRoot string
	Command     string
	OutputGlobs []string
	Mode        domain.Mode
	// ClearOutput removes files matched by OutputGlobs before building.
	ClearOutput bool
}

// Timings holds the duration of each phase that ran.
type Timings struct {
	Hash  time.Duration
	Fetch time.Duration
	Build time.Duration
	Put   time.Duration
}

// Result reports what a run did.
type Result struct {
	Fingerprint domain.Fingerprint
	Hit         bool
	Built       bool
	Timings     Timings
}

// Orchestrator ties the hasher, the cache storage and the build command together.
type Orchestrator struct {
	hasher    ports.PackageHasher
	storage   ports.CacheStorage
	executor  ports.BuildCommand
	resolver  ports.OutputResolver
	telemetry ports.Telemetry
	logger    ports.Logger
}

// New creates an Orchestrator.
func New(
	hasher ports.PackageHasher,
	cache ports.CacheStorage,
	executor ports.BuildCommand,
	resolver ports.OutputResolver,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		hasher:    hasher,
		storage:   cache,
		executor:  executor,
		resolver:  resolver,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Run executes inv. A failed put is logged and does not fail the run; a failed build does.
func (o *Orchestrator) Run(ctx context.Context, inv Invocation) (*Result, error) {
	mode, err := domain.ParseMode(string(inv.Mode))
	if err != nil {
		return nil, err
	}
	inv.Mode = mode
	cache := storage.WithMode(o.storage, inv.Mode)
	res := &Result{}

	switch {
	case !inv.Mode.Hashes():
		if err := o.build(ctx, inv, res); err != nil {
			return res, err
		}

	case !inv.Mode.Fetches():
		if err := o.build(ctx, inv, res); err != nil {
			return res, err
		}
		if err := o.hash(ctx, inv, res); err != nil {
			return res, err
		}
		o.put(ctx, cache, inv, res)

	default:
		if err := o.hash(ctx, inv, res); err != nil {
			return res, err
		}
		if err := o.fetch(ctx, cache, res); err != nil {
			return res, err
		}
		if res.Hit {
			o.logger.WithField("fingerprint", res.Fingerprint.Short()).Info("cache hit, skipping build")
			return res, nil
		}
		if err := o.build(ctx, inv, res); err != nil {
			return res, err
		}
		o.put(ctx, cache, inv, res)
	}

	return res, nil
}

// Hash computes the fingerprint of inv without building or touching the cache.
func (o *Orchestrator) Hash(ctx context.Context, inv Invocation) (domain.Fingerprint, error) {
	res := &Result{}
	if err := o.hash(ctx, inv, res); err != nil {
		return "", err
	}
	return res.Fingerprint, nil
}

func (o *Orchestrator) hash(ctx context.Context, inv Invocation, res *Result) error {
	ctx, vertex := o.telemetry.Record(ctx, "hash")
	start := time.Now()

	fp, err := o.hasher.CreatePackageHash(ctx, inv.PackageRoot, inv.Command)
	res.Timings.Hash = time.Since(start)
	vertex.Complete(err)
	if err != nil {
		return zerr.Wrap(err, "failed to hash package")
	}

	res.Fingerprint = fp
	vertex.Log(domain.LogLevelDebug, "fingerprint "+fp.String())
	return nil
}

func (o *Orchestrator) fetch(ctx context.Context, cache ports.CacheStorage, res *Result) error {
	start := time.Now()
	hit, err := cache.Fetch(ctx, res.Fingerprint)
	res.Timings.Fetch = time.Since(start)
	if err != nil {
		return err
	}
	res.Hit = hit
	return nil
}

func (o *Orchestrator) build(ctx context.Context, inv Invocation, res *Result) error {
	if inv.ClearOutput {
		if err := o.clearOutput(inv); err != nil {
			return err
		}
	}

	ctx, vertex := o.telemetry.Record(ctx, "build")
	start := time.Now()

	err := o.executor.Run(ctx, inv.PackageRoot, inv.Command)
	res.Timings.Build = time.Since(start)
	vertex.Complete(err)
	if err != nil {
		return err
	}

	res.Built = true
	return nil
}

func (o *Orchestrator) put(ctx context.Context, cache ports.CacheStorage, inv Invocation, res *Result) {
	start := time.Now()
	err := cache.Put(ctx, res.Fingerprint, inv.OutputGlobs)
	res.Timings.Put = time.Since(start)
	if err != nil {
		o.logger.WithError(err).Warn("failed to store build output in cache")
	}
}

// clearOutput removes the files currently matched by the output globs.
func (o *Orchestrator) clearOutput(inv Invocation) error {
	files, err := o.resolver.Resolve(inv.PackageRoot, inv.OutputGlobs)
	if err != nil {
		return err
	}
	for _, rel := range files {
		path := filepath.Join(inv.PackageRoot, filepath.FromSlash(rel))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return zerr.With(zerr.Wrap(err, "failed to clear output"), "path", path)
		}
	}
	o.logger.WithField("files", len(files)).Debug("cleared previous output")
	return nil
}
