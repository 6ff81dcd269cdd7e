// Package app implements the application layer for backfill.
package app

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/backfill/internal/adapters/storage" //nolint:depguard // Wired in app layer
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/backfill/internal/engine/hasher"
	"go.trai.ch/backfill/internal/engine/orchestrator"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	hashers      *hasher.Factory
	storages     *storage.Factory
	executor     ports.BuildCommand
	resolver     ports.OutputResolver
	telemetry    ports.Telemetry
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	hashers *hasher.Factory,
	storages *storage.Factory,
	executor ports.BuildCommand,
	resolver ports.OutputResolver,
	telemetry ports.Telemetry,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		hashers:      hashers,
		storages:     storages,
		executor:     executor,
		resolver:     resolver,
		telemetry:    telemetry,
		logger:       log,
	}
}

// WithCustomStorage injects the backend used when the provider is "custom".
func (a *App) WithCustomStorage(s ports.CacheStorage) *App {
	a.storages.WithCustom(s)
	return a
}

// RunOptions carries command line overrides. Empty fields keep the configured value.
type RunOptions struct {
	Cwd         string
	Command     string
	Mode        string
	OutputGlobs []string
	LogLevel    string
}

// Run builds the package at opts.Cwd through the cache.
func (a *App) Run(ctx context.Context, opts RunOptions) (*orchestrator.Result, error) {
	cfg, orch, err := a.prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	res, err := orch.Run(ctx, orchestrator.Invocation{
		PackageRoot: cfg.PackageRoot,
		Command:     opts.Command,
		OutputGlobs: cfg.OutputGlobs,
		Mode:        cfg.Mode,
		ClearOutput: cfg.ClearOutput,
	})
	if err != nil {
		return res, err
	}

	a.logger.WithField("package", cfg.Name).
		WithField("mode", cfg.Mode.String()).
		WithField("hit", res.Hit).
		WithField("hash", res.Timings.Hash.String()).
		WithField("fetch", res.Timings.Fetch.String()).
		WithField("build", res.Timings.Build.String()).
		WithField("put", res.Timings.Put.String()).
		Info("backfill finished")
	return res, nil
}

// Hash returns the fingerprint of building the package at opts.Cwd without building it.
func (a *App) Hash(ctx context.Context, opts RunOptions) (domain.Fingerprint, error) {
	cfg, orch, err := a.prepare(ctx, opts)
	if err != nil {
		return "", err
	}
	return orch.Hash(ctx, orchestrator.Invocation{
		PackageRoot: cfg.PackageRoot,
		Command:     opts.Command,
		OutputGlobs: cfg.OutputGlobs,
		Mode:        cfg.Mode,
	})
}

// ContentHash hashes the package at opts.Cwd and returns its content hash, which unlike the
// fingerprint does not depend on the build command.
func (a *App) ContentHash(ctx context.Context, opts RunOptions) (string, error) {
	if _, err := a.Hash(ctx, opts); err != nil {
		return "", err
	}
	cfg, err := a.loadConfig(ctx, opts)
	if err != nil {
		return "", err
	}
	return hasher.ReadContentHash(cfg.PackageRoot, cfg.InternalCacheFolder)
}

// Clean removes the internal cache folder of the package at cwd.
func (a *App) Clean(ctx context.Context, cwd string) error {
	cfg, err := a.loadConfig(ctx, RunOptions{Cwd: cwd})
	if err != nil {
		return err
	}

	folder := cfg.CacheFolder()
	a.logger.WithField("path", folder).Info("removing internal cache folder")
	if err := os.RemoveAll(folder); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove internal cache folder"), "path", folder)
	}
	return nil
}

func (a *App) prepare(ctx context.Context, opts RunOptions) (*domain.Config, *orchestrator.Orchestrator, error) {
	cfg, err := a.loadConfig(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	if err := a.logger.Configure(cfg.LogLevel, domain.ResolveFolder(cfg.PackageRoot, cfg.LogFolder)); err != nil {
		return nil, nil, zerr.Wrap(err, "failed to configure logger")
	}

	cache, err := a.storages.New(cfg)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to create cache storage")
	}

	h := a.hashers.For(hasher.Options{
		WatchGlobs:          cfg.WatchGlobs,
		InternalCacheFolder: cfg.InternalCacheFolder,
	})

	return cfg, orchestrator.New(h, cache, a.executor, a.resolver, a.telemetry, a.logger), nil
}

// loadConfig loads the configuration for opts.Cwd and applies the command line overrides.
func (a *App) loadConfig(ctx context.Context, opts RunOptions) (*domain.Config, error) {
	cwd := opts.Cwd
	if cwd == "" {
		cwd = "."
	}
	root, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "cwd", cwd)
	}

	cfg, err := a.configLoader.Load(ctx, root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	if opts.Mode != "" {
		mode, err := domain.ParseMode(opts.Mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode
	}
	if len(opts.OutputGlobs) > 0 {
		cfg.OutputGlobs = opts.OutputGlobs
	}
	if opts.LogLevel != "" {
		level, err := domain.ParseLogLevel(opts.LogLevel)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
