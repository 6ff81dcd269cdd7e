package storage

import (
	"net/http"
	"path/filepath"

	"go.trai.ch/backfill/internal/adapters/storage/azure"
	"go.trai.ch/backfill/internal/adapters/storage/local"
	"go.trai.ch/backfill/internal/adapters/storage/npm"
	"go.trai.ch/backfill/internal/adapters/storage/s3"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
)

// Factory builds the storage selected by a configuration.
type Factory struct {
	resolver  ports.OutputResolver
	telemetry ports.Telemetry
	logger    ports.Logger
	client    *http.Client
	custom    ports.CacheStorage
}

// NewFactory creates a Factory.
func NewFactory(resolver ports.OutputResolver, telemetry ports.Telemetry, logger ports.Logger) *Factory {
	return &Factory{
		resolver:  resolver,
		telemetry: telemetry,
		logger:    logger,
		client:    http.DefaultClient,
	}
}

// WithCustom sets the backend used by the custom provider.
func (f *Factory) WithCustom(custom ports.CacheStorage) *Factory {
	f.custom = custom
	return f
}

// WithHTTPClient sets the client used by registry backends.
func (f *Factory) WithHTTPClient(client *http.Client) *Factory {
	f.client = client
	return f
}

// New returns the storage for cfg, instrumented and gated by cfg.Mode.
func (f *Factory) New(cfg *domain.Config) (*ModeStorage, error) {
	if err := cfg.CacheStorage.Validate(); err != nil {
		return nil, err
	}

	provider := cfg.CacheStorage.Provider
	if provider == domain.ProviderCustom {
		if f.custom == nil {
			return nil, zerr.Wrap(domain.ErrCustomStorageNotSet, "provider custom selected")
		}
		return WithMode(f.custom, cfg.Mode), nil
	}

	backend, err := f.backend(cfg)
	if err != nil {
		return nil, zerr.With(err, "provider", string(provider))
	}

	log := f.logger.WithField("provider", string(provider))
	instrumented := NewInstrumented(string(provider), backend, cfg.PackageRoot, f.resolver, f.telemetry, log)
	return WithMode(instrumented, cfg.Mode), nil
}

func (f *Factory) backend(cfg *domain.Config) (Backend, error) {
	opts := cfg.CacheStorage
	cacheRoot := cfg.CacheFolder()
	log := f.logger.WithField("provider", string(opts.Provider))

	switch opts.Provider {
	case domain.ProviderLocal:
		return local.New(cfg.PackageRoot, cacheRoot, log), nil

	case domain.ProviderLocalSkip:
		return local.NewSkip(cfg.PackageRoot, cacheRoot, log), nil

	case domain.ProviderNpm:
		npmOpts := npm.Options{
			PackageName: opts.Npm.PackageName,
			RegistryURL: opts.Npm.RegistryURL,
			AuthToken:   opts.Npm.AuthToken,
		}
		if npmOpts.RegistryURL == "" {
			npmOpts.RegistryURL = npm.DefaultRegistry
		}
		if npmOpts.AuthToken == "" && opts.Npm.NpmrcUserconfig != "" {
			token, err := npm.TokenFromNpmrc(opts.Npm.NpmrcUserconfig, npmOpts.RegistryURL)
			if err != nil {
				return nil, err
			}
			npmOpts.AuthToken = token
		}
		scratch := filepath.Join(cacheRoot, domain.NpmScratchDirName)
		return npm.New(npmOpts, cfg.PackageRoot, scratch, f.client, log), nil

	case domain.ProviderAzureBlob:
		client, err := azure.NewClient(opts.Azure.ConnectionString)
		if err != nil {
			return nil, err
		}
		return azure.New(client, azure.Options{
			Container: opts.Azure.Container,
			MaxSize:   opts.Azure.MaxSize,
		}, cfg.PackageRoot, log), nil

	case domain.ProviderS3:
		getter, uploader, err := s3.NewClients(opts.S3)
		if err != nil {
			return nil, err
		}
		return s3.New(getter, uploader, s3.Options{
			Bucket:       opts.S3.Bucket,
			Prefix:       opts.S3.Prefix,
			MaxSize:      opts.S3.MaxSize,
			StallTimeout: opts.S3.StallTimeout,
		}, cfg.PackageRoot, cacheRoot, log), nil

	default:
		return nil, zerr.Wrap(domain.ErrUnknownProvider, "unsupported provider")
	}
}
