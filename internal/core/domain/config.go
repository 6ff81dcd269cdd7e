package domain

import (
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// Provider selects a cache storage backend.
type Provider string

const (
	// ProviderLocal stores artifacts in the package's internal cache folder.
	ProviderLocal Provider = "local"
	// ProviderLocalSkip writes like ProviderLocal but never reports a hit.
	ProviderLocalSkip Provider = "local-skip"
	// ProviderNpm publishes artifacts as synthetic versions of an npm package.
	ProviderNpm Provider = "npm"
	// ProviderAzureBlob stores artifacts as blobs in an Azure storage container.
	ProviderAzureBlob Provider = "azure-blob"
	// ProviderS3 stores artifacts as objects in an S3 bucket.
	ProviderS3 Provider = "s3"
	// ProviderCustom uses a backend injected by the embedding program.
	ProviderCustom Provider = "custom"
)

// ParseProvider validates a provider selector.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ProviderLocal, ProviderLocalSkip, ProviderNpm, ProviderAzureBlob, ProviderS3, ProviderCustom:
		return p, nil
	case "":
		return ProviderLocal, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrUnknownProvider, "unsupported provider"), "provider", s)
	}
}

// NpmOptions configures the npm registry backend.
type NpmOptions struct {
	PackageName     string `mapstructure:"npmPackageName"`
	RegistryURL     string `mapstructure:"registryUrl"`
	AuthToken       string `mapstructure:"authToken"`
	NpmrcUserconfig string `mapstructure:"npmrcUserconfig"`
}

// AzureBlobOptions configures the Azure Blob backend.
type AzureBlobOptions struct {
	ConnectionString string `mapstructure:"connectionString"`
	Container        string `mapstructure:"container"`
	MaxSize          int64  `mapstructure:"maxSize"`
}

// S3Options configures the S3 backend.
type S3Options struct {
	Bucket         string        `mapstructure:"bucket"`
	Region         string        `mapstructure:"region"`
	Endpoint       string        `mapstructure:"endpoint"`
	Prefix         string        `mapstructure:"prefix"`
	MaxSize        int64         `mapstructure:"maxSize"`
	ForcePathStyle bool          `mapstructure:"forcePathStyle"`
	StallTimeout   time.Duration `mapstructure:"stallTimeout"`
}

// CacheStorageConfig selects a backend and carries the options of the selected one.
type CacheStorageConfig struct {
	Provider Provider
	Npm      NpmOptions
	Azure    AzureBlobOptions
	S3       S3Options
}

// Config is the resolved configuration of one invocation. It is never mutated by the core.
type Config struct {
	Name                string
	PackageRoot         string
	CacheStorage        CacheStorageConfig
	OutputGlobs         []string
	Mode                Mode
	InternalCacheFolder string
	LogFolder           string
	LogLevel            LogLevel
	WatchGlobs          []string
	ClearOutput         bool
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig(packageRoot string) Config {
	return Config{
		PackageRoot:         packageRoot,
		CacheStorage:        CacheStorageConfig{Provider: ProviderLocal, S3: S3Options{StallTimeout: DefaultStallTimeout}},
		OutputGlobs:         DefaultOutputGlobs(),
		Mode:                ModeReadWrite,
		InternalCacheFolder: DefaultInternalCacheFolder,
		LogFolder:           DefaultInternalCacheFolder,
		LogLevel:            LogLevelInfo,
	}
}

// CacheFolder returns the absolute internal cache folder.
func (c *Config) CacheFolder() string {
	return ResolveFolder(c.PackageRoot, c.InternalCacheFolder)
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.PackageRoot == "" {
		return zerr.Wrap(ErrInvalidConfig, "package root is empty")
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if len(c.OutputGlobs) == 0 {
		return zerr.Wrap(ErrInvalidConfig, "output glob is empty")
	}
	if c.InternalCacheFolder == "" {
		return zerr.Wrap(ErrInvalidConfig, "internal cache folder is empty")
	}
	return c.CacheStorage.Validate()
}

// Validate checks that the selected provider has its required options.
func (s *CacheStorageConfig) Validate() error {
	missing := func(option string) error {
		return zerr.With(zerr.With(zerr.Wrap(ErrMissingProviderOption, "required option not set"),
			"provider", string(s.Provider)), "option", option)
	}
	switch s.Provider {
	case ProviderLocal, ProviderLocalSkip, ProviderCustom:
		return nil
	case ProviderNpm:
		if s.Npm.PackageName == "" {
			return missing("npmPackageName")
		}
	case ProviderAzureBlob:
		if s.Azure.ConnectionString == "" {
			return missing("connectionString")
		}
		if s.Azure.Container == "" {
			return missing("container")
		}
		if s.Azure.MaxSize < 0 {
			return zerr.Wrap(ErrInvalidConfig, "maxSize must not be negative")
		}
	case ProviderS3:
		if s.S3.Bucket == "" {
			return missing("bucket")
		}
		if s.S3.MaxSize < 0 {
			return zerr.Wrap(ErrInvalidConfig, "maxSize must not be negative")
		}
	default:
		return zerr.With(zerr.Wrap(ErrUnknownProvider, "unsupported provider"), "provider", string(s.Provider))
	}
	return nil
}
