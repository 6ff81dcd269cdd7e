// Package config provides the configuration loader for backfill.
package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
)

// Environment variables that override file settings.
const (
	EnvCacheProvider        = domain.EnvPrefix + "_CACHE_PROVIDER"
	EnvCacheProviderOptions = domain.EnvPrefix + "_CACHE_PROVIDER_OPTIONS"
	EnvOutputGlob           = domain.EnvPrefix + "_OUTPUT_GLOB"
	EnvMode                 = domain.EnvPrefix + "_MODE"
	EnvInternalCacheFolder  = domain.EnvPrefix + "_INTERNAL_CACHE_FOLDER"
	EnvLogFolder            = domain.EnvPrefix + "_LOG_FOLDER"
	EnvLogLevel             = domain.EnvPrefix + "_LOG_LEVEL"
	EnvWatchGlob            = domain.EnvPrefix + "_WATCH_GLOB"
	EnvClearOutput          = domain.EnvPrefix + "_CLEAR_OUTPUT"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader on viper.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load resolves the configuration for the package at packageRoot. Config files are merged
// from the filesystem root down to packageRoot so nearer files win; environment variables
// override every file.
func (l *Loader) Load(_ context.Context, packageRoot string) (*domain.Config, error) {
	root, err := filepath.Abs(packageRoot)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve package root"), "path", packageRoot)
	}

	v := viper.New()
	setDefaults(v)

	files := findConfigFiles(root)
	for _, path := range files {
		if err := mergeFile(v, path); err != nil {
			return nil, err
		}
		l.Logger.WithField("path", path).Debug("merged config file")
	}

	if err := applyEnv(v); err != nil {
		return nil, err
	}

	var fc fileConfig
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&fc, viper.DecodeHook(hook)); err != nil {
		return nil, zerr.Wrap(domain.ErrInvalidConfig, "failed to decode configuration: "+err.Error())
	}

	cfg, err := toDomain(root, &fc)
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = manifestName(root)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cacheStorageConfig.provider", string(domain.ProviderLocal))
	v.SetDefault("cacheStorageConfig.options", map[string]any{})
	v.SetDefault("outputGlob", domain.DefaultOutputGlobs())
	v.SetDefault("mode", string(domain.ModeReadWrite))
	v.SetDefault("internalCacheFolder", domain.DefaultInternalCacheFolder)
	v.SetDefault("logFolder", domain.DefaultInternalCacheFolder)
	v.SetDefault("logLevel", "info")
	v.SetDefault("watchGlobs", []string{})
	v.SetDefault("clearOutput", false)
}

// findConfigFiles returns config files above and at dir, farthest first. At most one file
// per directory is used, following ConfigFileExtensions order.
func findConfigFiles(dir string) []string {
	var found []string
	for current := dir; ; {
		for _, ext := range ConfigFileExtensions {
			path := filepath.Join(current, domain.ConfigFileBaseName+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				found = append(found, path)
				break
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	slices.Reverse(found)
	return found
}

func mergeFile(v *viper.Viper, path string) error {
	file := viper.New()
	file.SetConfigFile(path)
	if err := file.ReadInConfig(); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "failed to read config file: "+err.Error()), "path", path)
	}
	if err := v.MergeConfigMap(file.AllSettings()); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "failed to merge config file: "+err.Error()), "path", path)
	}
	return nil
}

func applyEnv(v *viper.Viper) error {
	scalars := map[string]string{
		"cacheStorageConfig.provider": EnvCacheProvider,
		"mode":                        EnvMode,
		"internalCacheFolder":         EnvInternalCacheFolder,
		"logFolder":                   EnvLogFolder,
		"logLevel":                    EnvLogLevel,
		"clearOutput":                 EnvClearOutput,
	}
	for key, env := range scalars {
		if err := v.BindEnv(key, env); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to bind environment variable"), "env", env)
		}
	}

	if raw, ok := os.LookupEnv(EnvCacheProviderOptions); ok && strings.TrimSpace(raw) != "" {
		var opts map[string]any
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "provider options are not a JSON object"), "env", EnvCacheProviderOptions)
		}
		v.Set("cacheStorageConfig.options", opts)
	}
	for key, env := range map[string]string{"outputGlob": EnvOutputGlob, "watchGlobs": EnvWatchGlob} {
		if raw, ok := os.LookupEnv(env); ok && strings.TrimSpace(raw) != "" {
			list, err := parseList(raw)
			if err != nil {
				return zerr.With(err, "env", env)
			}
			v.Set(key, list)
		}
	}
	return nil
}

// parseList accepts a JSON array of strings or a comma separated list.
func parseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, zerr.Wrap(domain.ErrInvalidConfig, "list is not a JSON array of strings")
		}
		return list, nil
	}
	var list []string
	for item := range strings.SplitSeq(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list, nil
}

func toDomain(root string, fc *fileConfig) (*domain.Config, error) {
	cfg := domain.DefaultConfig(root)
	cfg.Name = fc.Name
	cfg.OutputGlobs = fc.OutputGlob
	cfg.InternalCacheFolder = fc.InternalCacheFolder
	cfg.LogFolder = fc.LogFolder
	cfg.WatchGlobs = fc.WatchGlobs
	cfg.ClearOutput = fc.ClearOutput

	mode, err := domain.ParseMode(fc.Mode)
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode

	level, err := domain.ParseLogLevel(fc.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	provider, err := domain.ParseProvider(fc.CacheStorageConfig.Provider)
	if err != nil {
		return nil, err
	}
	cfg.CacheStorage.Provider = provider
	if err := decodeOptions(&cfg.CacheStorage, fc.CacheStorageConfig.Options); err != nil {
		return nil, zerr.With(err, "provider", string(provider))
	}
	if cfg.CacheStorage.S3.StallTimeout <= 0 {
		cfg.CacheStorage.S3.StallTimeout = domain.DefaultStallTimeout
	}
	return &cfg, nil
}

// decodeOptions decodes the untyped options into the option struct of the selected provider.
func decodeOptions(s *domain.CacheStorageConfig, options map[string]any) error {
	var target any
	switch s.Provider {
	case domain.ProviderNpm:
		target = &s.Npm
	case domain.ProviderAzureBlob:
		target = &s.Azure
	case domain.ProviderS3:
		target = &s.S3
	default:
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return zerr.Wrap(err, "failed to create options decoder")
	}
	if err := dec.Decode(options); err != nil {
		return zerr.Wrap(domain.ErrInvalidConfig, "invalid provider options: "+err.Error())
	}
	return nil
}

// manifestName returns the package.json name in dir, or "" when there is none.
func manifestName(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, domain.ManifestFileName)) //nolint:gosec // Path is the package root
	if err != nil {
		return ""
	}
	var m domain.PackageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return ""
	}
	return m.Name
}
