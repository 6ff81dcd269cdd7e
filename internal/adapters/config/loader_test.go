package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/backfill/internal/adapters/config"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().WithField(gomock.Any(), gomock.Any()).Return(log).AnyTimes()
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return config.NewLoader(log)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	pkg := t.TempDir()
	writeFile(t, filepath.Join(pkg, "package.json"), `{"name": "@scope/app"}`)

	cfg, err := newLoader(t).Load(context.Background(), pkg)
	require.NoError(t, err)

	assert.Equal(t, "@scope/app", cfg.Name)
	assert.Equal(t, pkg, cfg.PackageRoot)
	assert.Equal(t, domain.ProviderLocal, cfg.CacheStorage.Provider)
	assert.Equal(t, []string{"lib/**"}, cfg.OutputGlobs)
	assert.Equal(t, domain.ModeReadWrite, cfg.Mode)
	assert.Equal(t, domain.DefaultInternalCacheFolder, cfg.InternalCacheFolder)
	assert.Equal(t, domain.LogLevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.WatchGlobs)
	assert.False(t, cfg.ClearOutput)
	assert.Equal(t, domain.DefaultStallTimeout, cfg.CacheStorage.S3.StallTimeout)
}

func TestLoad_NearerFilesOverride(t *testing.T) {
	repo := t.TempDir()
	pkg := filepath.Join(repo, "packages", "app")

	writeFile(t, filepath.Join(repo, "backfill.config.yaml"), `
outputGlob: ["dist/**"]
mode: READ_ONLY
cacheStorageConfig:
  provider: s3
  options:
    bucket: shared-cache
    region: eu-west-1
    stallTimeout: 5s
`)
	writeFile(t, filepath.Join(pkg, "backfill.config.json"), `{
  "mode": "WRITE_ONLY",
  "cacheStorageConfig": {"options": {"prefix": "app/", "maxSize": 1024}}
}`)

	cfg, err := newLoader(t).Load(context.Background(), pkg)
	require.NoError(t, err)

	assert.Equal(t, []string{"dist/**"}, cfg.OutputGlobs)
	assert.Equal(t, domain.ModeWriteOnly, cfg.Mode)
	assert.Equal(t, domain.ProviderS3, cfg.CacheStorage.Provider)
	assert.Equal(t, "shared-cache", cfg.CacheStorage.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.CacheStorage.S3.Region)
	assert.Equal(t, "app/", cfg.CacheStorage.S3.Prefix)
	assert.Equal(t, int64(1024), cfg.CacheStorage.S3.MaxSize)
	assert.Equal(t, 5*time.Second, cfg.CacheStorage.S3.StallTimeout)
}

func TestLoad_EnvironmentOverridesFiles(t *testing.T) {
	pkg := t.TempDir()
	writeFile(t, filepath.Join(pkg, "backfill.config.yml"), `
mode: READ_ONLY
outputGlob: ["dist/**"]
logLevel: warn
`)

	t.Setenv(config.EnvMode, "pass")
	t.Setenv(config.EnvOutputGlob, `["out/**", "!out/*.map"]`)
	t.Setenv(config.EnvWatchGlob, "src/**, test/**")
	t.Setenv(config.EnvLogLevel, "verbose")
	t.Setenv(config.EnvClearOutput, "true")
	t.Setenv(config.EnvCacheProvider, "npm")
	t.Setenv(config.EnvCacheProviderOptions, `{"npmPackageName": "@scope/cache", "registryUrl": "https://npm.example.com"}`)

	cfg, err := newLoader(t).Load(context.Background(), pkg)
	require.NoError(t, err)

	assert.Equal(t, domain.ModePass, cfg.Mode)
	assert.Equal(t, []string{"out/**", "!out/*.map"}, cfg.OutputGlobs)
	assert.Equal(t, []string{"src/**", "test/**"}, cfg.WatchGlobs)
	assert.Equal(t, domain.LogLevelDebug, cfg.LogLevel)
	assert.True(t, cfg.ClearOutput)
	assert.Equal(t, domain.ProviderNpm, cfg.CacheStorage.Provider)
	assert.Equal(t, "@scope/cache", cfg.CacheStorage.Npm.PackageName)
	assert.Equal(t, "https://npm.example.com", cfg.CacheStorage.Npm.RegistryURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr error
	}{
		{
			name:    "invalid mode",
			file:    "mode: SOMETIMES\n",
			wantErr: domain.ErrInvalidMode,
		},
		{
			name:    "unknown provider",
			file:    "cacheStorageConfig:\n  provider: ftp\n",
			wantErr: domain.ErrUnknownProvider,
		},
		{
			name:    "missing provider option",
			file:    "cacheStorageConfig:\n  provider: azure-blob\n",
			wantErr: domain.ErrMissingProviderOption,
		},
		{
			name:    "malformed file",
			file:    "mode: [unterminated\n",
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name:    "options env is not json",
			env:     map[string]string{config.EnvCacheProviderOptions: "bucket=x"},
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name:    "invalid log level",
			env:     map[string]string{config.EnvLogLevel: "loud"},
			wantErr: domain.ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := t.TempDir()
			if tt.file != "" {
				writeFile(t, filepath.Join(pkg, "backfill.config.yaml"), tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := newLoader(t).Load(context.Background(), pkg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_ExplicitNameWins(t *testing.T) {
	pkg := t.TempDir()
	writeFile(t, filepath.Join(pkg, "package.json"), `{"name": "from-manifest"}`)
	writeFile(t, filepath.Join(pkg, "backfill.config.yaml"), "name: from-config\n")

	cfg, err := newLoader(t).Load(context.Background(), pkg)
	require.NoError(t, err)
	assert.Equal(t, "from-config", cfg.Name)
}
