package app_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/backfill/internal/adapters/fs"
	"go.trai.ch/backfill/internal/adapters/git"
	"go.trai.ch/backfill/internal/adapters/lockfile"
	"go.trai.ch/backfill/internal/adapters/logger"
	"go.trai.ch/backfill/internal/adapters/storage"
	"go.trai.ch/backfill/internal/adapters/telemetry"
	"go.trai.ch/backfill/internal/adapters/workspace"
	"go.trai.ch/backfill/internal/app"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports/mocks"
	"go.trai.ch/backfill/internal/engine/hasher"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	pkg      string
	loader   *mocks.MockConfigLoader
	executor *mocks.MockBuildCommand
	app      *app.App
}

// newFixture lays out a standalone package hashed through watch globs, so no git
// repository is needed.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	pkg := t.TempDir()
	writeFile(t, pkg, "package.json", `{"name": "app"}`)
	writeFile(t, pkg, "src/index.ts", "export const a = 1")

	log := logger.NewWithWriter(io.Discard)
	walker := fs.NewWalker()
	resolver := fs.NewResolver(walker)
	tel := telemetry.NewNoOp()

	hashers := hasher.NewFactory(workspace.NewResolver(log), lockfile.NewParser(), git.NewScanner(), fs.NewHasher(resolver), log)
	storages := storage.NewFactory(resolver, tel, log)

	f := &fixture{
		pkg:      pkg,
		loader:   mocks.NewMockConfigLoader(ctrl),
		executor: mocks.NewMockBuildCommand(ctrl),
	}
	f.app = app.New(f.loader, hashers, storages, f.executor, resolver, tel, log)
	return f
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func (f *fixture) expectConfig(mutate func(*domain.Config)) {
	f.loader.EXPECT().Load(gomock.Any(), f.pkg).DoAndReturn(func(context.Context, string) (*domain.Config, error) {
		cfg := domain.DefaultConfig(f.pkg)
		cfg.Name = "app"
		cfg.WatchGlobs = []string{"src/**", "package.json"}
		if mutate != nil {
			mutate(&cfg)
		}
		return &cfg, nil
	}).AnyTimes()
}

func (f *fixture) build() func(context.Context, string, string) error {
	return func(_ context.Context, dir, _ string) error {
		p := filepath.Join(dir, "lib", "index.js")
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return err
		}
		return os.WriteFile(p, []byte("built"), 0o600)
	}
}

func TestApp_RunMissThenHit(t *testing.T) {
	f := newFixture(t)
	f.expectConfig(nil)
	f.executor.EXPECT().Run(gomock.Any(), f.pkg, "tsc").DoAndReturn(f.build()).Times(1)

	first, err := f.app.Run(context.Background(), app.RunOptions{Cwd: f.pkg, Command: "tsc"})
	require.NoError(t, err)
	assert.False(t, first.Hit)
	assert.True(t, first.Built)

	require.NoError(t, os.RemoveAll(filepath.Join(f.pkg, "lib")))

	second, err := f.app.Run(context.Background(), app.RunOptions{Cwd: f.pkg, Command: "tsc"})
	require.NoError(t, err)
	assert.True(t, second.Hit)
	assert.False(t, second.Built)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.FileExists(t, filepath.Join(f.pkg, "lib", "index.js"))
}

func TestApp_RunModeOverride(t *testing.T) {
	f := newFixture(t)
	f.expectConfig(nil)
	f.executor.EXPECT().Run(gomock.Any(), f.pkg, "tsc").DoAndReturn(f.build()).Times(2)

	for range 2 {
		res, err := f.app.Run(context.Background(), app.RunOptions{Cwd: f.pkg, Command: "tsc", Mode: "READ_ONLY"})
		require.NoError(t, err)
		assert.False(t, res.Hit)
	}
	entries, err := os.ReadDir(filepath.Join(f.pkg, "node_modules", ".cache", "backfill"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, e.IsDir(), "READ_ONLY must not create cache entries, found %s", e.Name())
	}
}

func TestApp_RunInvalidOverride(t *testing.T) {
	f := newFixture(t)
	f.expectConfig(nil)

	_, err := f.app.Run(context.Background(), app.RunOptions{Cwd: f.pkg, Command: "tsc", Mode: "SOMETIMES"})
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestApp_HashDependsOnCommand(t *testing.T) {
	f := newFixture(t)
	f.expectConfig(nil)

	a, err := f.app.Hash(context.Background(), app.RunOptions{Cwd: f.pkg, Command: "tsc"})
	require.NoError(t, err)
	b, err := f.app.Hash(context.Background(), app.RunOptions{Cwd: f.pkg, Command: "tsc --build"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NoError(t, a.Validate())
}

func TestApp_CustomStorage(t *testing.T) {
	f := newFixture(t)
	f.expectConfig(func(c *domain.Config) { c.CacheStorage.Provider = domain.ProviderCustom })

	custom := mocks.NewMockCacheStorage(gomock.NewController(t))
	custom.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(true, nil)
	f.app.WithCustomStorage(custom)

	res, err := f.app.Run(context.Background(), app.RunOptions{Cwd: f.pkg, Command: "tsc"})
	require.NoError(t, err)
	assert.True(t, res.Hit)
}

func TestApp_Clean(t *testing.T) {
	f := newFixture(t)
	f.expectConfig(nil)
	writeFile(t, f.pkg, "node_modules/.cache/backfill/abc123/lib/index.js", "cached")

	require.NoError(t, f.app.Clean(context.Background(), f.pkg))
	assert.NoDirExists(t, filepath.Join(f.pkg, "node_modules", ".cache", "backfill"))
	assert.FileExists(t, filepath.Join(f.pkg, "src", "index.ts"))
}
