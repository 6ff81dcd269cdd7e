// Package workspace discovers the packages of yarn, pnpm and rush monorepos.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.WorkspaceResolver = (*Resolver)(nil)

// marker pairs a root marker file with the routine that lists the packages it declares.
type marker struct {
	file    string
	manager domain.WorkspaceManager
	list    func(root string) ([]domain.PackageEntry, error)
}

// Resolver implements ports.WorkspaceResolver. Results are cached per workspace root for
// the lifetime of the instance.
type Resolver struct {
	logger  ports.Logger
	markers []marker

	mu    sync.Mutex
	cache map[string]*domain.WorkspaceInfo
}

// NewResolver creates a new Resolver.
func NewResolver(logger ports.Logger) *Resolver {
	return &Resolver{
		logger: logger,
		markers: []marker{
			{file: domain.YarnLockFileName, manager: domain.ManagerYarn, list: yarnPackages},
			{file: domain.PnpmWorkspaceFileName, manager: domain.ManagerPnpm, list: pnpmPackages},
			{file: domain.RushManifestFileName, manager: domain.ManagerRush, list: rushPackages},
		},
		cache: make(map[string]*domain.WorkspaceInfo),
	}
}

// Discover returns the workspace containing cwd.
func (r *Resolver) Discover(ctx context.Context, cwd string) (*domain.WorkspaceInfo, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve directory"), "path", cwd)
	}

	root, m, found := r.findRoot(ctx, abs)
	if !found {
		return domain.NewWorkspaceInfo(abs, domain.ManagerNone, nil), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ws, ok := r.cache[root]; ok {
		return ws, nil
	}

	entries, err := m.list(root)
	if err != nil {
		r.logger.WithField("root", root).WithField("manager", string(m.manager)).WithError(err).
			Debug("workspace discovery failed, continuing without workspace packages")
		entries = nil
	}

	ws := domain.NewWorkspaceInfo(root, m.manager, entries)
	r.cache[root] = ws
	return ws, nil
}

// findRoot walks upward from dir and returns the first directory holding a marker.
// Markers are checked in priority order within each directory.
func (r *Resolver) findRoot(ctx context.Context, dir string) (string, marker, bool) {
	for {
		if ctx.Err() != nil {
			return "", marker{}, false
		}
		for _, m := range r.markers {
			if _, err := os.Stat(filepath.Join(dir, m.file)); err == nil {
				return dir, m, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", marker{}, false
		}
		dir = parent
	}
}
