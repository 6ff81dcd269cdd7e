package hasher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// RepoInfoCache computes repository-wide inputs once per repository root. Lookups match
// any package root below a cached root, and construction is single-flight.
type RepoInfoCache struct {
	workspace ports.WorkspaceResolver
	lockfile  ports.LockfileParser
	scanner   ports.RepoScanner
	useGlobs  bool

	mu      sync.RWMutex
	entries map[string]*domain.RepoInfo

	// Weight one admits a single builder at a time in arrival order.
	build *semaphore.Weighted
}

// NewRepoInfoCache creates an empty cache. With useGlobs set, file hashes come from watch
// globs instead of version control, and a repository is optional.
func NewRepoInfoCache(
	workspace ports.WorkspaceResolver,
	lockfile ports.LockfileParser,
	scanner ports.RepoScanner,
	useGlobs bool,
) *RepoInfoCache {
	return &RepoInfoCache{
		workspace: workspace,
		lockfile:  lockfile,
		scanner:   scanner,
		useGlobs:  useGlobs,
		entries:   make(map[string]*domain.RepoInfo),
		build:     semaphore.NewWeighted(1),
	}
}

// Get returns the RepoInfo covering packageRoot, computing it on first use.
func (c *RepoInfoCache) Get(ctx context.Context, packageRoot string) (*domain.RepoInfo, error) {
	if info := c.lookup(packageRoot); info != nil {
		return info, nil
	}

	if err := c.build.Acquire(ctx, 1); err != nil {
		return nil, zerr.Wrap(err, "waiting for repository scan")
	}
	defer c.build.Release(1)

	if info := c.lookup(packageRoot); info != nil {
		return info, nil
	}

	info, err := c.compute(ctx, packageRoot)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[info.Root] = info
	c.mu.Unlock()
	return info, nil
}

// lookup returns the entry with the longest root that contains packageRoot.
func (c *RepoInfoCache) lookup(packageRoot string) *domain.RepoInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *domain.RepoInfo
	for root, info := range c.entries {
		if !within(root, packageRoot) {
			continue
		}
		if best == nil || len(root) > len(best.Root) {
			best = info
		}
	}
	return best
}

func within(root, p string) bool {
	if p == root {
		return true
	}
	if strings.HasSuffix(root, string(filepath.Separator)) {
		return strings.HasPrefix(p, root)
	}
	return strings.HasPrefix(p, root+string(filepath.Separator))
}

func (c *RepoInfoCache) compute(ctx context.Context, packageRoot string) (*domain.RepoInfo, error) {
	root, err := c.scanner.FindRoot(ctx, packageRoot)
	if err != nil {
		if !c.useGlobs || !errors.Is(err, domain.ErrGitRootNotFound) {
			return nil, err
		}
		root = ""
	}

	ws, err := c.workspace.Discover(ctx, packageRoot)
	if err != nil {
		return nil, err
	}
	if root == "" {
		root = ws.Root
	}

	info := &domain.RepoInfo{Root: root, Workspace: ws}
	info.Lock, info.LockErr = c.lockfile.Parse(ctx, packageRoot)
	if info.LockErr != nil && !errors.Is(info.LockErr, domain.ErrLockFileNotFound) {
		return nil, info.LockErr
	}

	if !c.useGlobs {
		hashes, err := c.scanner.HashTracked(ctx, root)
		if err != nil {
			return nil, err
		}
		info.FileHashes = hashes
	}
	return info, nil
}

// absRoot resolves dir the way cache keys are resolved.
func absRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve package root"), "path", dir)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", zerr.With(zerr.Wrap(err, "package root is not accessible"), "path", abs)
	}
	return abs, nil
}
