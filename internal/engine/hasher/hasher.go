// Package hasher computes build fingerprints from package contents and dependency graphs.
package hasher

import (
	"context"
	"crypto/sha1" //nolint:gosec // Content addressing, not security
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.PackageHasher = (*Hasher)(nil)

// Options carries the configuration that shapes hashing.
type Options struct {
	// WatchGlobs replaces version control as the source of package files when set.
	WatchGlobs []string

	// InternalCacheFolder is where the content hash is written, relative to the package root.
	InternalCacheFolder string
}

// Hasher implements ports.PackageHasher.
type Hasher struct {
	repos  *RepoInfoCache
	globs  ports.GlobHasher
	logger ports.Logger
	opts   Options

	mu    sync.RWMutex
	memo  map[string]*domain.PackageHashInfo
	group singleflight.Group
}

// New creates a Hasher with its own repository and package caches.
func New(
	workspace ports.WorkspaceResolver,
	lockfile ports.LockfileParser,
	scanner ports.RepoScanner,
	globs ports.GlobHasher,
	logger ports.Logger,
	opts Options,
) *Hasher {
	if opts.InternalCacheFolder == "" {
		opts.InternalCacheFolder = domain.DefaultInternalCacheFolder
	}
	return &Hasher{
		repos:  NewRepoInfoCache(workspace, lockfile, scanner, len(opts.WatchGlobs) > 0),
		globs:  globs,
		logger: logger,
		opts:   opts,
		memo:   make(map[string]*domain.PackageHashInfo),
	}
}

type pending struct {
	name string
	root string
}

// CreatePackageHash returns the fingerprint of running buildCommand in packageRoot. It
// covers the package, every workspace package it depends on transitively, and their
// resolved external dependencies.
func (h *Hasher) CreatePackageHash(ctx context.Context, packageRoot, buildCommand string) (domain.Fingerprint, error) {
	root, err := absRoot(packageRoot)
	if err != nil {
		return "", err
	}

	repo, err := h.repos.Get(ctx, root)
	if err != nil {
		return "", err
	}

	target, err := h.packageInfo(ctx, repo, root)
	if err != nil {
		return "", err
	}

	infos := []*domain.PackageHashInfo{target}
	visited := map[string]struct{}{target.Name: {}}
	queue := h.enqueue(nil, target, repo.Workspace, visited)

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		info, err := h.packageInfo(ctx, repo, next.root)
		if err != nil {
			return "", err
		}
		infos = append(infos, info)
		queue = h.enqueue(queue, info, repo.Workspace, visited)
	}

	fp := fingerprint(internalDigest(infos), buildCommand)

	if err := h.writeContentHash(root, target.ContentHash()); err != nil {
		h.logger.WithError(err).Warn("failed to persist content hash")
	}

	h.logger.WithField("package", target.Name).WithField("fingerprint", fp.Short()).
		WithField("packages", len(infos)).Debug("computed fingerprint")
	return fp, nil
}

func (h *Hasher) enqueue(
	queue []pending,
	info *domain.PackageHashInfo,
	ws *domain.WorkspaceInfo,
	visited map[string]struct{},
) []pending {
	for _, dep := range info.InternalDependencies {
		if _, seen := visited[dep]; seen {
			continue
		}
		entry, ok := ws.Lookup(dep)
		if !ok {
			continue
		}
		visited[dep] = struct{}{}
		queue = append(queue, pending{name: dep, root: entry.Path.String()})
	}
	return queue
}

// packageInfo returns the memoized hash info of the package at root.
func (h *Hasher) packageInfo(ctx context.Context, repo *domain.RepoInfo, root string) (*domain.PackageHashInfo, error) {
	h.mu.RLock()
	info, ok := h.memo[root]
	h.mu.RUnlock()
	if ok {
		return info, nil
	}

	v, err, _ := h.group.Do(root, func() (any, error) {
		h.mu.RLock()
		cached, ok := h.memo[root]
		h.mu.RUnlock()
		if ok {
			return cached, nil
		}

		computed, err := h.computePackageInfo(ctx, repo, root)
		if err != nil {
			return nil, err
		}

		h.mu.Lock()
		h.memo[root] = computed
		h.mu.Unlock()
		return computed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.PackageHashInfo), nil //nolint:forcetypeassert // Only this function stores values
}

func (h *Hasher) computePackageInfo(ctx context.Context, repo *domain.RepoInfo, root string) (*domain.PackageHashInfo, error) {
	manifest, err := ReadManifest(root)
	if err != nil {
		return nil, err
	}

	deps, err := h.dependencies(repo, root, manifest)
	if err != nil {
		return nil, err
	}

	files, err := h.fileHashes(ctx, repo, root)
	if err != nil {
		return nil, err
	}

	return &domain.PackageHashInfo{
		Name:                 manifest.Name,
		PackageRoot:          root,
		FilesHash:            HashFiles(keys(files), files),
		DependenciesHash:     dependenciesHash(deps.InternalDependencies, deps.ExternalDependencies),
		InternalDependencies: deps.InternalDependencies,
	}, nil
}

// dependencies classifies the manifest's dependencies and resolves the external ones
// through the lock file.
func (h *Hasher) dependencies(repo *domain.RepoInfo, root string, manifest *domain.PackageManifest) (*domain.PackageDepsInfo, error) {
	internal, external := Classify(manifest.AllDependencies(), repo.Workspace)
	deps := &domain.PackageDepsInfo{
		Name:                 manifest.Name,
		PackageRoot:          root,
		InternalDependencies: internal,
	}
	if len(external) == 0 {
		return deps, nil
	}

	if repo.LockErr != nil {
		return nil, zerr.With(zerr.Wrap(repo.LockErr, "external dependencies need a lock file"), "package", manifest.Name)
	}
	if repo.Lock.Status == domain.LockStatusMergeConflict {
		h.logger.WithField("lockfile", repo.Lock.Path).
			Warn("lock file has merge conflicts, dependency hashes may be inaccurate")
	}
	deps.ExternalDependencies = ExpandExternal(external, repo.Workspace, repo.Lock)
	return deps, nil
}

func (h *Hasher) fileHashes(ctx context.Context, repo *domain.RepoInfo, root string) (map[string]string, error) {
	repoHashes := repo.FileHashes
	if len(h.opts.WatchGlobs) > 0 {
		var err error
		repoHashes, err = h.globs.HashGlobs(ctx, repo.Root, root, h.opts.WatchGlobs)
		if err != nil {
			return nil, err
		}
	}

	files, err := packageFileHashes(repo.Root, root, h.opts.InternalCacheFolder, repoHashes)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "package is outside the repository"), "path", root)
	}
	return files, nil
}

func dependenciesHash(internal, external []string) string {
	all := append(slices.Clone(internal), external...)
	slices.Sort(all)

	h := sha1.New() //nolint:gosec // Content addressing, not security
	for _, d := range slices.Compact(all) {
		_, _ = h.Write([]byte(d))
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func internalDigest(infos []*domain.PackageHashInfo) string {
	sorted := slices.Clone(infos)
	slices.SortFunc(sorted, func(a, b *domain.PackageHashInfo) int {
		return strings.Compare(a.Name, b.Name)
	})

	h := sha1.New() //nolint:gosec // Content addressing, not security
	for _, info := range sorted {
		_, _ = h.Write([]byte(info.Name + "\x00" + info.FilesHash + "\x00" + info.DependenciesHash + "\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func fingerprint(digest, buildCommand string) domain.Fingerprint {
	cmd := sha1.Sum([]byte(buildCommand)) //nolint:gosec // Content addressing, not security

	h := sha1.New() //nolint:gosec // Content addressing, not security
	_, _ = h.Write([]byte(digest))
	_, _ = h.Write([]byte(hex.EncodeToString(cmd[:])))
	return domain.Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

func (h *Hasher) writeContentHash(root, sum string) error {
	p := domain.ContentHashPath(root, h.opts.InternalCacheFolder)
	if err := os.MkdirAll(filepath.Dir(p), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create cache folder"), "path", filepath.Dir(p))
	}
	if err := os.WriteFile(p, []byte(sum+"\n"), domain.FilePerm); err != nil { //nolint:gosec // Cache artifact is not secret
		return zerr.With(zerr.Wrap(err, "failed to write content hash"), "path", p)
	}
	return nil
}

// ReadContentHash returns the content hash stored below packageRoot's internal cache folder.
func ReadContentHash(packageRoot, internalCacheFolder string) (string, error) {
	p := domain.ContentHashPath(packageRoot, internalCacheFolder)
	data, err := os.ReadFile(p) //nolint:gosec // Path is derived from the package root
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to read content hash"), "path", p)
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadManifest reads the package.json in dir.
func ReadManifest(dir string) (*domain.PackageManifest, error) {
	p := filepath.Join(dir, domain.ManifestFileName)
	data, err := os.ReadFile(p) //nolint:gosec // Path is derived from the package root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrManifestNotFound, "package has no manifest"), "path", p)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", p)
	}

	var m domain.PackageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrManifestMalformed, err.Error()), "path", p)
	}
	return &m, nil
}
