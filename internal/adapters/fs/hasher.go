package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.GlobHasher = (*Hasher)(nil)

// Hasher hashes the content of files selected by watch globs.
type Hasher struct {
	resolver *Resolver
	limit    int
}

// NewHasher creates a new Hasher bounded to domain.DefaultConcurrency open files.
func NewHasher(resolver *Resolver) *Hasher {
	return &Hasher{resolver: resolver, limit: domain.DefaultConcurrency}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(p string) (uint64, error) {
	f, err := os.Open(p) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", p)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", p)
	}

	return hasher.Sum64(), nil
}

// HashGlobs hashes every file matched by globs under dir. Keys are slash separated paths
// relative to base so they line up with repository-wide hashes.
func (h *Hasher) HashGlobs(ctx context.Context, base, dir string, globs []string) (map[string]string, error) {
	files, err := h.resolver.Resolve(dir, globs)
	if err != nil {
		return nil, err
	}

	prefix, err := filepath.Rel(base, dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "package is outside the hashing root"), "path", dir)
	}
	prefix = filepath.ToSlash(prefix)

	sums := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.limit)
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := h.ComputeFileHash(filepath.Join(dir, filepath.FromSlash(rel)))
			if err != nil {
				return err
			}
			sums[i] = fmt.Sprintf("%016x", sum)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(files))
	for i, rel := range files {
		out[path.Join(prefix, rel)] = sums[i]
	}
	return out, nil
}
