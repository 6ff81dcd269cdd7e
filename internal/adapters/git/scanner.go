// Package git hashes repository files from the git index and working tree.
package git

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var _ ports.RepoScanner = (*Scanner)(nil)

// Scanner implements ports.RepoScanner on top of go-git. Object ids double as content
// hashes: unchanged files reuse the index, everything else is hashed from disk the same way.
type Scanner struct {
	sem *semaphore.Weighted
}

// NewScanner creates a Scanner bounded to domain.DefaultConcurrency open files.
func NewScanner() *Scanner {
	return &Scanner{sem: semaphore.NewWeighted(domain.DefaultConcurrency)}
}

// FindRoot returns the worktree root of the repository containing dir.
func (s *Scanner) FindRoot(_ context.Context, dir string) (string, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return "", zerr.With(zerr.Wrap(domain.ErrGitRootNotFound, "not inside a git repository"), "path", dir)
		}
		return "", zerr.With(zerr.Wrap(err, "failed to open repository"), "path", dir)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrGitRootNotFound, err.Error()), "path", dir)
	}
	return wt.Filesystem.Root(), nil
}

// HashTracked hashes every tracked file and every untracked, non-ignored file under root.
func (s *Scanner) HashTracked(ctx context.Context, root string) (map[string]string, error) {
	repo, err := gogit.PlainOpen(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open repository"), "path", root)
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read git index"), "path", root)
	}

	hashes := make(map[string]string, len(idx.Entries))
	for _, e := range idx.Entries {
		hashes[e.Name] = e.Hash.String()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open worktree"), "path", root)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to compute worktree status"), "path", root)
	}

	var dirty []string
	for name, st := range status {
		switch {
		case st.Worktree == gogit.Deleted || (st.Staging == gogit.Deleted && st.Worktree != gogit.Untracked):
			delete(hashes, name)
		case st.Worktree == gogit.Modified, st.Worktree == gogit.Untracked, st.Staging == gogit.Added,
			st.Staging == gogit.Modified, st.Worktree == gogit.Renamed, st.Staging == gogit.Renamed:
			dirty = append(dirty, name)
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range dirty {
		if err := s.sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer s.sem.Release(1)
			sum, err := HashFile(filepath.Join(root, filepath.FromSlash(name)))
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					mu.Lock()
					delete(hashes, name)
					mu.Unlock()
					return nil
				}
				return err
			}
			mu.Lock()
			hashes[name] = sum
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, zerr.Wrap(err, "hashing cancelled")
	}
	return hashes, nil
}

// HashFile returns the git blob id of the file at path. Symlinks hash their target path.
func HashFile(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to read symlink"), "path", path)
		}
		h := plumbing.NewHasher(plumbing.BlobObject, int64(len(target)))
		_, _ = h.Write([]byte(target))
		return h.Sum().String(), nil
	}

	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	h := plumbing.NewHasher(plumbing.BlobObject, info.Size())
	if _, err := io.Copy(h, f); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}
	return h.Sum().String(), nil
}
