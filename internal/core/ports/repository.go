package ports

import "context"

// RepoScanner hashes the files tracked by version control.
//
//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks
type RepoScanner interface {
	// FindRoot returns the root of the repository containing dir, or domain.ErrGitRootNotFound.
	FindRoot(ctx context.Context, dir string) (string, error)

	// HashTracked returns content hashes for every tracked, non-deleted file under root,
	// keyed by slash separated path relative to root. Modified and untracked but not
	// ignored files are hashed from the working tree.
	HashTracked(ctx context.Context, root string) (map[string]string, error)
}
