package ports

import "context"

// OutputResolver expands output globs against a package root.
//
//go:generate mockgen -destination=mocks/resolver_mock.go -package=mocks -source=resolver.go
type OutputResolver interface {
	// Resolve returns the sorted slash separated paths, relative to root, of regular files
	// matched by globs. Globs prefixed with "!" exclude matches.
	Resolve(root string, globs []string) ([]string, error)
}

// GlobHasher hashes files selected by watch globs when version control is not used.
type GlobHasher interface {
	// HashGlobs returns content hashes for the files matched by globs under dir, keyed
	// by slash separated path relative to base.
	HashGlobs(ctx context.Context, base, dir string, globs []string) (map[string]string, error)
}
