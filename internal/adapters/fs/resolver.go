package fs

import (
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.OutputResolver = (*Resolver)(nil)

// Resolver expands doublestar globs into the files they match.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// Resolve returns the sorted, de-duplicated, slash separated paths relative to root of the
// regular files matched by globs. Globs starting with "!" exclude what they match.
// Matching nothing is not an error; an unreadable directory is.
func (r *Resolver) Resolve(root string, globs []string) ([]string, error) {
	includes, excludes, err := SplitGlobs(globs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, pattern := range includes {
		base, _ := doublestar.SplitPattern(pattern)
		for rel, err := range r.walker.WalkFiles(root, base, excludes) {
			if err != nil {
				return nil, err
			}
			if doublestar.MatchUnvalidated(pattern, rel) {
				seen[rel] = struct{}{}
			}
		}
	}

	result := make([]string, 0, len(seen))
	for rel := range seen {
		result = append(result, rel)
	}
	slices.Sort(result)
	return result, nil
}

// SplitGlobs separates include patterns from "!" exclude patterns and validates both.
// Leading "./" is dropped so patterns compare against clean relative paths.
func SplitGlobs(globs []string) (includes, excludes []string, err error) {
	for _, g := range globs {
		negated := strings.HasPrefix(g, "!")
		pattern := strings.TrimPrefix(strings.TrimPrefix(g, "!"), "./")
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid glob pattern"), "pattern", g)
		}
		if negated {
			excludes = append(excludes, pattern)
		} else {
			includes = append(includes, pattern)
		}
	}
	return includes, excludes, nil
}
