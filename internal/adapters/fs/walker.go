// Package fs provides file system adapters for walking, globbing, hashing and copying files.
package fs

import (
	"errors"
	"io/fs"
	"iter"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/zerr"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the regular files below root/base as slash separated paths relative to
// root. VCS metadata directories are skipped, as is anything whose relative path matches one
// of the ignores (doublestar patterns). A missing base yields nothing; any other walk error
// is yielded once and ends the sequence.
func (w *Walker) WalkFiles(root, base string, ignores []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		start := filepath.Join(root, filepath.FromSlash(base))
		_ = filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == start && errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				yield("", zerr.With(zerr.Wrap(err, "failed to walk directory"), "path", p))
				return filepath.SkipAll
			}

			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				yield("", zerr.With(zerr.Wrap(relErr, "failed to relativize path"), "path", p))
				return filepath.SkipAll
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if rel != "." && w.shouldSkipDir(d.Name(), rel, ignores) {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() || ignored(rel, ignores) {
				return nil
			}

			if !yield(rel, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Files collects WalkFiles into a slice.
func (w *Walker) Files(root, base string, ignores []string) ([]string, error) {
	var files []string
	for rel, err := range w.WalkFiles(root, base, ignores) {
		if err != nil {
			return nil, err
		}
		files = append(files, rel)
	}
	return files, nil
}

// shouldSkipDir reports whether a whole directory can be pruned.
func (w *Walker) shouldSkipDir(name, rel string, ignores []string) bool {
	if name == ".git" || name == ".jj" {
		return true
	}
	// A pattern that matches an arbitrary child of the directory through a trailing
	// "**" matches everything below it.
	for _, ignore := range ignores {
		if path.Base(ignore) == "**" && doublestar.MatchUnvalidated(ignore, rel+"/_") {
			return true
		}
	}
	return false
}

func ignored(rel string, ignores []string) bool {
	for _, ignore := range ignores {
		if doublestar.MatchUnvalidated(ignore, rel) {
			return true
		}
	}
	return false
}
