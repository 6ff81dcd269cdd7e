package workspace

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/zerr"
)

// expandPatterns turns workspace globs into package entries. Each matched directory that
// holds a manifest with a name becomes an entry. Patterns prefixed with "!" exclude.
// Entries are ordered by pattern, then by path.
func expandPatterns(root string, patterns []string) ([]domain.PackageEntry, error) {
	var includes, excludes []string
	for _, p := range patterns {
		p = strings.TrimSuffix(strings.TrimPrefix(p, "./"), "/")
		if neg, ok := strings.CutPrefix(p, "!"); ok {
			excludes = append(excludes, strings.TrimPrefix(neg, "./"))
			continue
		}
		includes = append(includes, p)
	}

	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var entries []domain.PackageEntry

	for _, pattern := range includes {
		matches, err := doublestar.Glob(fsys, path.Join(pattern, domain.ManifestFileName), doublestar.WithFilesOnly())
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid workspace pattern"), "pattern", pattern)
		}
		slices.Sort(matches)

		for _, manifest := range matches {
			dir := path.Dir(manifest)
			if _, dup := seen[dir]; dup || inNodeModules(dir) || excluded(dir, excludes) {
				continue
			}
			seen[dir] = struct{}{}

			abs := filepath.Join(root, filepath.FromSlash(dir))
			name, err := manifestName(filepath.Join(abs, domain.ManifestFileName))
			if err != nil {
				return nil, err
			}
			if name == "" {
				continue
			}
			entries = append(entries, domain.PackageEntry{
				Name: domain.NewInternedString(name),
				Path: domain.NewInternedString(abs),
			})
		}
	}
	return entries, nil
}

func inNodeModules(dir string) bool {
	return slices.Contains(strings.Split(dir, "/"), "node_modules")
}

func excluded(dir string, excludes []string) bool {
	for _, ex := range excludes {
		if doublestar.MatchUnvalidated(ex, dir) {
			return true
		}
	}
	return false
}

func manifestName(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from a glob under the workspace root
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", path)
	}
	var m domain.PackageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrManifestMalformed, err.Error()), "path", path)
	}
	return m.Name, nil
}
