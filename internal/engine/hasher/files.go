package hasher

import (
	"crypto/sha1" //nolint:gosec // Content addressing, not security
	"encoding/hex"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// HashFiles digests the given files with their content hashes. The result does not depend
// on the order of files. Files absent from hashes are skipped.
func HashFiles(files []string, hashes map[string]string) string {
	sorted := slices.Clone(files)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	h := sha1.New() //nolint:gosec // Content addressing, not security
	for _, f := range sorted {
		sum, ok := hashes[f]
		if !ok {
			continue
		}
		_, _ = h.Write([]byte(f))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(sum))
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// packageFileHashes selects the entries of repoHashes under packageRoot and re-keys them
// relative to the package, so a package hashes the same wherever it lives in the repository.
// Files below the package's internal cache folder are left out.
func packageFileHashes(repoRoot, packageRoot, cacheFolder string, repoHashes map[string]string) (map[string]string, error) {
	rel, err := filepath.Rel(repoRoot, packageRoot)
	if err != nil {
		return nil, err
	}
	prefix := filepath.ToSlash(rel)

	var cachePrefix string
	if cacheFolder != "" && !filepath.IsAbs(cacheFolder) {
		cachePrefix = path.Clean(filepath.ToSlash(cacheFolder)) + "/"
	}

	out := make(map[string]string)
	for name, sum := range repoHashes {
		local := name
		if prefix != "." {
			var ok bool
			if local, ok = strings.CutPrefix(name, prefix+"/"); !ok {
				continue
			}
		}
		if cachePrefix != "" && strings.HasPrefix(local, cachePrefix) {
			continue
		}
		out[local] = sum
	}
	return out, nil
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
