package domain

import (
	"crypto/sha1" //nolint:gosec // Content addressing, not security
	"encoding/hex"
)

// PackageManifest is the subset of package.json the hasher reads.
type PackageManifest struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// AllDependencies merges the dependency sections that influence a build.
// Later sections win on duplicate names: optional over dev over regular.
func (m *PackageManifest) AllDependencies() map[string]string {
	out := make(map[string]string, len(m.Dependencies)+len(m.DevDependencies)+len(m.OptionalDependencies))
	for _, section := range []map[string]string{m.Dependencies, m.DevDependencies, m.OptionalDependencies} {
		for name, rng := range section {
			out[name] = rng
		}
	}
	return out
}

// PackageDepsInfo is the dependency classification of one package.
type PackageDepsInfo struct {
	Name                 string
	PackageRoot          string
	InternalDependencies []string
	// ExternalDependencies holds sorted name@resolvedVersion strings.
	ExternalDependencies []string
}

// PackageHashInfo is the memoized hashing result for one package root.
type PackageHashInfo struct {
	Name                 string
	PackageRoot          string
	FilesHash            string
	DependenciesHash     string
	InternalDependencies []string
}

// ContentHash digests the package's own inputs, independent of any build command.
func (p *PackageHashInfo) ContentHash() string {
	h := sha1.New() //nolint:gosec // Content addressing, not security
	_, _ = h.Write([]byte(p.Name + "\x00" + p.FilesHash + "\x00" + p.DependenciesHash + "\n"))
	return hex.EncodeToString(h.Sum(nil))
}

// RepoInfo holds the repository-wide inputs shared by every package under Root.
type RepoInfo struct {
	// Root is the git root, or the workspace root when hashing from watch globs.
	Root string

	Workspace *WorkspaceInfo

	// Lock is nil when LockErr is set.
	Lock    *ParsedLock
	LockErr error

	// FileHashes maps slash separated paths relative to Root to content hashes.
	// It is nil when files are enumerated from watch globs.
	FileHashes map[string]string
}
