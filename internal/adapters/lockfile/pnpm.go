package lockfile

import (
	"strconv"
	"strings"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

type pnpmPackage struct {
	Version              string            `yaml:"version"`
	Dependencies         map[string]string `yaml:"dependencies"`
	OptionalDependencies map[string]string `yaml:"optionalDependencies"`
}

type pnpmLock struct {
	LockfileVersion yaml.Node              `yaml:"lockfileVersion"`
	Packages        map[string]pnpmPackage `yaml:"packages"`
	Snapshots       map[string]pnpmPackage `yaml:"snapshots"`
}

// parsePnpm reads pnpm-lock.yaml formats 5, 6 and 9. Entries are keyed by name and
// resolved version, so declared ranges are matched through the semver fallback.
func parsePnpm(path string, data []byte) (*domain.ParsedLock, error) {
	var doc pnpmLock
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrLockFileMalformed, err.Error()), "path", path)
	}

	major := 0
	if v, err := strconv.ParseFloat(strings.Trim(doc.LockfileVersion.Value, `'"`), 64); err == nil {
		major = int(v)
	}

	entries := make(map[domain.LockKey]domain.LockEntry)
	add := func(rawKey string, pkg pnpmPackage) {
		name, version, ok := parsePnpmKey(rawKey, major)
		if !ok {
			return
		}
		if pkg.Version != "" && !strings.Contains(pkg.Version, ":") {
			version = stripPeerSuffix(pkg.Version, major)
		}
		key := domain.LockKey{Name: name, Range: version}
		entry := entries[key]
		entry.Version = version
		for _, section := range []map[string]string{pkg.Dependencies, pkg.OptionalDependencies} {
			for dep, ref := range section {
				if strings.HasPrefix(ref, "link:") {
					continue
				}
				if entry.Dependencies == nil {
					entry.Dependencies = make(map[string]string)
				}
				entry.Dependencies[dep] = stripPeerSuffix(ref, major)
			}
		}
		entries[key] = entry
	}

	for k, pkg := range doc.Packages {
		add(k, pkg)
	}
	// Format 9 moved dependency edges into snapshots.
	for k, pkg := range doc.Snapshots {
		pkg.Version = ""
		add(k, pkg)
	}

	return domain.NewParsedLock(path, domain.LockStatusSuccess, entries), nil
}

// parsePnpmKey extracts name and version from a packages key:
// format 5 "/name/1.0.0_peer@2", format 6 "/name@1.0.0(peer@2)", format 9 "name@1.0.0(peer@2)".
func parsePnpmKey(key string, major int) (name, version string, ok bool) {
	key = strings.TrimPrefix(key, "/")
	if major > 0 && major < 6 {
		i := strings.LastIndex(key, "/")
		if i <= 0 {
			return "", "", false
		}
		return key[:i], stripPeerSuffix(key[i+1:], major), true
	}

	if i := strings.Index(key, "("); i >= 0 {
		key = key[:i]
	}
	k, found := splitSpecifier(key)
	if !found || strings.Contains(k.Range, ":") {
		return "", "", false
	}
	return k.Name, k.Range, true
}

// stripPeerSuffix drops peer dependency decorations from a resolved version.
func stripPeerSuffix(v string, major int) string {
	if i := strings.Index(v, "("); i >= 0 {
		v = v[:i]
	}
	if major > 0 && major < 6 {
		if i := strings.Index(v, "_"); i >= 0 {
			v = v[:i]
		}
	}
	return v
}
