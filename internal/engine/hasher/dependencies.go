package hasher

import (
	"slices"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/backfill/internal/core/domain"
)

// Classify splits declared dependencies into workspace packages and everything else.
// The internal names come back sorted.
func Classify(deps map[string]string, ws *domain.WorkspaceInfo) (internal []string, external map[string]string) {
	external = make(map[string]string)
	for name, rng := range deps {
		if ws.Contains(name) {
			internal = append(internal, name)
			continue
		}
		external[name] = rng
	}
	slices.Sort(internal)
	return internal, external
}

// ExpandExternal resolves external dependencies through the lock file and follows their
// transitive dependencies. It returns sorted, unique name@version strings. Entries missing
// from the lock are skipped.
func ExpandExternal(external map[string]string, ws *domain.WorkspaceInfo, lock *domain.ParsedLock) []string {
	queue := make([]domain.LockKey, 0, len(external))
	for name, rng := range external {
		queue = append(queue, domain.LockKey{Name: name, Range: rng})
	}
	// Deterministic traversal keeps the semver fallback stable.
	slices.SortFunc(queue, func(a, b domain.LockKey) int {
		if a.Name != b.Name {
			if a.Name < b.Name {
				return -1
			}
			return 1
		}
		if a.Range < b.Range {
			return -1
		}
		if a.Range > b.Range {
			return 1
		}
		return 0
	})

	visited := make(map[domain.LockKey]struct{})
	resolved := make(map[string]struct{})

	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]

		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}

		entry, ok := lookupLock(lock, key.Name, key.Range)
		if !ok {
			continue
		}
		resolved[key.Name+"@"+entry.Version] = struct{}{}

		deps := make([]string, 0, len(entry.Dependencies))
		for dep := range entry.Dependencies {
			deps = append(deps, dep)
		}
		slices.Sort(deps)
		for _, dep := range deps {
			if ws.Contains(dep) {
				continue
			}
			next := domain.LockKey{Name: dep, Range: entry.Dependencies[dep]}
			if _, seen := visited[next]; !seen {
				queue = append(queue, next)
			}
		}
	}

	out := make([]string, 0, len(resolved))
	for r := range resolved {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// lookupLock finds the exact name@range entry, falling back to the highest locked version
// of name that satisfies the range.
func lookupLock(lock *domain.ParsedLock, name, rng string) (domain.LockEntry, bool) {
	if e, ok := lock.Lookup(name, rng); ok {
		return e, true
	}

	constraint, err := semver.NewConstraint(rng)
	if err != nil {
		return domain.LockEntry{}, false
	}

	var (
		best      domain.LockEntry
		bestVer   *semver.Version
		bestFound bool
	)
	for _, candidate := range lock.Candidates(name) {
		v, err := semver.NewVersion(candidate.Version)
		if err != nil || !constraint.Check(v) {
			continue
		}
		if !bestFound || v.GreaterThan(bestVer) {
			best, bestVer, bestFound = candidate, v, true
		}
	}
	return best, bestFound
}
