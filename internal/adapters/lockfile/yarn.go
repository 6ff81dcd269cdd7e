package lockfile

import (
	"bufio"
	"bytes"
	"strings"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var conflictMarkers = []string{"<<<<<<<", "=======", ">>>>>>>"}

// parseYarnClassic reads the v1 text format. Conflict marker lines are skipped and both
// sides are kept, the later one winning, so a conflicted file still yields usable entries.
func parseYarnClassic(path string, data []byte) *domain.ParsedLock {
	entries := make(map[domain.LockKey]domain.LockEntry)
	status := domain.LockStatusSuccess

	var (
		keys    []domain.LockKey
		current domain.LockEntry
		inDeps  bool
	)
	flush := func() {
		for _, k := range keys {
			entries[k] = current
		}
		keys = nil
		current = domain.LockEntry{}
		inDeps = false
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if isConflictMarker(line) {
			status = domain.LockStatusMergeConflict
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " "))
		switch {
		case indent == 0:
			flush()
			keys = parseYarnKeys(strings.TrimSuffix(trimmed, ":"))
		case indent <= 2:
			inDeps = false
			key, value := splitYarnField(trimmed)
			switch key {
			case "version":
				current.Version = value
			case "dependencies", "optionalDependencies":
				inDeps = true
				if current.Dependencies == nil {
					current.Dependencies = make(map[string]string)
				}
			}
		case inDeps:
			name, rng := splitYarnField(trimmed)
			if name != "" {
				current.Dependencies[name] = rng
			}
		}
	}
	flush()

	return domain.NewParsedLock(path, status, entries)
}

func isConflictMarker(line string) bool {
	for _, m := range conflictMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

// parseYarnKeys splits `"a@^1", a@~1.2` into lock keys.
func parseYarnKeys(s string) []domain.LockKey {
	var keys []domain.LockKey
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"`)
		if k, ok := splitSpecifier(part); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// splitSpecifier splits name@range at the last "@" that is not the scope prefix.
func splitSpecifier(s string) (domain.LockKey, bool) {
	i := strings.LastIndex(s, "@")
	if i <= 0 {
		return domain.LockKey{}, false
	}
	return domain.LockKey{Name: s[:i], Range: s[i+1:]}, true
}

// splitYarnField splits `key "value"` or `"key" value`, unquoting both halves.
func splitYarnField(s string) (string, string) {
	var key, rest string
	if strings.HasPrefix(s, `"`) {
		end := strings.Index(s[1:], `"`)
		if end < 0 {
			return strings.Trim(s, `":`), ""
		}
		key, rest = s[1:end+1], s[end+2:]
	} else {
		var found bool
		key, rest, found = strings.Cut(s, " ")
		if !found {
			return strings.TrimSuffix(s, ":"), ""
		}
	}
	return strings.TrimSuffix(key, ":"), strings.Trim(strings.TrimSpace(rest), `"`)
}

type berryEntry struct {
	Version              string            `yaml:"version"`
	Dependencies         map[string]string `yaml:"dependencies"`
	OptionalDependencies map[string]string `yaml:"optionalDependencies"`
}

// parseYarnBerry reads the YAML format of yarn 2 and later. Workspace entries are skipped
// and the npm: protocol prefix is removed from ranges.
func parseYarnBerry(path string, data []byte) (*domain.ParsedLock, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrLockFileMalformed, err.Error()), "path", path)
	}

	entries := make(map[domain.LockKey]domain.LockEntry)
	for rawKeys, node := range doc {
		if rawKeys == "__metadata" {
			continue
		}
		var e berryEntry
		if err := node.Decode(&e); err != nil {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrLockFileMalformed, err.Error()), "path", path), "key", rawKeys)
		}

		entry := domain.LockEntry{Version: e.Version}
		for _, section := range []map[string]string{e.Dependencies, e.OptionalDependencies} {
			for name, rng := range section {
				if entry.Dependencies == nil {
					entry.Dependencies = make(map[string]string)
				}
				entry.Dependencies[name] = strings.TrimPrefix(rng, "npm:")
			}
		}

		for _, part := range strings.Split(rawKeys, ",") {
			k, ok := splitSpecifier(strings.TrimSpace(part))
			if !ok || strings.HasPrefix(k.Range, "workspace:") {
				continue
			}
			k.Range = strings.TrimPrefix(k.Range, "npm:")
			entries[k] = entry
		}
	}
	return domain.NewParsedLock(path, domain.LockStatusSuccess, entries), nil
}
