package hasher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/engine/hasher"
)

func workspaceOf(root string, names ...string) *domain.WorkspaceInfo {
	entries := make([]domain.PackageEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, domain.PackageEntry{
			Name: domain.NewInternedString(n),
			Path: domain.NewInternedString(root + "/packages/" + n),
		})
	}
	return domain.NewWorkspaceInfo(root, domain.ManagerYarn, entries)
}

func TestClassify(t *testing.T) {
	ws := workspaceOf("/repo", "b", "a")
	internal, external := hasher.Classify(map[string]string{
		"b":        "*",
		"a":        "workspace:*",
		"left-pad": "^1.0.0",
	}, ws)

	assert.Equal(t, []string{"a", "b"}, internal)
	assert.Equal(t, map[string]string{"left-pad": "^1.0.0"}, external)
}

func TestExpandExternal(t *testing.T) {
	ws := workspaceOf("/repo", "local")
	lock := domain.NewParsedLock("/repo/yarn.lock", domain.LockStatusSuccess, map[domain.LockKey]domain.LockEntry{
		{Name: "left-pad", Range: "^1.0.0"}: {Version: "1.3.0", Dependencies: map[string]string{"is-odd": "^3.0.0", "local": "*"}},
		{Name: "is-odd", Range: "^3.0.0"}:   {Version: "3.0.1", Dependencies: map[string]string{"is-number": "^6.0.0"}},
		{Name: "is-number", Range: "6.0.0"}: {Version: "6.0.0"},
		{Name: "is-number", Range: "7.0.0"}: {Version: "7.0.0"},
		{Name: "cyclic-a", Range: "1"}:      {Version: "1.0.0", Dependencies: map[string]string{"cyclic-b": "1"}},
		{Name: "cyclic-b", Range: "1"}:      {Version: "1.0.0", Dependencies: map[string]string{"cyclic-a": "1"}},
	})

	got := hasher.ExpandExternal(map[string]string{
		"left-pad": "^1.0.0",
		"cyclic-a": "1",
		"missing":  "^9.0.0",
	}, ws, lock)

	assert.Equal(t, []string{
		"cyclic-a@1.0.0",
		"cyclic-b@1.0.0",
		"is-number@6.0.0",
		"is-odd@3.0.1",
		"left-pad@1.3.0",
	}, got)
}

func TestExpandExternal_SemverFallbackPicksHighest(t *testing.T) {
	lock := domain.NewParsedLock("/repo/pnpm-lock.yaml", domain.LockStatusSuccess, map[domain.LockKey]domain.LockEntry{
		{Name: "react", Range: "17.0.1"}: {Version: "17.0.1"},
		{Name: "react", Range: "17.0.2"}: {Version: "17.0.2"},
		{Name: "react", Range: "18.2.0"}: {Version: "18.2.0"},
	})

	got := hasher.ExpandExternal(map[string]string{"react": "^17.0.0"}, nil, lock)
	assert.Equal(t, []string{"react@17.0.2"}, got)

	got = hasher.ExpandExternal(map[string]string{"react": "not a range"}, nil, lock)
	assert.Empty(t, got)
}

func TestHashFiles_OrderIndependent(t *testing.T) {
	hashes := map[string]string{"a.txt": "1", "src/b.ts": "2", "c.md": "3"}

	first := hasher.HashFiles([]string{"a.txt", "src/b.ts", "c.md"}, hashes)
	second := hasher.HashFiles([]string{"c.md", "a.txt", "src/b.ts", "a.txt"}, hashes)
	assert.Equal(t, first, second)
	assert.Len(t, first, 40)

	withMissing := hasher.HashFiles([]string{"a.txt", "src/b.ts", "c.md", "gone"}, hashes)
	assert.Equal(t, first, withMissing)

	hashes["a.txt"] = "changed"
	assert.NotEqual(t, first, hasher.HashFiles([]string{"a.txt", "src/b.ts", "c.md"}, hashes))
}
