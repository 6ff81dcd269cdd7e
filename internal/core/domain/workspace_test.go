package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/backfill/internal/core/domain"
)

func entry(name, path string) domain.PackageEntry {
	return domain.PackageEntry{Name: domain.NewInternedString(name), Path: domain.NewInternedString(path)}
}

func TestNewWorkspaceInfo_DropsDuplicates(t *testing.T) {
	ws := domain.NewWorkspaceInfo("/repo", domain.ManagerYarn, []domain.PackageEntry{
		entry("a", "/repo/packages/a"),
		entry("b", "/repo/packages/b"),
		entry("a", "/repo/other/a"),
	})

	require.Len(t, ws.Packages, 2)
	got, ok := ws.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "/repo/packages/a", got.Path.String())
	assert.True(t, ws.Contains("b"))
	assert.False(t, ws.Contains("c"))
}

func TestWorkspaceInfo_NilIsEmpty(t *testing.T) {
	var ws *domain.WorkspaceInfo
	assert.False(t, ws.Contains("a"))
}

func TestParsedLock_LookupAndCandidates(t *testing.T) {
	lock := domain.NewParsedLock("/repo/yarn.lock", domain.LockStatusSuccess, map[domain.LockKey]domain.LockEntry{
		{Name: "left-pad", Range: "^1.0.0"}: {Version: "1.3.0"},
		{Name: "left-pad", Range: "~1.1.0"}: {Version: "1.1.3"},
		{Name: "is-odd", Range: "3.0.1"}:    {Version: "3.0.1"},
	})

	e, ok := lock.Lookup("left-pad", "^1.0.0")
	require.True(t, ok)
	assert.Equal(t, "1.3.0", e.Version)

	_, ok = lock.Lookup("left-pad", "^2.0.0")
	assert.False(t, ok)

	assert.Len(t, lock.Candidates("left-pad"), 2)
	assert.Empty(t, lock.Candidates("right-pad"))
	assert.Equal(t, "left-pad@^1.0.0", domain.LockKey{Name: "left-pad", Range: "^1.0.0"}.String())
}
