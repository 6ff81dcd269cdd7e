package git_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/backfill/internal/adapters/git"
	"go.trai.ch/backfill/internal/core/domain"
)

func blob(content string) string {
	return plumbing.ComputeHash(plumbing.BlobObject, []byte(content)).String()
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func initRepo(t *testing.T) (string, *gogit.Worktree) {
	t.Helper()
	root := t.TempDir()
	repo, err := gogit.PlainInit(root, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return root, wt
}

func commit(t *testing.T, wt *gogit.Worktree, files ...string) {
	t.Helper()
	for _, f := range files {
		_, err := wt.Add(f)
		require.NoError(t, err)
	}
	_, err := wt.Commit("test", &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestScanner_FindRoot(t *testing.T) {
	root, _ := initRepo(t)
	nested := filepath.Join(root, "packages", "a")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	s := git.NewScanner()
	got, err := s.FindRoot(context.Background(), nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestScanner_FindRoot_NotARepository(t *testing.T) {
	_, err := git.NewScanner().FindRoot(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGitRootNotFound)
}

func TestScanner_HashTracked(t *testing.T) {
	root, wt := initRepo(t)
	writeFile(t, root, ".gitignore", "*.log\n")
	writeFile(t, root, "packages/a/src/index.ts", "hello")
	writeFile(t, root, "packages/a/gone.ts", "bye")
	writeFile(t, root, "packages/a/stable.ts", "same")
	commit(t, wt, ".gitignore", "packages/a/src/index.ts", "packages/a/gone.ts", "packages/a/stable.ts")

	writeFile(t, root, "packages/a/src/index.ts", "hello!")
	writeFile(t, root, "packages/a/new.ts", "new")
	writeFile(t, root, "packages/a/debug.log", "ignored")
	require.NoError(t, os.Remove(filepath.Join(root, "packages", "a", "gone.ts")))

	hashes, err := git.NewScanner().HashTracked(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, blob("hello!"), hashes["packages/a/src/index.ts"])
	assert.Equal(t, blob("new"), hashes["packages/a/new.ts"])
	assert.Equal(t, blob("same"), hashes["packages/a/stable.ts"])
	assert.NotContains(t, hashes, "packages/a/gone.ts")
	assert.NotContains(t, hashes, "packages/a/debug.log")
	assert.Contains(t, hashes, ".gitignore")
}

func TestHashFile_MatchesGitBlobID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")

	got, err := git.HashFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, blob("hello"), got)

	_, err = git.HashFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
