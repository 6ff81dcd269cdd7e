package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/backfill/internal/adapters/workspace"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func names(ws *domain.WorkspaceInfo) []string {
	out := make([]string, 0, len(ws.Packages))
	for _, p := range ws.Packages {
		out = append(out, p.Name.String())
	}
	return out
}

func TestResolver_Yarn(t *testing.T) {
	tests := []struct {
		name       string
		workspaces string
	}{
		{"array form", `["packages/*"]`},
		{"object form", `{"packages": ["packages/*"], "nohoist": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, root, "yarn.lock", "")
			writeFile(t, root, "package.json", `{"name":"root","workspaces":`+tt.workspaces+`}`)
			writeFile(t, root, "packages/a/package.json", `{"name":"a"}`)
			writeFile(t, root, "packages/b/package.json", `{"name":"b"}`)
			writeFile(t, root, "packages/nomanifest/README.md", "")

			r := workspace.NewResolver(mocks.NewMockLogger(gomock.NewController(t)))
			ws, err := r.Discover(context.Background(), filepath.Join(root, "packages", "a"))
			require.NoError(t, err)

			assert.Equal(t, root, ws.Root)
			assert.Equal(t, domain.ManagerYarn, ws.Manager)
			assert.Equal(t, []string{"a", "b"}, names(ws))

			entry, ok := ws.Lookup("b")
			require.True(t, ok)
			assert.Equal(t, filepath.Join(root, "packages", "b"), entry.Path.String())
		})
	}
}

func TestResolver_Pnpm_Excludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pnpm-workspace.yaml", "packages:\n  - 'packages/**'\n  - '!packages/legacy'\n")
	writeFile(t, root, "packages/a/package.json", `{"name":"a"}`)
	writeFile(t, root, "packages/group/c/package.json", `{"name":"c"}`)
	writeFile(t, root, "packages/legacy/package.json", `{"name":"legacy"}`)
	writeFile(t, root, "packages/a/node_modules/dep/package.json", `{"name":"dep"}`)

	r := workspace.NewResolver(mocks.NewMockLogger(gomock.NewController(t)))
	ws, err := r.Discover(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, domain.ManagerPnpm, ws.Manager)
	assert.ElementsMatch(t, []string{"a", "c"}, names(ws))
}

func TestResolver_Rush(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "rush.json", `{
  // rush manifest
  "rushVersion": "5.100.0",
  /* projects */
  "projects": [
    { "packageName": "@scope/app", "projectFolder": "apps/app" },
    { "packageName": "lib", "projectFolder": "libs/lib" },
  ]
}`)

	r := workspace.NewResolver(mocks.NewMockLogger(gomock.NewController(t)))
	ws, err := r.Discover(context.Background(), filepath.Join(root, "apps", "app"))
	require.NoError(t, err)

	assert.Equal(t, domain.ManagerRush, ws.Manager)
	assert.Equal(t, []string{"@scope/app", "lib"}, names(ws))
	entry, ok := ws.Lookup("lib")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "libs", "lib"), entry.Path.String())
}

func TestResolver_NoMarker(t *testing.T) {
	root := t.TempDir()
	r := workspace.NewResolver(mocks.NewMockLogger(gomock.NewController(t)))

	ws, err := r.Discover(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, domain.ManagerNone, ws.Manager)
	assert.Empty(t, ws.Packages)
}

func TestResolver_FailureYieldsEmptyWorkspace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "yarn.lock", "")
	writeFile(t, root, "package.json", `{not json`)

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().WithField(gomock.Any(), gomock.Any()).Return(log).Times(2)
	log.EXPECT().WithError(gomock.Any()).Return(log).Times(1)
	log.EXPECT().Debug(gomock.Any()).Times(1)

	r := workspace.NewResolver(log)
	ws, err := r.Discover(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, domain.ManagerYarn, ws.Manager)
	assert.Empty(t, ws.Packages)

	// Cached: the failure is not logged twice.
	again, err := r.Discover(context.Background(), root)
	require.NoError(t, err)
	assert.Same(t, ws, again)
}

func TestResolver_CachesPerRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "yarn.lock", "")
	writeFile(t, root, "package.json", `{"workspaces":["packages/*"]}`)
	writeFile(t, root, "packages/a/package.json", `{"name":"a"}`)

	r := workspace.NewResolver(mocks.NewMockLogger(gomock.NewController(t)))
	first, err := r.Discover(context.Background(), filepath.Join(root, "packages", "a"))
	require.NoError(t, err)

	writeFile(t, root, "packages/b/package.json", `{"name":"b"}`)
	second, err := r.Discover(context.Background(), root)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, []string{"a"}, names(second))
}

func TestStripJSONComments(t *testing.T) {
	in := []byte(`{"url": "http://example.com", // trailing
"list": [1, 2,], /* block */ "s": "a /* not */ b"}`)
	out := workspace.StripJSONComments(in)
	assert.JSONEq(t, `{"url":"http://example.com","list":[1,2],"s":"a /* not */ b"}`, string(out))
}
