package npm_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/backfill/internal/adapters/storage/npm"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// fakeRegistry keeps published tarballs in memory.
type fakeRegistry struct {
	t        *testing.T
	mu       sync.Mutex
	server   *httptest.Server
	versions map[string]string
	tarballs map[string][]byte
	putCode  int
	putBody  string
	auth     []string
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	t.Helper()
	r := &fakeRegistry{t: t, versions: map[string]string{}, tarballs: map[string][]byte{}}
	r.server = httptest.NewServer(http.HandlerFunc(r.serve))
	t.Cleanup(r.server.Close)
	return r
}

func (r *fakeRegistry) serve(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auth = append(r.auth, req.Header.Get("Authorization"))

	if strings.Contains(req.URL.Path, "/-/") {
		data, ok := r.tarballs[req.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
		return
	}

	switch req.Method {
	case http.MethodGet:
		if len(r.versions) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		versions := map[string]any{}
		for v, tarball := range r.versions {
			versions[v] = map[string]any{"dist": map[string]string{"tarball": r.server.URL + tarball}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"versions": versions})
	case http.MethodPut:
		if r.putCode != 0 {
			w.WriteHeader(r.putCode)
			_, _ = w.Write([]byte(r.putBody))
			return
		}
		var doc struct {
			Versions    map[string]json.RawMessage `json:"versions"`
			Attachments map[string]struct {
				Data string `json:"data"`
			} `json:"_attachments"`
		}
		require.NoError(r.t, json.NewDecoder(req.Body).Decode(&doc))
		for v := range doc.Versions {
			for name, att := range doc.Attachments {
				data, err := base64.StdEncoding.DecodeString(att.Data)
				require.NoError(r.t, err)
				p := req.URL.Path + "/-/" + name
				r.tarballs[p] = data
				r.versions[v] = p
			}
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().WithField(gomock.Any(), gomock.Any()).Return(log).AnyTimes()
	log.EXPECT().WithError(gomock.Any()).Return(log).AnyTimes()
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return log
}

func TestStorage_PublishAndFetch(t *testing.T) {
	reg := newFakeRegistry(t)
	opts := npm.Options{PackageName: "@scope/cache", RegistryURL: reg.server.URL + "/", AuthToken: "secret"}
	fp := domain.Fingerprint("0123456789abcdef0123456789abcdef01234567")

	src := t.TempDir()
	writeFile(t, src, "package.json", `{"name":"real"}`)
	writeFile(t, src, "lib/index.js", "built")
	producer := npm.New(opts, src, filepath.Join(src, "scratch"), reg.server.Client(), quietLogger(t))

	hit, err := producer.Fetch(context.Background(), fp)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, producer.Put(context.Background(), fp, []string{"lib/index.js"}))
	assert.Contains(t, reg.versions, npm.Version(fp))

	dst := t.TempDir()
	writeFile(t, dst, "package.json", `{"name":"real"}`)
	scratch := filepath.Join(dst, "scratch")
	consumer := npm.New(opts, dst, scratch, reg.server.Client(), quietLogger(t))

	hit, err = consumer.Fetch(context.Background(), fp)
	require.NoError(t, err)
	require.True(t, hit)

	got, err := os.ReadFile(filepath.Join(dst, "lib", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, "built", string(got))

	manifest, err := os.ReadFile(filepath.Join(dst, "package.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"real"}`, string(manifest), "synthetic manifest never reaches the package")

	for _, a := range reg.auth {
		assert.Equal(t, "Bearer secret", a)
	}

	// Scratch entries make later fetches local.
	reg.server.Close()
	require.NoError(t, os.RemoveAll(filepath.Join(dst, "lib")))
	hit, err = consumer.Fetch(context.Background(), fp)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.FileExists(t, filepath.Join(dst, "lib", "index.js"))
}

func TestStorage_MissingVersionIsMiss(t *testing.T) {
	reg := newFakeRegistry(t)
	reg.versions["0.0.0-other"] = "/pkg/-/pkg-0.0.0-other.tgz"

	s := npm.New(npm.Options{PackageName: "pkg", RegistryURL: reg.server.URL}, t.TempDir(), t.TempDir(), reg.server.Client(), quietLogger(t))
	hit, err := s.Fetch(context.Background(), domain.Fingerprint("abc123"))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStorage_PublishConflicts(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		body    string
		wantErr bool
	}{
		{"conflict", http.StatusConflict, "", false},
		{"previously published", http.StatusForbidden, `{"error":"You cannot publish over the previously published versions"}`, false},
		{"forbidden", http.StatusForbidden, `{"error":"not allowed"}`, true},
		{"server error", http.StatusInternalServerError, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newFakeRegistry(t)
			reg.putCode = tt.code
			reg.putBody = tt.body

			pkg := t.TempDir()
			writeFile(t, pkg, "lib/a.js", "a")
			s := npm.New(npm.Options{PackageName: "pkg", RegistryURL: reg.server.URL}, pkg, filepath.Join(pkg, "scratch"), reg.server.Client(), quietLogger(t))

			err := s.Put(context.Background(), domain.Fingerprint("abc123"), []string{"lib/a.js"})
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrRegistryRequest)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTokenFromNpmrc(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BACKFILL_TEST_TOKEN", "from-env")
	writeFile(t, dir, ".npmrc", `registry=https://registry.example.com/
; comment
//registry.example.com/:_authToken=root-token
//registry.example.com/team/:_authToken=${BACKFILL_TEST_TOKEN}
//other.example.com/:_authToken=other
`)
	path := filepath.Join(dir, ".npmrc")

	token, err := npm.TokenFromNpmrc(path, "https://registry.example.com")
	require.NoError(t, err)
	assert.Equal(t, "root-token", token)

	token, err = npm.TokenFromNpmrc(path, "https://registry.example.com/team/")
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)

	token, err = npm.TokenFromNpmrc(path, "https://unknown.example.com")
	require.NoError(t, err)
	assert.Empty(t, token)

	_, err = npm.TokenFromNpmrc(filepath.Join(dir, "missing"), "https://registry.example.com")
	assert.Error(t, err)
}
