// Package npm stores cache entries as synthetic versions of a package in an npm registry.
package npm

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // npm dist shasum is defined as SHA-1
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.trai.ch/backfill/internal/adapters/archive"
	fsutil "go.trai.ch/backfill/internal/adapters/fs"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultRegistry is used when no registry is configured.
const DefaultRegistry = "https://registry.npmjs.org"

const (
	tarballPrefix = "package"
	filesDir      = "files"
)

// Options configures the registry backend.
type Options struct {
	PackageName string
	RegistryURL string
	AuthToken   string
}

// Storage publishes each entry as version 0.0.0-<fingerprint> of one package. Downloaded
// entries are kept in a scratch folder so later fetches skip the network.
type Storage struct {
	opts        Options
	packageRoot string
	scratch     string
	client      *http.Client
	walker      *fsutil.Walker
	logger      ports.Logger
}

// New creates a registry backend. scratch is the folder holding extracted entries.
func New(opts Options, packageRoot, scratch string, client *http.Client, logger ports.Logger) *Storage {
	if opts.RegistryURL == "" {
		opts.RegistryURL = DefaultRegistry
	}
	opts.RegistryURL = strings.TrimSuffix(opts.RegistryURL, "/")
	if client == nil {
		client = http.DefaultClient
	}
	return &Storage{
		opts:        opts,
		packageRoot: packageRoot,
		scratch:     scratch,
		client:      client,
		walker:      fsutil.NewWalker(),
		logger:      logger,
	}
}

// Version returns the synthetic version that stores fp.
func Version(fp domain.Fingerprint) string {
	return "0.0.0-" + fp.String()
}

// Fetch restores the entry for fp, downloading it when it is not in the scratch folder yet.
func (s *Storage) Fetch(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	dir := filepath.Join(s.scratch, fp.String())
	if !populated(dir) {
		found, err := s.download(ctx, fp, dir)
		if err != nil || !found {
			return false, err
		}
	}

	filesRoot := filepath.Join(dir, filesDir)
	files, err := s.walker.Files(filesRoot, ".", nil)
	if err != nil {
		return false, err
	}
	if _, err := fsutil.CopyFiles(files, filesRoot, s.packageRoot, true); err != nil {
		return false, err
	}
	return true, nil
}

func populated(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

type packument struct {
	Versions map[string]struct {
		Dist struct {
			Tarball string `json:"tarball"`
		} `json:"dist"`
	} `json:"versions"`
}

func (s *Storage) download(ctx context.Context, fp domain.Fingerprint, dir string) (bool, error) {
	var doc packument
	found, err := s.getJSON(ctx, s.packageURL(), &doc)
	if err != nil || !found {
		return false, err
	}

	version, ok := doc.Versions[Version(fp)]
	if !ok || version.Dist.Tarball == "" {
		return false, nil
	}

	resp, err := s.do(ctx, http.MethodGet, version.Dist.Tarball, nil, "")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, statusError(resp, version.Dist.Tarball)
	}

	if err := os.MkdirAll(s.scratch, domain.DirPerm); err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to create scratch folder"), "path", s.scratch)
	}
	staging := dir + ".tmp-" + uuid.NewString()
	defer os.RemoveAll(staging) //nolint:errcheck // Staging is gone after a successful rename

	if _, err := archive.UnpackGzip(resp.Body, staging, tarballPrefix); err != nil {
		return false, err
	}
	if err := os.Rename(staging, dir); err != nil && !populated(dir) {
		return false, zerr.With(zerr.Wrap(err, "failed to move entry into scratch folder"), "path", dir)
	}
	return true, nil
}

// Put packs files into a tarball next to a synthetic manifest and publishes it. A version
// that already exists counts as stored.
func (s *Storage) Put(ctx context.Context, fp domain.Fingerprint, files []string) error {
	if err := os.MkdirAll(s.scratch, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create scratch folder"), "path", s.scratch)
	}
	staging := filepath.Join(s.scratch, fp.String()+".pack-"+uuid.NewString())
	defer os.RemoveAll(staging) //nolint:errcheck // Staging only lives for this call

	version := Version(fp)
	manifest, err := json.Marshal(map[string]string{"name": s.opts.PackageName, "version": version})
	if err != nil {
		return zerr.Wrap(err, "failed to encode manifest")
	}
	if err := os.MkdirAll(staging, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create staging folder"), "path", staging)
	}
	if err := os.WriteFile(filepath.Join(staging, domain.ManifestFileName), manifest, domain.FilePerm); err != nil { //nolint:gosec // Manifest is not secret
		return zerr.With(zerr.Wrap(err, "failed to write manifest"), "path", staging)
	}
	if _, err := fsutil.CopyFiles(files, s.packageRoot, filepath.Join(staging, filesDir), false); err != nil {
		return err
	}

	entries := []string{domain.ManifestFileName}
	for _, f := range files {
		entries = append(entries, path.Join(filesDir, f))
	}

	var tarball bytes.Buffer
	if _, err := archive.PackGzip(&tarball, staging, tarballPrefix, entries); err != nil {
		return err
	}

	body, err := s.publishDocument(version, tarball.Bytes())
	if err != nil {
		return err
	}

	resp, err := s.do(ctx, http.MethodPut, s.packageURL(), bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if alreadyPublished(resp) {
		s.logger.WithField("version", version).Debug("version already published")
		return nil
	}
	return statusError(resp, s.packageURL())
}

func (s *Storage) publishDocument(version string, tarball []byte) ([]byte, error) {
	shasum := sha1.Sum(tarball) //nolint:gosec // npm dist shasum is defined as SHA-1
	integrity := sha512.Sum512(tarball)
	name := s.opts.PackageName
	filename := path.Base(name) + "-" + version + ".tgz"

	doc := map[string]any{
		"_id":       name,
		"name":      name,
		"dist-tags": map[string]string{"latest": version},
		"versions": map[string]any{
			version: map[string]any{
				"_id":     name + "@" + version,
				"name":    name,
				"version": version,
				"dist": map[string]string{
					"shasum":    hex.EncodeToString(shasum[:]),
					"integrity": "sha512-" + base64.StdEncoding.EncodeToString(integrity[:]),
					"tarball":   s.packageURL() + "/-/" + filename,
				},
			},
		},
		"_attachments": map[string]any{
			filename: map[string]any{
				"content_type": "application/octet-stream",
				"data":         base64.StdEncoding.EncodeToString(tarball),
				"length":       len(tarball),
			},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode publish document")
	}
	return data, nil
}

func (s *Storage) packageURL() string {
	return s.opts.RegistryURL + "/" + url.PathEscape(s.opts.PackageName)
}

func (s *Storage) getJSON(ctx context.Context, u string, out any) (bool, error) {
	resp, err := s.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, statusError(resp, u)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, zerr.With(zerr.Wrap(domain.ErrRegistryRequest, "malformed registry response: "+err.Error()), "url", u)
	}
	return true, nil
}

func (s *Storage) do(ctx context.Context, method, u string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to build registry request"), "url", u)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.opts.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.opts.AuthToken)
	}

	resp, err := s.client.Do(req) //nolint:gosec // Registry URL comes from configuration
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrRegistryRequest, err.Error()), "url", u)
	}
	return resp, nil
}

func alreadyPublished(resp *http.Response) bool {
	if resp.StatusCode == http.StatusConflict {
		return true
	}
	if resp.StatusCode != http.StatusForbidden {
		return false
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	text := strings.ToLower(string(msg))
	return strings.Contains(text, "previously published") || strings.Contains(text, "cannot publish over")
}

func statusError(resp *http.Response, u string) error {
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrRegistryRequest, "unexpected registry response"),
		"status", resp.StatusCode), "url", u)
}
