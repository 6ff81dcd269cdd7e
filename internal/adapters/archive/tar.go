// Package archive packs package outputs into tar streams and unpacks them safely.
package archive

import (
	"archive/tar"
	_ "crypto/sha256" // registers the canonical digest algorithm
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/opencontainers/go-digest"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/zerr"
)

// Pack writes the files, given as slash separated paths relative to root, into a tar stream.
// prefix is prepended to every entry name. Modes and modification times are preserved.
// It returns the number of content bytes written.
func Pack(w io.Writer, root, prefix string, files []string) (int64, error) {
	tw := tar.NewWriter(w)
	var total int64

	for _, rel := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil {
			return total, zerr.With(zerr.Wrap(err, "failed to stat file"), "path", full)
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return total, zerr.With(zerr.Wrap(err, "failed to build tar header"), "path", full)
		}
		hdr.Name = path.Join(prefix, rel)
		hdr.Uid, hdr.Gid, hdr.Uname, hdr.Gname = 0, 0, "", ""
		hdr.Format = tar.FormatPAX

		if err := tw.WriteHeader(hdr); err != nil {
			return total, zerr.With(zerr.Wrap(err, "failed to write tar header"), "path", rel)
		}

		n, err := copyFile(tw, full)
		total += n
		if err != nil {
			return total, err
		}
	}

	if err := tw.Close(); err != nil {
		return total, zerr.Wrap(err, "failed to finish tar stream")
	}
	return total, nil
}

// PackGzip is Pack wrapped in gzip compression.
func PackGzip(w io.Writer, root, prefix string, files []string) (int64, error) {
	gz := gzip.NewWriter(w)
	n, err := Pack(gz, root, prefix, files)
	if err != nil {
		_ = gz.Close()
		return n, err
	}
	if err := gz.Close(); err != nil {
		return n, zerr.Wrap(err, "failed to finish gzip stream")
	}
	return n, nil
}

func copyFile(w io.Writer, p string) (int64, error) {
	f, err := os.Open(p) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", p)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	n, err := io.Copy(w, f)
	if err != nil {
		return n, zerr.With(zerr.Wrap(err, "failed to copy file into archive"), "path", p)
	}
	return n, nil
}

// Unpack extracts regular files from a tar stream into root. Entries outside stripPrefix are
// ignored and the prefix is removed from the rest. Entries that would land outside root fail
// with domain.ErrUnsafeArchivePath. It returns the extracted paths relative to root.
func Unpack(r io.Reader, root, stripPrefix string) ([]string, error) {
	return unpack(r, root, stripPrefix, 0)
}

func unpack(r io.Reader, root, stripPrefix string, limit int64) ([]string, error) {
	tr := tar.NewReader(r)
	var extracted []string
	var total int64

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return extracted, nil
		}
		if err != nil {
			return extracted, zerr.Wrap(err, "failed to read tar entry")
		}

		if hdr.Typeflag != tar.TypeReg && hdr.Typeflag != tar.TypeRegA { //nolint:staticcheck // TypeRegA appears in old archives
			continue
		}

		name := strings.TrimPrefix(hdr.Name, "./")
		if stripPrefix != "" {
			var ok bool
			if name, ok = strings.CutPrefix(name, strings.TrimSuffix(stripPrefix, "/")+"/"); !ok {
				continue
			}
		}

		total += hdr.Size
		if limit > 0 && total > limit {
			return extracted, zerr.With(zerr.Wrap(domain.ErrSizeLimitExceeded, "archive exceeds size limit"), "limit", limit)
		}

		dst, err := SafeJoin(root, name)
		if err != nil {
			return extracted, err
		}
		if err := writeEntry(tr, dst, hdr); err != nil {
			return extracted, err
		}
		extracted = append(extracted, path.Clean(name))
	}
}

// UnpackGzip is Unpack for a gzip compressed tar stream.
func UnpackGzip(r io.Reader, root, stripPrefix string) ([]string, error) {
	return UnpackGzipLimit(r, root, stripPrefix, 0)
}

// UnpackGzipLimit is UnpackGzip that stops with domain.ErrSizeLimitExceeded before
// extracting an entry that takes the file content total above limit. A limit of zero
// disables the check.
func UnpackGzipLimit(r io.Reader, root, stripPrefix string, limit int64) ([]string, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open gzip stream")
	}
	defer gz.Close() //nolint:errcheck // Best effort close in defer

	return unpack(gz, root, stripPrefix, limit)
}

// SafeJoin joins a slash separated archive name onto root and rejects names that escape it.
func SafeJoin(root, name string) (string, error) {
	if name == "" || path.IsAbs(name) || filepath.IsAbs(name) {
		return "", zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "absolute or empty entry name"), "entry", name)
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "entry escapes destination"), "entry", name)
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

func writeEntry(r io.Reader, dst string, hdr *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", filepath.Dir(dst))
	}

	perm := hdr.FileInfo().Mode().Perm()
	if perm == 0 {
		perm = domain.FilePerm
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm) //nolint:gosec // Destination checked by SafeJoin
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create file"), "path", dst)
	}
	if _, err := io.Copy(f, r); err != nil { //nolint:gosec // Archive size is bounded by the caller
		_ = f.Close()
		return zerr.With(zerr.Wrap(err, "failed to extract file"), "path", dst)
	}
	if err := f.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close file"), "path", dst)
	}

	if !hdr.ModTime.IsZero() {
		if err := os.Chtimes(dst, hdr.ModTime, hdr.ModTime); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to set modification time"), "path", dst)
		}
	}
	return nil
}

// Digester computes the canonical digest of a stream as it is written.
type Digester struct {
	d digest.Digester
}

// NewDigester creates a Digester using the canonical algorithm.
func NewDigester() *Digester {
	return &Digester{d: digest.Canonical.Digester()}
}

// Write feeds p into the digest.
func (d *Digester) Write(p []byte) (int, error) {
	return d.d.Hash().Write(p)
}

// Digest returns the digest of everything written so far.
func (d *Digester) Digest() string {
	return d.d.Digest().String()
}

// Verify reports domain.ErrDigestMismatch when the digest of everything written so far is
// not want. An empty want is accepted so entries written without a digest stay readable.
func (d *Digester) Verify(want string) error {
	if want == "" {
		return nil
	}
	expected, err := digest.Parse(want)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrDigestMismatch, "malformed digest"), "digest", want)
	}
	if got := d.d.Digest(); got != expected {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrDigestMismatch, "archive digest mismatch"), "expected", want), "actual", got.String())
	}
	return nil
}
