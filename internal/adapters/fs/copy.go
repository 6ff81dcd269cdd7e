package fs

import (
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/zerr"
)

// CopyFile copies src to dst, creating parent directories, and stamps dst with the
// permission bits and modification time of src.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat file"), "path", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", filepath.Dir(dst))
	}

	in, err := os.Open(src) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open file"), "path", src)
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm()) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create file"), "path", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.With(zerr.Wrap(err, "failed to copy file"), "path", dst)
	}
	if err := out.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close file"), "path", dst)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to preserve modification time"), "path", dst)
	}
	return nil
}

// SameModTime reports whether dst exists and carries the same modification time as src.
func SameModTime(src, dst string) bool {
	s, err := os.Stat(src)
	if err != nil {
		return false
	}
	d, err := os.Stat(dst)
	if err != nil {
		return false
	}
	return s.ModTime().Equal(d.ModTime())
}

// CopyFiles copies the slash separated relative paths from srcRoot to dstRoot. When
// skipUnchanged is set, destinations whose mtime already equals the source are left alone.
// It returns the number of files written.
func CopyFiles(files []string, srcRoot, dstRoot string, skipUnchanged bool) (int, error) {
	written := 0
	for _, rel := range files {
		src := filepath.Join(srcRoot, filepath.FromSlash(rel))
		dst := filepath.Join(dstRoot, filepath.FromSlash(rel))
		if skipUnchanged && SameModTime(src, dst) {
			continue
		}
		if err := CopyFile(src, dst); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// TotalSize sums the sizes of files relative to root. Unreadable files count as zero.
func TotalSize(root string, files []string) int64 {
	var total int64
	for _, rel := range files {
		if info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err == nil {
			total += info.Size()
		}
	}
	return total
}
