// Package local stores cache entries as directories inside the package's cache folder.
package local

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	fsutil "go.trai.ch/backfill/internal/adapters/fs"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
)

// Storage keeps each entry in <cacheRoot>/<fingerprint>. Entries are written once through a
// staging directory and never modified afterwards.
type Storage struct {
	packageRoot string
	cacheRoot   string
	skipFetch   bool
	walker      *fsutil.Walker
	logger      ports.Logger
}

// New creates a local backend.
func New(packageRoot, cacheRoot string, logger ports.Logger) *Storage {
	return &Storage{
		packageRoot: packageRoot,
		cacheRoot:   cacheRoot,
		walker:      fsutil.NewWalker(),
		logger:      logger,
	}
}

// NewSkip creates a local backend that writes entries but never reports a hit.
func NewSkip(packageRoot, cacheRoot string, logger ports.Logger) *Storage {
	s := New(packageRoot, cacheRoot, logger)
	s.skipFetch = true
	return s
}

// EntryPath returns the directory holding the entry for fp.
func (s *Storage) EntryPath(fp domain.Fingerprint) string {
	return filepath.Join(s.cacheRoot, fp.String())
}

// Fetch copies the entry into the package root. Files whose destination already carries the
// same modification time are left alone.
func (s *Storage) Fetch(_ context.Context, fp domain.Fingerprint) (bool, error) {
	if s.skipFetch {
		return false, nil
	}

	entry := s.EntryPath(fp)
	info, err := os.Stat(entry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "failed to stat cache entry"), "path", entry)
	}
	if !info.IsDir() {
		return false, nil
	}

	files, err := s.walker.Files(entry, ".", nil)
	if err != nil {
		return false, err
	}
	written, err := fsutil.CopyFiles(files, entry, s.packageRoot, true)
	if err != nil {
		return false, err
	}

	s.logger.WithField("files", len(files)).WithField("copied", written).Debug("restored local cache entry")
	return true, nil
}

// Put copies files into a fresh staging directory and renames it into place. An existing
// entry is kept as is.
func (s *Storage) Put(_ context.Context, fp domain.Fingerprint, files []string) error {
	entry := s.EntryPath(fp)
	if _, err := os.Stat(entry); err == nil {
		return nil
	}

	if err := os.MkdirAll(s.cacheRoot, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create cache folder"), "path", s.cacheRoot)
	}

	staging := filepath.Join(s.cacheRoot, fp.String()+".tmp-"+uuid.NewString())
	defer os.RemoveAll(staging) //nolint:errcheck // Staging is gone after a successful rename

	if _, err := fsutil.CopyFiles(files, s.packageRoot, staging, false); err != nil {
		return err
	}

	if err := os.Rename(staging, entry); err != nil {
		if _, statErr := os.Stat(entry); statErr == nil {
			// Another writer finished first.
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to publish cache entry"), "path", entry)
	}
	return nil
}
