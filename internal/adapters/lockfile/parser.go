// Package lockfile reads yarn and pnpm lock files into a normalized form.
package lockfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.LockfileParser = (*Parser)(nil)

type memoEntry struct {
	modTime time.Time
	size    int64
	lock    *domain.ParsedLock
}

// Parser implements ports.LockfileParser. Parses are memoized by absolute path and
// modification time, so repeated calls for an unchanged file return the same value.
type Parser struct {
	mu   sync.Mutex
	memo map[string]memoEntry
}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{memo: make(map[string]memoEntry)}
}

// Parse locates and parses the lock file governing packageRoot.
func (p *Parser) Parse(ctx context.Context, packageRoot string) (*domain.ParsedLock, error) {
	path, err := Find(ctx, packageRoot)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to stat lock file"), "path", path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.memo[path]; ok && m.modTime.Equal(info.ModTime()) && m.size == info.Size() {
		return m.lock, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path is found by walking up from the package root
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read lock file"), "path", path)
	}

	var lock *domain.ParsedLock
	switch filepath.Base(path) {
	case domain.PnpmLockFileName:
		lock, err = parsePnpm(path, data)
	default:
		if isBerry(data) {
			lock, err = parseYarnBerry(path, data)
		} else {
			lock = parseYarnClassic(path, data)
		}
	}
	if err != nil {
		return nil, err
	}

	p.memo[path] = memoEntry{modTime: info.ModTime(), size: info.Size(), lock: lock}
	return lock, nil
}

// Find walks upward from dir and returns the first yarn.lock or pnpm-lock.yaml. Next to a
// rush.json it also checks rush's common config folder.
func Find(ctx context.Context, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve directory"), "path", dir)
	}

	names := []string{domain.YarnLockFileName, domain.PnpmLockFileName}
	for cur := abs; ; {
		if err := ctx.Err(); err != nil {
			return "", zerr.Wrap(err, "lock file search cancelled")
		}

		candidates := []string{cur}
		if exists(filepath.Join(cur, domain.RushManifestFileName)) {
			candidates = append(candidates, filepath.Join(cur, domain.RushCommonConfigDir))
		}
		for _, c := range candidates {
			for _, name := range names {
				if p := filepath.Join(c, name); exists(p) {
					return p, nil
				}
			}
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", zerr.With(zerr.Wrap(domain.ErrLockFileNotFound, "no lock file above package"), "path", abs)
		}
		cur = parent
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isBerry(data []byte) bool {
	return bytes.HasPrefix(data, []byte("__metadata:")) || bytes.Contains(data, []byte("\n__metadata:"))
}
