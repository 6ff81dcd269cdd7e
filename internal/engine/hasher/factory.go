package hasher

import (
	"strings"
	"sync"

	"go.trai.ch/backfill/internal/core/ports"
)

// Factory hands out Hashers sharing the process-wide collaborators. Hashers are reused for
// identical options so their caches live as long as the process.
type Factory struct {
	workspace ports.WorkspaceResolver
	lockfile  ports.LockfileParser
	scanner   ports.RepoScanner
	globs     ports.GlobHasher
	logger    ports.Logger

	mu      sync.Mutex
	hashers map[string]*Hasher
}

// NewFactory creates a new Factory.
func NewFactory(
	workspace ports.WorkspaceResolver,
	lockfile ports.LockfileParser,
	scanner ports.RepoScanner,
	globs ports.GlobHasher,
	logger ports.Logger,
) *Factory {
	return &Factory{
		workspace: workspace,
		lockfile:  lockfile,
		scanner:   scanner,
		globs:     globs,
		logger:    logger,
		hashers:   make(map[string]*Hasher),
	}
}

// For returns the Hasher configured with opts.
func (f *Factory) For(opts Options) *Hasher {
	key := opts.InternalCacheFolder + "\x00" + strings.Join(opts.WatchGlobs, "\x00")

	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.hashers[key]; ok {
		return h
	}
	h := New(f.workspace, f.lockfile, f.scanner, f.globs, f.logger, opts)
	f.hashers[key] = h
	return h
}
