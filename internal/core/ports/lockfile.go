package ports

import (
	"context"

	"go.trai.ch/backfill/internal/core/domain"
)

// LockfileParser reads the package manager lock file governing a package.
//
//go:generate mockgen -source=lockfile.go -destination=mocks/mock_lockfile.go -package=mocks
type LockfileParser interface {
	// Parse returns the lock file found above packageRoot, or domain.ErrLockFileNotFound.
	Parse(ctx context.Context, packageRoot string) (*domain.ParsedLock, error)
}
