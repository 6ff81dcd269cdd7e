package ports

import (
	"context"

	"go.trai.ch/backfill/internal/core/domain"
)

// PackageHasher computes build fingerprints.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type PackageHasher interface {
	// CreatePackageHash returns the fingerprint of building packageRoot with buildCommand.
	CreatePackageHash(ctx context.Context, packageRoot, buildCommand string) (domain.Fingerprint, error)
}
