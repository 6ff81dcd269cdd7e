package ports

import (
	"context"

	"go.trai.ch/backfill/internal/core/domain"
)

// CacheStorage stores and restores build output keyed by fingerprint.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStorage interface {
	// Fetch restores the output stored under fp into the package root.
	// A miss returns false and no error.
	Fetch(ctx context.Context, fp domain.Fingerprint) (bool, error)

	// Put stores the files matched by outputGlobs under fp.
	// It fails with domain.ErrNoOutputFound when nothing matches.
	Put(ctx context.Context, fp domain.Fingerprint, outputGlobs []string) error
}
