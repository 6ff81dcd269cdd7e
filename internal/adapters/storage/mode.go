package storage

import (
	"context"

	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
)

var _ ports.CacheStorage = (*ModeStorage)(nil)

// ModeStorage applies an operating mode on top of any storage: fetch becomes an
// always-miss and put a no-op when the mode forbids them.
type ModeStorage struct {
	inner ports.CacheStorage
	mode  domain.Mode
}

// WithMode wraps inner so that it follows mode.
func WithMode(inner ports.CacheStorage, mode domain.Mode) *ModeStorage {
	return &ModeStorage{inner: inner, mode: mode}
}

// Mode returns the mode being applied.
func (s *ModeStorage) Mode() domain.Mode {
	return s.mode
}

// Fetch delegates when the mode reads from the cache.
func (s *ModeStorage) Fetch(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	if !s.mode.Fetches() {
		return false, nil
	}
	return s.inner.Fetch(ctx, fp)
}

// Put delegates when the mode writes to the cache.
func (s *ModeStorage) Put(ctx context.Context, fp domain.Fingerprint, outputGlobs []string) error {
	if !s.mode.Puts() {
		return nil
	}
	return s.inner.Put(ctx, fp, outputGlobs)
}
