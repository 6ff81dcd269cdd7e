package ports

import (
	"context"

	"go.trai.ch/backfill/internal/core/domain"
)

// ConfigLoader resolves the configuration of one invocation.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load merges defaults, config files found above packageRoot and environment overrides.
	// The returned config has been validated.
	Load(ctx context.Context, packageRoot string) (*domain.Config, error)
}
