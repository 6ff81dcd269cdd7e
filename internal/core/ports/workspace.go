package ports

import (
	"context"

	"go.trai.ch/backfill/internal/core/domain"
)

// WorkspaceResolver discovers the packages of the workspace containing a directory.
//
//go:generate mockgen -source=workspace.go -destination=mocks/mock_workspace.go -package=mocks
type WorkspaceResolver interface {
	// Discover returns the workspace containing cwd. A standalone package yields an
	// empty workspace, not an error.
	Discover(ctx context.Context, cwd string) (*domain.WorkspaceInfo, error)
}
