package workspace

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/backfill/internal/adapters/logger"
	"go.trai.ch/backfill/internal/core/ports"
)

// NodeID is the unique identifier for the workspace resolver node.
const NodeID graft.ID = "adapter.workspace"

func init() {
	graft.Register(graft.Node[ports.WorkspaceResolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.WorkspaceResolver, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewResolver(log), nil
		},
	})
}
