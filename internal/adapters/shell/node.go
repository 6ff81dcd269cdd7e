package shell

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/backfill/internal/adapters/logger"
	"go.trai.ch/backfill/internal/core/ports"
)

// NodeID is the unique identifier for the build command Graft node.
const NodeID graft.ID = "adapter.executor"

func init() {
	graft.Register(graft.Node[ports.BuildCommand]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.BuildCommand, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewExecutor(log), nil
		},
	})
}
