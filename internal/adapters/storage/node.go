package storage

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/backfill/internal/adapters/fs"
	"go.trai.ch/backfill/internal/adapters/logger"
	"go.trai.ch/backfill/internal/adapters/telemetry/progrock"
	"go.trai.ch/backfill/internal/core/ports"
)

// NodeID is the unique identifier for the storage factory Graft node.
const NodeID graft.ID = "adapter.storage"

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.ResolverNodeID, progrock.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Factory, error) {
			resolver, err := graft.Dep[ports.OutputResolver](ctx)
			if err != nil {
				return nil, err
			}

			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewFactory(resolver, telemetry, log), nil
		},
	})
}
