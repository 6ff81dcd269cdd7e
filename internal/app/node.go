package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/backfill/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/backfill/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/backfill/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/backfill/internal/adapters/shell"              //nolint:depguard // Wired in app layer
	"go.trai.ch/backfill/internal/adapters/storage"            //nolint:depguard // Wired in app layer
	"go.trai.ch/backfill/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/backfill/internal/engine/hasher"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			hasher.NodeID,
			storage.NodeID,
			shell.NodeID,
			fs.ResolverNodeID,
			progrock.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			return NewComponents(app, log, telemetry), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	hashers, err := graft.Dep[*hasher.Factory](ctx)
	if err != nil {
		return nil, err
	}

	storages, err := graft.Dep[*storage.Factory](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.BuildCommand](ctx)
	if err != nil {
		return nil, err
	}

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

	return New(loader, hashers, storages, executor, resolver, telemetry, log), nil
}
