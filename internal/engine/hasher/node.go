package hasher

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/backfill/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/backfill/internal/adapters/git"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/backfill/internal/adapters/lockfile"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/backfill/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/backfill/internal/adapters/workspace" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/backfill/internal/core/ports"
)

// NodeID is the unique identifier for the hasher factory Graft node.
const NodeID graft.ID = "engine.hasher"

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			workspace.NodeID,
			lockfile.NodeID,
			git.NodeID,
			fs.HasherNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Factory, error) {
			ws, err := graft.Dep[ports.WorkspaceResolver](ctx)
			if err != nil {
				return nil, err
			}

			lock, err := graft.Dep[ports.LockfileParser](ctx)
			if err != nil {
				return nil, err
			}

			scanner, err := graft.Dep[ports.RepoScanner](ctx)
			if err != nil {
				return nil, err
			}

			globs, err := graft.Dep[ports.GlobHasher](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewFactory(ws, lock, scanner, globs, log), nil
		},
	})
}
