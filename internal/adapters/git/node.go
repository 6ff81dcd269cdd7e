package git

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/backfill/internal/core/ports"
)

// NodeID is the unique identifier for the repository scanner node.
const NodeID graft.ID = "adapter.git"

func init() {
	graft.Register(graft.Node[ports.RepoScanner]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RepoScanner, error) {
			return NewScanner(), nil
		},
	})
}
