package units

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/neja/internal/adapters/fs"
	"go.trai.ch/neja/internal/core/ports"
)

// NodeID is the unique identifier for the unit loader Graft node.
const NodeID graft.ID = "adapter.units"

func init() {
	graft.Register(graft.Node[ports.UnitLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.NodeID},
		Run: func(ctx context.Context) (ports.UnitLoader, error) {
			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(fsys), nil
		},
	})
}
