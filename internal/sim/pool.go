package sim

import (
	"sync"

	"github.com/san-kum/voxelworld/internal/world"
)

// SnapshotPool recycles snapshot buffers between frames of a viewer.
type SnapshotPool struct {
	pool sync.Pool
}

func NewSnapshotPool() *SnapshotPool {
	return &SnapshotPool{
		pool: sync.Pool{
			New: func() any { return new(world.Snapshot) },
		},
	}
}

func (p *SnapshotPool) Get() *world.Snapshot {
	return p.pool.Get().(*world.Snapshot)
}

func (p *SnapshotPool) Put(s *world.Snapshot) {
	if s != nil {
		p.pool.Put(s)
	}
}
