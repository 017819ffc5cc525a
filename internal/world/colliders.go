package world

import (
	"github.com/san-kum/voxelworld/internal/collider"
	"github.com/san-kum/voxelworld/internal/physics"
)

// RegenerateColliders rebuilds the static body of every chunk whose solid
// occupancy changed, and the bodies of changed objects. It returns the
// number of chunks rebuilt.
func (m *Matrix) RegenerateColliders() int {
	n := 0
	for _, c := range m.list {
		if c.collidersStale.Load() {
			m.rebuildChunkColliders(c)
			n++
		}
	}
	for _, o := range m.objects {
		if o.stale {
			m.rebuildObjectBody(o)
		}
	}
	return n
}

// ColliderMask marks resting solids: falling voxels are left to the
// automaton.
func (m *Matrix) ColliderMask(c *Chunk) *collider.Mask {
	mask := collider.NewMask(c.size, c.size)
	for y := 0; y < c.size; y++ {
		for x := 0; x < c.size; x++ {
			v := &c.voxels[y*c.size+x]
			if !v.Falling && m.props(v.Material).IsSolid() {
				mask.Set(x, y, true)
			}
		}
	}
	return mask
}

func (m *Matrix) rebuildChunkColliders(c *Chunk) {
	c.collidersStale.Store(false)
	if c.body != 0 {
		m.phys.DestroyBody(c.body)
		c.body = 0
	}
	res := collider.Generate(m.ColliderMask(c), toVec(c.Origin), collider.DefaultOptions())
	if res.Empty() {
		return
	}
	c.body = m.phys.CreateBody(physics.BodyDef{Static: true})
	for _, t := range res.Triangles {
		m.phys.CreatePolygonShape(c.body, physics.Triangle(t))
	}
}

// Body is the static physics body holding the chunk's collision shapes, or
// zero when the chunk has no solids.
func (c *Chunk) Body() physics.BodyID { return c.body }
