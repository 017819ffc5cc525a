package world

import (
	"image"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/physics"
)

// dirtyPadding grows every committed dirty rectangle so the neighbours of a
// changed cell are revisited on the next tick.
const dirtyPadding = 2

type Chunk struct {
	Coord  ChunkCoord
	Origin image.Point

	size   int
	reg    *material.Registry
	voxels []Voxel
	rng    *rand.Rand

	// dirtyMu guards dirty; neighbouring chunks mark edge cells while this
	// chunk may be stepping in the same parity pass.
	dirtyMu sync.Mutex
	dirty   DirtyRect

	collidersStale atomic.Bool
	countdown      int
	ticket         int
	body           physics.BodyID
}

func newChunk(coord ChunkCoord, size int, reg *material.Registry, seed uint64) *Chunk {
	c := &Chunk{
		Coord:  coord,
		Origin: image.Pt(coord.X*size, coord.Y*size),
		size:   size,
		reg:    reg,
		voxels: make([]Voxel, size*size),
		rng:    rand.New(rand.NewPCG(seed, uint64(uint32(coord.X))<<32|uint64(uint32(coord.Y)))),
		dirty:  NewDirtyRect(size, dirtyPadding),
		ticket: -1,
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := &c.voxels[y*size+x]
			v.Temperature = material.NeutralTemperature
			v.Position = c.Origin.Add(image.Pt(x, y))
		}
	}
	return c
}

func (c *Chunk) Size() int { return c.size }

// At returns the voxel in local cell (x, y), or nil outside the chunk.
func (c *Chunk) At(x, y int) *Voxel {
	if x < 0 || y < 0 || x >= c.size || y >= c.size {
		return nil
	}
	return &c.voxels[y*c.size+x]
}

// Fill writes a fresh voxel of material id into local cell (x, y).
func (c *Chunk) Fill(x, y int, id material.ID) {
	v := c.At(x, y)
	if v == nil {
		return
	}
	nv := newVoxel(c.reg, id, c.rng)
	nv.Falling = false
	nv.Position = v.Position
	*v = nv
}

// Voxels exposes the slot arena in row-major order.
func (c *Chunk) Voxels() []Voxel { return c.voxels }

func (c *Chunk) Ticket() int { return c.ticket }

func (c *Chunk) Contains(p image.Point) bool {
	l := p.Sub(c.Origin)
	return l.X >= 0 && l.Y >= 0 && l.X < c.size && l.Y < c.size
}

func (c *Chunk) include(x, y int) {
	c.dirtyMu.Lock()
	c.dirty.Include(x, y)
	c.dirtyMu.Unlock()
}

// MarkAll puts every cell into the next tick's dirty rectangle.
func (c *Chunk) MarkAll() {
	c.include(0, 0)
	c.include(c.size-1, c.size-1)
}

// Settled reports an empty dirty rectangle, both committed and pending.
func (c *Chunk) Settled() bool {
	c.dirtyMu.Lock()
	defer c.dirtyMu.Unlock()
	return c.dirty.IsEmpty() && !c.dirty.Pending()
}

// DirtyBounds returns the committed rectangle in local cells.
func (c *Chunk) DirtyBounds() (start, end image.Point, ok bool) {
	c.dirtyMu.Lock()
	defer c.dirtyMu.Unlock()
	return c.dirty.Start, c.dirty.End, !c.dirty.IsEmpty()
}

func (c *Chunk) commitDirty() {
	c.dirtyMu.Lock()
	c.dirty.Update()
	c.dirtyMu.Unlock()
}

func (c *Chunk) CollidersStale() bool { return c.collidersStale.Load() }

// UpdateVoxels steps every voxel inside the committed dirty rectangle,
// right to left and top to bottom. The x-descending order keeps piles of
// solids stable at the cost of a slight rightward bias in gases.
func (c *Chunk) UpdateVoxels(m *Matrix) {
	start, end, ok := c.DirtyBounds()
	if !ok {
		return
	}
	for x := end.X; x >= start.X; x-- {
		for y := start.Y; y <= end.Y; y++ {
			m.stepIn(c, c.Origin.Add(image.Pt(x, y)))
		}
	}
}
