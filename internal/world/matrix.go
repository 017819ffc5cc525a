package world

import (
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/voxelworld/internal/compute"
	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/physics"
)

// maxFall is the furthest a voxel falls in one step.
const maxFall = 4

type Matrix struct {
	opts  Options
	size  int
	reg   *material.Registry
	gen   Generator
	locks *Locks
	log   *slog.Logger
	phys  physics.Engine
	rng   *rand.Rand

	chunks   map[ChunkCoord]*Chunk
	list     []*Chunk
	parity   [4][]*Chunk
	byTicket []*Chunk
	tickets  TicketPool

	particles []*Particle
	objects   []*Object

	device compute.Device
	frame  compute.Frame
	rules  []compute.Rule

	interest image.Rectangle
	tick     uint64
	fire     material.ID
}

// NewMatrix validates opts and returns an empty matrix. Options that break
// the parallel stepping invariants panic with ErrInvalidOptions.
func NewMatrix(opts Options) *Matrix {
	if opts.Registry == nil {
		opts.Registry = material.Default()
	}
	if !opts.Registry.Closed() {
		opts.Registry.Close()
	}
	if opts.ChunkSize < 8 {
		panic(fmt.Errorf("%w: chunk size %d below 8", ErrInvalidOptions, opts.ChunkSize))
	}
	reach := maxFall
	for _, p := range opts.Registry.All() {
		reach = max(reach, p.DispersionRate)
	}
	if reach+dirtyPadding >= opts.ChunkSize/2 {
		panic(fmt.Errorf("%w: reach %d too large for chunk size %d", ErrInvalidOptions, reach, opts.ChunkSize))
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Locks == nil {
		opts.Locks = &Locks{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Physics == nil {
		opts.Physics = &physics.Null{}
	}
	if opts.Explosion.Rays <= 0 {
		opts.Explosion.Rays = DefaultOptions().Explosion.Rays
	}

	m := &Matrix{
		opts:   opts,
		size:   opts.ChunkSize,
		reg:    opts.Registry,
		gen:    opts.Generator,
		locks:  opts.Locks,
		log:    opts.Logger,
		phys:   opts.Physics,
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		chunks: make(map[ChunkCoord]*Chunk),
		device: opts.Device,
		tick:   1,
		fire:   material.None,
	}
	if id, ok := m.reg.Lookup("fire"); ok {
		m.fire = id
	}
	for _, p := range m.reg.All() {
		for _, r := range p.Reactions {
			m.rules = append(m.rules, compute.Rule{
				Material: int32(p.ID),
				With:     int32(r.With),
				Produces: int32(r.Produces),
				Rate:     float32(r.Rate),
			})
		}
	}
	return m
}

func (m *Matrix) Registry() *material.Registry { return m.reg }
func (m *Matrix) Locks() *Locks                { return m.locks }
func (m *Matrix) ChunkSize() int               { return m.size }
func (m *Matrix) Tick() uint64                 { return m.tick }
func (m *Matrix) ChunkCount() int              { return len(m.list) }
func (m *Matrix) Physics() physics.Engine      { return m.phys }
func (m *Matrix) Device() compute.Device       { return m.device }

// Chunks returns the loaded chunks. The slice must not be modified.
func (m *Matrix) Chunks() []*Chunk { return m.list }

func (m *Matrix) props(id material.ID) *material.Properties { return m.reg.Get(id) }

func (m *Matrix) reserved(cc ChunkCoord) bool {
	return cc.X < m.opts.MinChunk || cc.Y < m.opts.MinChunk
}

// NewChunk allocates a vacuum-filled chunk for a generator.
func (m *Matrix) NewChunk(coord ChunkCoord) *Chunk {
	return newChunk(coord, m.size, m.reg, m.opts.Seed)
}

// NewVoxel returns a fresh voxel of material id with its default state.
func (m *Matrix) NewVoxel(id material.ID, at image.Point) Voxel {
	v := newVoxel(m.reg, id, m.rng)
	v.Position = at
	return v
}

// ChunkAt returns the loaded chunk at cc without generating it.
func (m *Matrix) ChunkAt(cc ChunkCoord) *Chunk { return m.chunks[cc] }

func (m *Matrix) chunkOf(p image.Point) *Chunk { return m.chunks[ChunkOf(p, m.size)] }

// cell is the non-loading accessor used by every hot path.
func (m *Matrix) cell(p image.Point) *Voxel {
	c := m.chunkOf(p)
	if c == nil {
		return nil
	}
	return c.At(p.X-c.Origin.X, p.Y-c.Origin.Y)
}

// VirtualGetAt returns the voxel at world position p, generating its chunk
// if needed. With includeObjects, an occupied object cell at p wins over
// the grid. Reserved coordinates yield nil.
func (m *Matrix) VirtualGetAt(p image.Point, includeObjects bool) *Voxel {
	if includeObjects {
		if v := m.objectVoxelAt(p); v != nil {
			return v
		}
	}
	cc := ChunkOf(p, m.size)
	if m.reserved(cc) {
		return nil
	}
	c := m.chunks[cc]
	if c == nil {
		c = m.GenerateChunk(cc)
		if c == nil {
			return nil
		}
	}
	c.countdown = m.opts.EvictionTicks
	return c.At(p.X-c.Origin.X, p.Y-c.Origin.Y)
}

// VirtualGetAtNoLoad is VirtualGetAt for callers that must not generate
// chunks.
func (m *Matrix) VirtualGetAtNoLoad(p image.Point, includeObjects bool) *Voxel {
	if includeObjects {
		if v := m.objectVoxelAt(p); v != nil {
			return v
		}
	}
	return m.cell(p)
}

// GenerateChunk loads the chunk at cc under the chunk lock.
func (m *Matrix) GenerateChunk(cc ChunkCoord) *Chunk {
	m.locks.Chunks.Lock()
	defer m.locks.Chunks.Unlock()
	return m.generateChunkLocked(cc)
}

func (m *Matrix) generateChunkLocked(cc ChunkCoord) *Chunk {
	if c, ok := m.chunks[cc]; ok {
		return c
	}
	if m.reserved(cc) {
		return nil
	}

	var c *Chunk
	if m.gen != nil {
		c = m.gen(cc, m)
	}
	if c == nil {
		c = m.NewChunk(cc)
	}
	c.ticket = m.tickets.Acquire()
	c.countdown = m.opts.EvictionTicks
	c.MarkAll()
	c.collidersStale.Store(true)

	m.chunks[cc] = c
	m.list = append(m.list, c)
	m.parity[cc.Parity()] = append(m.parity[cc.Parity()], c)
	for len(m.byTicket) <= c.ticket {
		m.byTicket = append(m.byTicket, nil)
	}
	m.byTicket[c.ticket] = c

	m.rebuildChunkColliders(c)
	m.log.Debug("chunk generated", "x", cc.X, "y", cc.Y, "ticket", c.ticket)
	return c
}

// DeleteChunk unloads the chunk at cc under the chunk lock.
func (m *Matrix) DeleteChunk(cc ChunkCoord) bool {
	m.locks.Chunks.Lock()
	defer m.locks.Chunks.Unlock()
	return m.deleteChunkLocked(cc)
}

func (m *Matrix) deleteChunkLocked(cc ChunkCoord) bool {
	c, ok := m.chunks[cc]
	if !ok {
		return false
	}
	delete(m.chunks, cc)
	m.list = removeChunk(m.list, c)
	m.parity[cc.Parity()] = removeChunk(m.parity[cc.Parity()], c)
	m.byTicket[c.ticket] = nil
	m.tickets.Release(c.ticket)
	if c.body != 0 {
		m.phys.DestroyBody(c.body)
		c.body = 0
	}
	m.log.Debug("chunk deleted", "x", cc.X, "y", cc.Y, "ticket", c.ticket)
	c.ticket = -1
	return true
}

func removeChunk(list []*Chunk, c *Chunk) []*Chunk {
	for i, o := range list {
		if o == c {
			last := len(list) - 1
			list[i] = list[last]
			list[last] = nil
			return list[:last]
		}
	}
	return list
}

// LoadRegion generates every chunk overlapping the world rectangle r.
func (m *Matrix) LoadRegion(r image.Rectangle) int {
	lo := ChunkOf(r.Min, m.size)
	hi := ChunkOf(r.Max.Sub(image.Pt(1, 1)), m.size)
	n := 0
	for y := lo.Y; y <= hi.Y; y++ {
		for x := lo.X; x <= hi.X; x++ {
			if m.GenerateChunk(ChunkCoord{x, y}) != nil {
				n++
			}
		}
	}
	return n
}

// Step advances the automaton one tick: commit dirty rectangles, run the
// four parity passes in order, then move particles.
func (m *Matrix) Step() {
	m.tick++
	for _, c := range m.list {
		c.commitDirty()
	}
	for p := range m.parity {
		var g errgroup.Group
		g.SetLimit(m.opts.Workers)
		for _, c := range m.parity[p] {
			g.Go(func() error {
				c.UpdateVoxels(m)
				return nil
			})
		}
		_ = g.Wait()
	}
	m.UpdateParticles()
}

// StepVoxel runs the rule of the voxel at p at most once per tick. A voxel
// that already stepped reports activity without changing anything.
func (m *Matrix) StepVoxel(p image.Point) bool {
	c := m.chunkOf(p)
	if c == nil {
		return false
	}
	return m.stepIn(c, p)
}

func (m *Matrix) stepIn(c *Chunk, p image.Point) bool {
	v := c.At(p.X-c.Origin.X, p.Y-c.Origin.Y)
	if v.Stepped == m.tick {
		m.markCell(p)
		return true
	}
	v.Stepped = m.tick

	s := stepper{m: m, rng: c.rng}
	active, to := s.step(p)
	if active {
		m.markCell(p)
		if to != p {
			m.markCell(to)
		}
	}
	return active
}

// markCell schedules p for the next tick. Edge cells also mark the facing
// cell of the neighbouring chunk so activity crosses chunk borders.
func (m *Matrix) markCell(p image.Point) {
	c := m.chunkOf(p)
	if c == nil {
		return
	}
	x, y := p.X-c.Origin.X, p.Y-c.Origin.Y
	c.include(x, y)

	last := m.size - 1
	mirror := func(dx, dy, nx, ny int) {
		if n := m.chunks[c.Coord.Add(dx, dy)]; n != nil {
			n.include(nx, ny)
		}
	}
	if x == 0 {
		mirror(-1, 0, last, y)
	}
	if x == last {
		mirror(1, 0, 0, y)
	}
	if y == 0 {
		mirror(0, -1, x, last)
	}
	if y == last {
		mirror(0, 1, x, 0)
	}
}

func (m *Matrix) markSolidChange(p image.Point, before, after material.ID) {
	if m.props(before).IsSolid() == m.props(after).IsSolid() {
		return
	}
	if c := m.chunkOf(p); c != nil {
		c.collidersStale.Store(true)
	}
}

// put overwrites the cell at p with v. The previous voxel is dropped.
func (m *Matrix) put(p image.Point, v Voxel) bool {
	dst := m.cell(p)
	if dst == nil {
		return false
	}
	old := dst.Material
	v.Position = p
	*dst = v
	m.markCell(p)
	m.markSolidChange(p, old, v.Material)
	return true
}

func (m *Matrix) clear(p image.Point) {
	m.put(p, Voxel{Temperature: material.NeutralTemperature})
}

// replace turns the voxel at p into material id, keeping its quantity,
// temperature and tick stamp.
func (m *Matrix) replace(p image.Point, id material.ID, rng *rand.Rand) {
	old := m.cell(p)
	if old == nil {
		return
	}
	nv := newVoxel(m.reg, id, rng)
	if id != material.Vacuum && old.Quantity > 0 {
		nv.Quantity = old.Quantity
	}
	nv.Temperature = old.Temperature
	nv.Stepped = old.Stepped
	m.put(p, nv)
}

// ShouldTransitionToID reports the material v turns into at its current
// temperature.
func (m *Matrix) ShouldTransitionToID(v *Voxel) (material.ID, bool) {
	return m.props(v.Material).TransitionFor(v.Temperature)
}

func (m *Matrix) transition(p image.Point, rng *rand.Rand) bool {
	v := m.cell(p)
	if v == nil {
		return false
	}
	id, ok := m.ShouldTransitionToID(v)
	if !ok {
		return false
	}
	m.replace(p, id, rng)
	return true
}

func (m *Matrix) ignite(p image.Point, rng *rand.Rand) {
	if m.fire == material.None {
		return
	}
	v := m.cell(p)
	if v == nil {
		return
	}
	f := newVoxel(m.reg, m.fire, rng)
	f.Temperature = max(f.Temperature, v.Temperature)
	f.Stepped = v.Stepped
	m.put(p, f)
}

// SetInterest sets the chunk rectangle kept loaded regardless of activity.
func (m *Matrix) SetInterest(r image.Rectangle) { m.interest = r }

func (m *Matrix) Interest() image.Rectangle { return m.interest }

// TotalQuantity sums quantity over grid, particles and objects.
func (m *Matrix) TotalQuantity() float64 {
	var sum float64
	for _, c := range m.list {
		for i := range c.voxels {
			sum += c.voxels[i].Quantity
		}
	}
	for _, p := range m.particles {
		sum += p.Voxel.Quantity
	}
	for _, o := range m.objects {
		for i := range o.voxels {
			sum += o.voxels[i].Quantity
		}
	}
	return sum
}

// ActiveChunks counts chunks with a non-empty dirty rectangle.
func (m *Matrix) ActiveChunks() int {
	n := 0
	for _, c := range m.list {
		if !c.Settled() {
			n++
		}
	}
	return n
}
