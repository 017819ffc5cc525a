package world

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/voxelworld/internal/collider"
	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/physics"
)

// Object is a rigid cluster of voxels driven by the physics engine. Its
// buffer is W×H local cells; Position is the world location of the local
// origin and Rotation turns the buffer about it.
type Object struct {
	W, H     int
	Position mgl64.Vec2
	Rotation float64
	Body     physics.BodyID

	voxels []Voxel
	stale  bool
}

func NewObject(w, h int, pos mgl64.Vec2) *Object {
	o := &Object{W: w, H: h, Position: pos, voxels: make([]Voxel, w*h)}
	for i := range o.voxels {
		o.voxels[i].Temperature = material.NeutralTemperature
	}
	return o
}

// At returns the local cell, or nil outside the buffer.
func (o *Object) At(x, y int) *Voxel {
	if x < 0 || y < 0 || x >= o.W || y >= o.H {
		return nil
	}
	return &o.voxels[y*o.W+x]
}

// Receive stores v in local cell (x, y), replacing what was there.
func (o *Object) Receive(x, y int, v Voxel) {
	dst := o.At(x, y)
	if dst == nil {
		return
	}
	v.Position = image.Pt(x, y)
	v.Falling = false
	v.Velocity = mgl64.Vec2{}
	*dst = v
	o.stale = true
}

// ToWorld returns the world position of the centre of local cell (x, y).
func (o *Object) ToWorld(x, y int) mgl64.Vec2 {
	local := mgl64.Vec2{float64(x) + 0.5, float64(y) + 0.5}
	return o.Position.Add(mgl64.Rotate2D(o.Rotation).Mul2x1(local))
}

// Local maps a world cell onto the buffer.
func (o *Object) Local(p image.Point) (int, int, bool) {
	rel := toVec(p).Add(mgl64.Vec2{0.5, 0.5}).Sub(o.Position)
	l := mgl64.Rotate2D(-o.Rotation).Mul2x1(rel)
	x, y := int(math.Floor(l[0])), int(math.Floor(l[1]))
	return x, y, x >= 0 && y >= 0 && x < o.W && y < o.H
}

func (o *Object) mask() *collider.Mask {
	mask := collider.NewMask(o.W, o.H)
	for y := 0; y < o.H; y++ {
		for x := 0; x < o.W; x++ {
			if o.voxels[y*o.W+x].Material != material.Vacuum {
				mask.Set(x, y, true)
			}
		}
	}
	return mask
}

func (m *Matrix) Objects() []*Object { return m.objects }

// AddObject hands o to the physics engine as a dynamic body.
func (m *Matrix) AddObject(o *Object) {
	m.objects = append(m.objects, o)
	m.rebuildObjectBody(o)
}

func (m *Matrix) RemoveObject(o *Object) bool {
	for i, other := range m.objects {
		if other != o {
			continue
		}
		m.objects = append(m.objects[:i], m.objects[i+1:]...)
		if o.Body != 0 {
			m.phys.DestroyBody(o.Body)
			o.Body = 0
		}
		return true
	}
	return false
}

func (m *Matrix) rebuildObjectBody(o *Object) {
	if o.Body != 0 {
		m.phys.DestroyBody(o.Body)
		o.Body = 0
	}
	o.stale = false
	res := collider.Generate(o.mask(), mgl64.Vec2{}, collider.DefaultOptions())
	if res.Empty() {
		return
	}
	o.Body = m.phys.CreateBody(physics.BodyDef{Position: o.Position, Rotation: o.Rotation})
	for _, t := range res.Triangles {
		m.phys.CreatePolygonShape(o.Body, physics.Triangle(t))
	}
}

// SyncObjects pulls post-step poses from the physics engine, runs phase
// transitions on object voxels and donates any that stop being solid to
// the grid.
func (m *Matrix) SyncObjects() {
	for _, o := range m.objects {
		if pos, rot, ok := m.phys.Transform(o.Body); ok {
			o.Position, o.Rotation = pos, rot
		}
		for i := range o.voxels {
			v := &o.voxels[i]
			if v.Material == material.Vacuum {
				continue
			}
			id, ok := m.ShouldTransitionToID(v)
			if !ok {
				continue
			}
			nv := newVoxel(m.reg, id, m.rng)
			nv.Quantity = v.Quantity
			nv.Temperature = v.Temperature
			nv.Position = v.Position
			*v = nv
			o.stale = true
		}
		m.donate(o)
		if o.stale {
			m.rebuildObjectBody(o)
		}
	}
}

// donate moves every non-solid voxel of o into the grid.
func (m *Matrix) donate(o *Object) {
	for y := 0; y < o.H; y++ {
		for x := 0; x < o.W; x++ {
			v := o.At(x, y)
			if v.Material == material.Vacuum || m.props(v.Material).IsSolid() {
				continue
			}
			out := *v
			out.Position = toPoint(o.ToWorld(x, y))
			*v = Voxel{Temperature: material.NeutralTemperature, Position: image.Pt(x, y)}
			o.stale = true
			m.PlaceVoxelAtNoLoad(out, false, false)
		}
	}
}

// objectCellAt finds an occupied object cell covering world cell p.
func (m *Matrix) objectCellAt(p image.Point) (*Object, int, int, bool) {
	for _, o := range m.objects {
		x, y, ok := o.Local(p)
		if !ok || o.At(x, y).Material == material.Vacuum {
			continue
		}
		return o, x, y, true
	}
	return nil, 0, 0, false
}

func (m *Matrix) objectVoxelAt(p image.Point) *Voxel {
	if o, x, y, ok := m.objectCellAt(p); ok {
		return o.At(x, y)
	}
	return nil
}
