package world

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/physics"
)

// scorchDarken scales the colour of solids caught in the scorch band.
const scorchDarken = 0.6

// ExplodeAt blasts a circle of radius around center. Rays are cast from the
// centre; every cell inside IgniteFraction of the radius becomes fire. Out
// to the radius, gases, unmovable solids and object voxels become fire while
// movable solids are thrown as particles. Unmovable solids out to
// ScorchFraction of the radius are darkened and heated. The physics engine
// receives exactly one explosion event.
func (m *Matrix) ExplodeAt(center image.Point, radius float64) {
	if radius <= 0 {
		return
	}
	cfg := m.opts.Explosion
	inner := radius * cfg.IgniteFraction
	outer := radius * math.Max(cfg.ScorchFraction, 1)
	origin := toVec(center).Add(mgl64.Vec2{0.5, 0.5})

	seen := make(map[image.Point]struct{})
	for i := 0; i < cfg.Rays; i++ {
		angle := 2 * math.Pi * float64(i) / float64(cfg.Rays)
		dir := mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
		for d := 0.0; d <= outer; d += 0.5 {
			q := toPoint(origin.Add(dir.Mul(d)))
			if _, ok := seen[q]; ok {
				continue
			}
			seen[q] = struct{}{}
			dist := toVec(q).Add(mgl64.Vec2{0.5, 0.5}).Sub(origin).Len()
			m.blast(q, dist, radius, inner, angle)
		}
	}

	for _, o := range m.objects {
		m.blastObject(o, origin, radius)
	}

	m.phys.ApplyExplosion(physics.Explosion{
		Position:  origin,
		Radius:    radius,
		Falloff:   outer,
		Magnitude: cfg.Magnitude,
	})
}

func (m *Matrix) blast(q image.Point, dist, radius, inner, angle float64) {
	v := m.cell(q)
	if v == nil {
		return
	}
	p := m.props(v.Material)

	switch {
	case dist <= inner:
		m.ignite(q, m.rng)
	case dist <= radius:
		switch {
		case p.IsSolid() && p.Movable():
			payload := *v
			m.clear(q)
			spread := (m.rng.Float64() - 0.5) * 0.3
			dir := mgl64.Vec2{math.Cos(angle + spread), math.Sin(angle + spread)}
			speed := m.opts.Explosion.ParticleSpeed * (1 - dist/radius*0.5)
			m.SpawnParticle(payload, toVec(q), dir.Mul(speed))
		case p.Phase() == material.PhaseGas || p.IsSolid():
			m.ignite(q, m.rng)
		}
	case dist <= radius*math.Max(m.opts.Explosion.ScorchFraction, 1):
		if p.IsSolid() && !p.Movable() {
			v.Color.R = uint8(float64(v.Color.R) * scorchDarken)
			v.Color.G = uint8(float64(v.Color.G) * scorchDarken)
			v.Color.B = uint8(float64(v.Color.B) * scorchDarken)
			v.Temperature += 100 * (1 - (dist-radius)/radius)
			m.markCell(q)
		}
	}
}

func (m *Matrix) blastObject(o *Object, origin mgl64.Vec2, radius float64) {
	if m.fire == material.None {
		return
	}
	hit := false
	for y := 0; y < o.H; y++ {
		for x := 0; x < o.W; x++ {
			v := o.At(x, y)
			if v.Material == material.Vacuum {
				continue
			}
			if o.ToWorld(x, y).Sub(origin).Len() > radius {
				continue
			}
			f := newVoxel(m.reg, m.fire, m.rng)
			f.Temperature = max(f.Temperature, v.Temperature)
			*v = f
			hit = true
		}
	}
	if hit {
		m.donate(o)
	}
}
