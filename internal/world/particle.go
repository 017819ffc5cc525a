package world

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/voxelworld/internal/material"
)

// particleGravity is added to a particle's downward speed per tick.
const particleGravity = 0.2

// Particle is a voxel in ballistic flight. It is outside the grid until it
// hits something and settles.
type Particle struct {
	Voxel    Voxel
	Position mgl64.Vec2
	Velocity mgl64.Vec2
}

func (m *Matrix) SpawnParticle(v Voxel, pos, vel mgl64.Vec2) *Particle {
	p := &Particle{Voxel: v, Position: pos, Velocity: vel}
	m.particles = append(m.particles, p)
	return p
}

func (m *Matrix) Particles() []*Particle { return m.particles }

func (m *Matrix) ParticleCount() int { return len(m.particles) }

// UpdateParticles moves every particle one tick. A particle that reaches a
// non-gas cell settles into the last free cell on its path; one that leaves
// the loaded world is dropped.
func (m *Matrix) UpdateParticles() {
	alive := m.particles[:0]
	for _, p := range m.particles {
		if m.advance(p) {
			alive = append(alive, p)
		}
	}
	for i := len(alive); i < len(m.particles); i++ {
		m.particles[i] = nil
	}
	m.particles = alive
}

func (m *Matrix) advance(p *Particle) bool {
	p.Velocity[1] += particleGravity
	steps := max(1, int(math.Ceil(p.Velocity.Len())))
	inc := p.Velocity.Mul(1 / float64(steps))

	last := toPoint(p.Position)
	for i := 0; i < steps; i++ {
		next := p.Position.Add(inc)
		q := toPoint(next)
		if q != last {
			n := m.cell(q)
			if n == nil {
				return false
			}
			if m.props(n.Material).Phase() != material.PhaseGas {
				m.settle(p, last)
				return false
			}
			last = q
		}
		p.Position = next
	}
	return true
}

func (m *Matrix) settle(p *Particle, at image.Point) {
	v := p.Voxel
	v.Position = at
	v.Velocity = mgl64.Vec2{}
	v.Falling = true
	m.PlaceVoxelAtNoLoad(v, false, false)
}
