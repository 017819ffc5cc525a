package world

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/san-kum/voxelworld/internal/material"
)

const (
	// gravity is added to a falling voxel's speed each step, in cells.
	gravity = 0.5
	// ambientGasWeight is what vacuum weighs for buoyancy, so light gases
	// rise through empty space and heavy ones sink.
	ambientGasWeight = 0.5
	fireHeatRate     = 0.25
	acidBite         = 0.2
)

// stepper runs the step rules for one chunk with that chunk's rng.
type stepper struct {
	m   *Matrix
	rng *rand.Rand
}

// step applies the transition check and then the rule for the voxel's kind.
// It reports whether anything changed and where the voxel ended up.
func (s *stepper) step(p image.Point) (bool, image.Point) {
	v := s.m.cell(p)
	if v == nil {
		return false, p
	}
	if s.m.transition(p, s.rng) {
		return true, p
	}
	props := s.m.props(v.Material)
	switch props.Kind {
	case material.KindSolid:
		return s.solid(p, v, props)
	case material.KindLiquid:
		return s.liquid(p, v, props)
	case material.KindGas:
		return s.gas(p, v, props)
	case material.KindFire:
		return s.fire(p, v, props)
	case material.KindAcid:
		return s.acid(p, v, props)
	}
	return false, p
}

func (s *stepper) sides() [2]int {
	if s.rng.IntN(2) == 0 {
		return [2]int{-1, 1}
	}
	return [2]int{1, -1}
}

func (s *stepper) fallTarget(p image.Point, v *Voxel, canEnter func(image.Point) bool) image.Point {
	v.Velocity[1] = math.Min(v.Velocity[1]+gravity, maxFall)
	dist := max(1, int(v.Velocity[1]))
	target := p
	for i := 1; i <= dist; i++ {
		q := p.Add(image.Pt(0, i))
		if !canEnter(q) {
			break
		}
		target = q
	}
	return target
}

func (s *stepper) solid(p image.Point, v *Voxel, props *material.Properties) (bool, image.Point) {
	if !props.Movable() {
		return false, p
	}
	canEnter := func(q image.Point) bool {
		n := s.m.cell(q)
		if n == nil {
			return false
		}
		np := s.m.props(n.Material)
		return np.Kind.Capability().MovedBySolid && np.Density < props.Density
	}

	if canEnter(p.Add(down)) {
		v.Falling = true
		target := s.fallTarget(p, v, canEnter)
		s.topple(p)
		s.m.Swap(p, target)
		return true, target
	}

	if v.Velocity[1] > 1 && v.Velocity[0] == 0 {
		v.Velocity[0] = v.Velocity[1] * 0.5 * float64(s.sides()[0])
	}
	v.Velocity[1] = 0
	if !v.Falling {
		return false, p
	}

	for _, d := range [2]image.Point{{-1, 1}, {1, 1}} {
		if q := p.Add(d); canEnter(q) {
			s.m.Swap(p, q)
			return true, q
		}
	}
	if v.Velocity[0] != 0 {
		q := p.Add(image.Pt(int(math.Copysign(1, v.Velocity[0])), 0))
		v.Velocity[0] *= 0.5
		if math.Abs(v.Velocity[0]) < 0.5 {
			v.Velocity[0] = 0
		}
		if canEnter(q) {
			s.m.Swap(p, q)
			return true, q
		}
	}
	v.Velocity[0] = 0
	v.Falling = false
	return false, p
}

// topple wakes the resting solids diagonal to a falling one unless their
// inertia holds them in place.
func (s *stepper) topple(p image.Point) {
	for _, d := range diagonals {
		q := p.Add(d)
		n := s.m.cell(q)
		if n == nil || n.Falling {
			continue
		}
		np := s.m.props(n.Material)
		if !np.IsSolid() || !np.Movable() {
			continue
		}
		if s.rng.Float64() >= np.InertiaResistance {
			n.Falling = true
			s.m.markCell(q)
		}
	}
}

func (s *stepper) liquid(p image.Point, v *Voxel, props *material.Properties) (bool, image.Point) {
	if to, ok := s.settleDensity(p, v); ok {
		return true, to
	}
	canEnter := func(q image.Point) bool {
		n := s.m.cell(q)
		if n == nil {
			return false
		}
		np := s.m.props(n.Material)
		switch np.Phase() {
		case material.PhaseGas:
			return true
		case material.PhaseLiquid:
			return n.Material != v.Material && np.Density < props.Density
		}
		return false
	}

	if canEnter(p.Add(down)) {
		target := s.fallTarget(p, v, canEnter)
		s.m.Swap(p, target)
		return true, target
	}
	v.Velocity[1] = 0

	sides := s.sides()
	for _, dx := range sides {
		if q := p.Add(image.Pt(dx, 1)); canEnter(q) {
			s.m.Swap(p, q)
			return true, q
		}
	}

	best, bestDist := p, 0
	for _, dx := range sides {
		for i := 1; i <= props.DispersionRate; i++ {
			q := p.Add(image.Pt(dx*i, 0))
			if !canEnter(q) {
				break
			}
			if i > bestDist {
				best, bestDist = q, i
			}
		}
	}
	if bestDist > 0 {
		s.m.Swap(p, best)
		return true, best
	}
	return false, p
}

// settleDensity moves quantity between a liquid and the same liquid above
// or below it toward DesiredDensity. An overfull cell pushes its excess into
// the same liquid above, or splits it into vacuum there.
func (s *stepper) settleDensity(p image.Point, v *Voxel) (image.Point, bool) {
	below := s.m.cell(p.Add(down))
	if below != nil && below.Material == v.Material && below.Quantity < DesiredDensity {
		t := math.Min(DesiredDensity-below.Quantity, v.Quantity)
		merge(below, t, v.Temperature)
		v.Quantity -= t
		s.m.markCell(p.Add(down))
		if v.Quantity <= 0 {
			s.m.clear(p)
		}
		return p, true
	}

	if v.Quantity > DesiredDensity {
		q := p.Add(up)
		above := s.m.cell(q)
		switch {
		case above == nil:
		case above.Material == v.Material:
			merge(above, v.Quantity-DesiredDensity, v.Temperature)
			v.Quantity = DesiredDensity
			s.m.markCell(q)
			return p, true
		case above.Material == material.Vacuum:
			split := *v
			split.Quantity = v.Quantity - DesiredDensity
			split.Velocity = [2]float64{}
			v.Quantity = DesiredDensity
			s.m.put(q, split)
			return q, true
		}
	}
	return p, false
}

func (s *stepper) gas(p image.Point, v *Voxel, props *material.Properties) (bool, image.Point) {
	if v.Material == material.Vacuum {
		return false, p
	}
	v.Quantity -= props.Dissipation
	if v.Quantity < MinGasQuantity {
		s.m.clear(p)
		return true, p
	}
	active := props.Dissipation > 0
	if s.equalize(p, v) {
		active = true
	}
	if q, ok := s.buoyancy(p, v, props); ok {
		s.m.Swap(p, q)
		return true, q
	}
	if props.DispersionRate > 0 {
		dx := s.sides()[0]
		n := 1 + s.rng.IntN(props.DispersionRate)
		target := p
		for i := 1; i <= n; i++ {
			q := p.Add(image.Pt(dx*i, 0))
			o := s.m.cell(q)
			if o == nil || o.Material == v.Material || s.m.props(o.Material).Phase() != material.PhaseGas {
				break
			}
			target = q
		}
		if target != p {
			s.m.Swap(p, target)
			return true, target
		}
	}
	return active, p
}

// equalize pushes quantity into same-material neighbours that hold much
// less.
func (s *stepper) equalize(p image.Point, v *Voxel) bool {
	moved := false
	for _, d := range neighbours4 {
		q := p.Add(d)
		n := s.m.cell(q)
		if n == nil || n.Material != v.Material {
			continue
		}
		if diff := v.Quantity - n.Quantity; diff > GasEqualizeThreshold {
			merge(n, diff/2, v.Temperature)
			v.Quantity -= diff / 2
			s.m.markCell(q)
			moved = true
		}
	}
	return moved
}

func (s *stepper) weight(n *Voxel) float64 {
	if n.Material == material.Vacuum {
		return ambientGasWeight
	}
	return s.m.props(n.Material).Density * n.Quantity
}

// buoyancy returns the cell a gas swaps into when it is lighter than the
// gas above or heavier than the gas below.
func (s *stepper) buoyancy(p image.Point, v *Voxel, props *material.Properties) (image.Point, bool) {
	own := props.Density * v.Quantity
	if props.Density == 0 {
		return p, false
	}
	for _, d := range [2]image.Point{up, down} {
		q := p.Add(d)
		n := s.m.cell(q)
		if n == nil || n.Material == v.Material || s.m.props(n.Material).Phase() != material.PhaseGas {
			continue
		}
		w := s.weight(n)
		if (d == up && own < w) || (d == down && own > w) {
			return q, true
		}
	}
	return p, false
}

func (s *stepper) fire(p image.Point, v *Voxel, props *material.Properties) (bool, image.Point) {
	v.Quantity -= math.Max(props.Dissipation, MinGasQuantity)
	if v.Quantity < MinGasQuantity {
		if props.BurnsInto != material.None {
			s.m.replace(p, props.BurnsInto, s.rng)
			if n := s.m.cell(p); n != nil {
				n.Quantity = 1
			}
		} else {
			s.m.clear(p)
		}
		return true, p
	}

	for _, d := range neighbours4 {
		q := p.Add(d)
		n := s.m.cell(q)
		if n == nil || n.Material == v.Material {
			continue
		}
		np := s.m.props(n.Material)
		exchangeHeat(v, props, n, np, fireHeatRate)
		s.m.markCell(q)
		if np.Flammability > 0 && np.Kind.Capability().Ignitable && s.rng.Float64() < np.Flammability {
			s.m.ignite(q, s.rng)
		}
	}

	if q, ok := s.buoyancy(p, v, props); ok {
		s.m.Swap(p, q)
		return true, q
	}
	return true, p
}

func (s *stepper) acid(p image.Point, v *Voxel, props *material.Properties) (bool, image.Point) {
	for _, d := range neighbours4 {
		q := p.Add(d)
		n := s.m.cell(q)
		if n == nil || n.Material == v.Material || !s.m.props(n.Material).IsSolid() {
			continue
		}
		if s.rng.Float64() >= acidBite {
			continue
		}
		s.m.clear(q)
		v.Quantity -= math.Max(props.Dissipation, MinGasQuantity)
		if v.Quantity < MinGasQuantity {
			s.m.clear(p)
		}
		return true, p
	}
	return s.liquid(p, v, props)
}

// exchangeHeat moves energy between two voxels in proportion to the lower
// conductivity. The flow is capped so neither side passes the common
// equilibrium temperature, and skipped when either side stores no heat.
func exchangeHeat(a *Voxel, pa *material.Properties, b *Voxel, pb *material.Properties, rate float64) {
	ca, cb := pa.HeatCapacity, pb.HeatCapacity
	if ca <= 0 || cb <= 0 {
		return
	}
	flow := (b.Temperature - a.Temperature) * math.Min(pa.HeatConductivity, pb.HeatConductivity) * rate
	eq := (ca*a.Temperature + cb*b.Temperature) / (ca + cb)
	if limit := math.Abs(eq-a.Temperature) * ca; math.Abs(flow) > limit {
		flow = math.Copysign(limit, flow)
	}
	a.Temperature += flow / ca
	b.Temperature -= flow / cb
}
