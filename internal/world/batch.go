package world

import (
	"image"
	"math"

	"github.com/san-kum/voxelworld/internal/compute"
	"github.com/san-kum/voxelworld/internal/material"
)

// scatterEpsilon ignores device round-off when writing results back.
const scatterEpsilon = 1e-4

// BatchSimulate gathers every loaded chunk into the device frame, runs the
// enabled passes and scatters the results back. Heat results re-run the
// phase transition check; reaction records are applied by destructive
// placement. The caller holds both locks.
func (m *Matrix) BatchSimulate() error {
	b := m.opts.Batch
	if m.device == nil || len(m.list) == 0 || !(b.Heat || b.Pressure || b.Reactions) {
		return nil
	}

	m.gather()
	if err := m.device.Upload(&m.frame); err != nil {
		return err
	}
	params := compute.Params{
		HeatRate:     b.HeatRate,
		PressureRate: b.PressureRate,
		Seed:         uint32(m.opts.Seed),
		Tick:         uint32(m.tick),
	}

	if b.Heat {
		if err := m.device.Dispatch(compute.PassHeat, params); err != nil {
			return err
		}
		if err := m.device.ReadTemperature(m.frame.Temperature); err != nil {
			return err
		}
	}
	if b.Pressure {
		if err := m.device.Dispatch(compute.PassPressure, params); err != nil {
			return err
		}
		if err := m.device.ReadQuantity(m.frame.Quantity); err != nil {
			return err
		}
	}
	m.scatter(b.Heat, b.Pressure)

	if b.Reactions {
		if err := m.device.Dispatch(compute.PassReactions, params); err != nil {
			return err
		}
		records, err := m.device.ReadReactions()
		if err != nil {
			return err
		}
		m.applyReactions(records)
	}
	return nil
}

func (m *Matrix) gather() {
	f := &m.frame
	f.Resize(m.tickets.Cap(), m.size)
	f.SetRules(m.rules, m.reg.Len())

	cells := f.CellsPerChunk
	for _, c := range m.list {
		t := c.ticket
		link := f.Links[t*compute.LinkStride : (t+1)*compute.LinkStride]
		link[0] = int32(t)
		for i, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			if n := m.chunks[c.Coord.Add(d[0], d[1])]; n != nil {
				link[i+1] = int32(n.ticket)
			}
		}

		base := t * cells
		for i := range c.voxels {
			v := &c.voxels[i]
			p := m.props(v.Material)
			f.Temperature[base+i] = float32(v.Temperature)
			f.Quantity[base+i] = float32(v.Quantity)
			f.HeatCapacity[base+i] = float32(p.HeatCapacity)
			f.Conductivity[base+i] = float32(p.HeatConductivity)
			f.Material[base+i] = int32(v.Material)
			if v.Material != material.Vacuum && p.Phase() != material.PhaseSolid {
				f.Mobile[base+i] = 1
			}
		}
	}
}

func (m *Matrix) scatter(heat, pressure bool) {
	f := &m.frame
	for _, c := range m.list {
		base := c.ticket * f.CellsPerChunk
		for i := range c.voxels {
			v := &c.voxels[i]
			changed := false
			if heat {
				if t := float64(f.Temperature[base+i]); math.Abs(t-v.Temperature) > scatterEpsilon {
					v.Temperature = t
					changed = true
				}
			}
			if pressure && f.Mobile[base+i] == 1 {
				if q := float64(f.Quantity[base+i]); math.Abs(q-v.Quantity) > scatterEpsilon {
					v.Quantity = q
					changed = true
				}
			}
			if !changed {
				continue
			}
			p := c.Origin.Add(image.Pt(i%c.size, i/c.size))
			m.markCell(p)
			if heat {
				m.transition(p, c.rng)
			}
		}
	}
}

func (m *Matrix) applyReactions(records []compute.ReactionRecord) {
	for _, r := range records {
		if int(r.Ticket) >= len(m.byTicket) {
			continue
		}
		c := m.byTicket[r.Ticket]
		if c == nil {
			continue
		}
		local := int(r.Local)
		p := c.Origin.Add(image.Pt(local%c.size, local/c.size))
		old := c.voxels[local]
		id := material.ID(r.Material)

		nv := newVoxel(m.reg, id, c.rng)
		nv.Temperature = old.Temperature
		if id != material.Vacuum && !m.props(id).IsSolid() && old.Quantity > 0 {
			nv.Quantity = old.Quantity
		}
		nv.Falling = m.props(id).IsSolid() && m.props(id).Movable() && old.Falling
		nv.Position = p
		m.PlaceVoxelAtNoLoad(nv, true, false)
	}
}
