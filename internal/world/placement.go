package world

import (
	"image"

	"github.com/san-kum/voxelworld/internal/material"
)

const (
	// placementScan is how far upward a non-destructive placement looks for
	// a merge or displacement target.
	placementScan = 8
	// placementDepth bounds the sideways displacement recursion.
	placementDepth = 4
)

// mergeOrder is the fixed neighbourhood a placement merges into: the
// target itself, then below, left, right and above.
var mergeOrder = [5]image.Point{{0, 0}, down, left, right, up}

// PlaceVoxelAt puts v at v.Position. A destructive placement, or one onto
// an unmovable solid, overwrites the target. Otherwise a gas or liquid
// merges into a nearby cell of the same material, or displaces a same-phase
// cell above sideways, before falling back to overwriting the target.
// With includeObjects, a placement onto an occupied object cell goes into
// the object instead: destructive placements overwrite it, gentle ones only
// merge into the same material. It reports whether v ended up anywhere.
func (m *Matrix) PlaceVoxelAt(v Voxel, destructive, includeObjects bool) bool {
	return m.place(v, destructive, includeObjects, true, 0)
}

// PlaceVoxelAtNoLoad never generates chunks; placements into unloaded space
// are dropped.
func (m *Matrix) PlaceVoxelAtNoLoad(v Voxel, destructive, includeObjects bool) bool {
	return m.place(v, destructive, includeObjects, false, 0)
}

func (m *Matrix) place(v Voxel, destructive, includeObjects, load bool, depth int) bool {
	pos := v.Position
	if includeObjects {
		if o, x, y, ok := m.objectCellAt(pos); ok {
			dst := o.At(x, y)
			switch {
			case destructive:
				o.Receive(x, y, v)
			case dst.Material == v.Material:
				merge(dst, v.Quantity, v.Temperature)
			default:
				return false
			}
			return true
		}
	}

	var target *Voxel
	if load {
		target = m.VirtualGetAt(pos, false)
	} else {
		target = m.cell(pos)
	}
	if target == nil {
		return false
	}

	tp := m.props(target.Material)
	if destructive || (tp.IsSolid() && !tp.Movable()) {
		return m.put(pos, v)
	}

	vp := m.props(v.Material)
	if vp.IsSolid() {
		return m.put(pos, v)
	}

	for _, d := range mergeOrder {
		q := pos.Add(d)
		n := m.cell(q)
		if n != nil && n.Material == v.Material {
			merge(n, v.Quantity, v.Temperature)
			m.markCell(q)
			m.markCell(pos)
			return true
		}
	}

	for i := 1; i <= placementScan; i++ {
		q := pos.Add(image.Pt(0, -i))
		n := m.cell(q)
		if n == nil || n.Material == material.Vacuum {
			break
		}
		if n.Material == v.Material {
			merge(n, v.Quantity, v.Temperature)
			m.markCell(q)
			m.markCell(pos)
			return true
		}
		if m.props(n.Material).Phase() == vp.Phase() && depth < placementDepth {
			for _, dx := range [2]int{1, -1} {
				shifted := v
				shifted.Position = pos.Add(image.Pt(dx, 0))
				if m.place(shifted, false, false, load, depth+1) {
					return true
				}
			}
			break
		}
	}

	return m.put(pos, v)
}

// Swap exchanges the voxels at a and b and lets them trade heat first.
func (m *Matrix) Swap(a, b image.Point) bool {
	va, vb := m.cell(a), m.cell(b)
	if va == nil || vb == nil {
		return false
	}
	if a == b {
		return true
	}
	pa, pb := m.props(va.Material), m.props(vb.Material)
	exchangeHeat(va, pa, vb, pb, m.opts.SwapHeatRate)

	*va, *vb = *vb, *va
	va.Position = a
	vb.Position = b

	m.markCell(a)
	m.markCell(b)
	if pa.IsSolid() != pb.IsSolid() {
		m.markSolidChange(a, va.Material, vb.Material)
		m.markSolidChange(b, va.Material, vb.Material)
	}
	return true
}
