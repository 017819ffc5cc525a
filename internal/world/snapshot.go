package world

import (
	"image"
	"image/color"
)

// Snapshot is a copy of the visible state of a world rectangle, row-major.
type Snapshot struct {
	Rect         image.Rectangle
	Colors       []color.RGBA
	Temperatures []float64
	Materials    []uint16
}

func (s *Snapshot) index(p image.Point) int {
	return (p.Y-s.Rect.Min.Y)*s.Rect.Dx() + p.X - s.Rect.Min.X
}

// Snapshot copies the grid inside r and draws objects and particles over
// it. Unloaded cells are left transparent.
func (m *Matrix) Snapshot(r image.Rectangle) Snapshot {
	var s Snapshot
	m.SnapshotInto(&s, r)
	return s
}

// SnapshotInto is Snapshot writing into dst, reusing its buffers when they
// are large enough.
func (m *Matrix) SnapshotInto(dst *Snapshot, r image.Rectangle) {
	dst.reset(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p := image.Pt(x, y)
			if v := m.cell(p); v != nil {
				dst.draw(p, v)
			}
		}
	}
	for _, o := range m.objects {
		for y := 0; y < o.H; y++ {
			for x := 0; x < o.W; x++ {
				if v := o.At(x, y); v.Material != 0 {
					dst.draw(toPoint(o.ToWorld(x, y)), v)
				}
			}
		}
	}
	for _, p := range m.particles {
		dst.draw(toPoint(p.Position), &p.Voxel)
	}
}

func (s *Snapshot) reset(r image.Rectangle) {
	n := r.Dx() * r.Dy()
	s.Rect = r
	if cap(s.Colors) < n {
		s.Colors = make([]color.RGBA, n)
		s.Temperatures = make([]float64, n)
		s.Materials = make([]uint16, n)
		return
	}
	s.Colors = s.Colors[:n]
	s.Temperatures = s.Temperatures[:n]
	s.Materials = s.Materials[:n]
	clear(s.Colors)
	clear(s.Temperatures)
	clear(s.Materials)
}

// At returns the colour and material drawn at world position p.
func (s *Snapshot) At(p image.Point) (color.RGBA, uint16, bool) {
	if !p.In(s.Rect) {
		return color.RGBA{}, 0, false
	}
	i := s.index(p)
	return s.Colors[i], s.Materials[i], true
}

func (s *Snapshot) draw(p image.Point, v *Voxel) {
	if !p.In(s.Rect) {
		return
	}
	i := s.index(p)
	s.Colors[i] = v.Color
	s.Temperatures[i] = v.Temperature
	s.Materials[i] = uint16(v.Material)
}
