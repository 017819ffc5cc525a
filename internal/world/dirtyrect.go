package world

import (
	"image"
	"math"
)

// DirtyRect tracks the cells of a chunk that need stepping. Include grows
// the working bounds for the next tick while the committed Start/End bound
// the current one; Update moves working into committed.
type DirtyRect struct {
	size, pad int

	minX, minY int
	maxX, maxY int

	Start, End image.Point
	empty      bool
}

func NewDirtyRect(size, pad int) DirtyRect {
	d := DirtyRect{size: size, pad: pad, empty: true}
	d.resetWorking()
	return d
}

func (d *DirtyRect) resetWorking() {
	d.minX, d.minY = math.MaxInt, math.MaxInt
	d.maxX, d.maxY = math.MinInt, math.MinInt
}

func (d *DirtyRect) Include(x, y int) {
	d.minX = min(d.minX, x)
	d.minY = min(d.minY, y)
	d.maxX = max(d.maxX, x)
	d.maxY = max(d.maxY, y)
}

// Update commits the padded working bounds, clamped to the chunk.
func (d *DirtyRect) Update() {
	if !d.Pending() {
		d.empty = true
		return
	}
	clamp := func(v int) int { return max(0, min(d.size-1, v)) }
	d.Start = image.Pt(clamp(d.minX-d.pad), clamp(d.minY-d.pad))
	d.End = image.Pt(clamp(d.maxX+d.pad), clamp(d.maxY+d.pad))
	d.empty = false
	d.resetWorking()
}

// IsEmpty reports whether the committed rectangle covers nothing.
func (d *DirtyRect) IsEmpty() bool { return d.empty }

// Pending reports whether any cell was included since the last Update.
func (d *DirtyRect) Pending() bool { return d.minX != math.MaxInt }

// Contains tests a local cell against the committed rectangle.
func (d *DirtyRect) Contains(x, y int) bool {
	return !d.empty && x >= d.Start.X && x <= d.End.X && y >= d.Start.Y && y <= d.End.Y
}
