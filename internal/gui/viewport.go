// Package gui is the window viewer. The raylib front end is compiled with
// the raylib build tag; without it Run reports ErrUnavailable.
//
// Controls: left mouse paints, right mouse erases, E explodes under the
// cursor, WASD pans, ctrl+wheel zooms, wheel resizes the brush, tab cycles
// materials, space pauses.
package gui

import (
	"errors"
	"image"

	"github.com/san-kum/voxelworld/internal/world"
)

var ErrUnavailable = errors.New("gui: built without the raylib tag")

const (
	minScale = 1
	maxScale = 16
)

type Options struct {
	Width, Height int
	Scale         int
	Title         string
}

func DefaultOptions() Options {
	return Options{Width: 1280, Height: 720, Scale: 4, Title: "voxsim"}
}

// Viewport maps window pixels to world cells. Origin is the world point at
// the top-left corner of the window.
type Viewport struct {
	Origin        image.Point
	Scale         int
	Width, Height int
}

func NewViewport(o Options, origin image.Point) Viewport {
	return Viewport{
		Origin: origin,
		Scale:  min(max(o.Scale, minScale), maxScale),
		Width:  o.Width,
		Height: o.Height,
	}
}

// Rect is the world rectangle covered by the window.
func (v Viewport) Rect() image.Rectangle {
	w := (v.Width + v.Scale - 1) / v.Scale
	h := (v.Height + v.Scale - 1) / v.Scale
	return image.Rect(0, 0, w, h).Add(v.Origin)
}

func (v Viewport) ToWorld(sx, sy int) image.Point {
	return v.Origin.Add(image.Pt(floorDiv(sx, v.Scale), floorDiv(sy, v.Scale)))
}

func (v *Viewport) Pan(dx, dy int) {
	v.Origin = v.Origin.Add(image.Pt(dx, dy))
}

// Zoom changes the scale by delta steps and keeps the world cell under the
// screen point (sx, sy) in place.
func (v *Viewport) Zoom(delta, sx, sy int) {
	anchor := v.ToWorld(sx, sy)
	v.Scale = min(max(v.Scale+delta, minScale), maxScale)
	v.Origin = anchor.Sub(image.Pt(sx/v.Scale, sy/v.Scale))
}

// Chunks is the chunk rectangle the window touches.
func (v Viewport) Chunks(size int) image.Rectangle {
	r := v.Rect()
	lo := world.ChunkOf(r.Min, size)
	hi := world.ChunkOf(r.Max.Sub(image.Pt(1, 1)), size)
	return image.Rect(lo.X, lo.Y, hi.X+1, hi.Y+1)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// history is a fixed-length series for the telemetry strip.
type history struct {
	values []float64
	keep   int
}

func (h *history) push(v float64) {
	if len(h.values) == h.keep {
		copy(h.values, h.values[1:])
		h.values = h.values[:h.keep-1]
	}
	h.values = append(h.values, v)
}

// bounds returns the min and max of the series, widened when flat.
func (h *history) bounds() (lo, hi float64) {
	if len(h.values) == 0 {
		return 0, 1
	}
	lo, hi = h.values[0], h.values[0]
	for _, v := range h.values {
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}
