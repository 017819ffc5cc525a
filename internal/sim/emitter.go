package sim

import (
	"image"

	"github.com/san-kum/voxelworld/internal/material"
)

// Emitter paints a disc of material every Every fixed updates. It runs as
// an observer, after the runner has released its locks.
type Emitter struct {
	r      *Runner
	id     material.ID
	at     image.Point
	radius int
	every  int
	seen   int
}

func NewEmitter(r *Runner, id material.ID, at image.Point, radius, every int) *Emitter {
	return &Emitter{r: r, id: id, at: at, radius: radius, every: max(every, 1)}
}

func (e *Emitter) OnSample(Sample) {
	e.seen++
	if e.seen%e.every == 0 {
		e.r.Paint(e.id, e.at, e.radius)
	}
}
