package metrics

import "github.com/san-kum/voxelworld/internal/sim"

// Activity is the mean fraction of loaded chunks with a non-empty dirty
// rectangle. A world at rest reads 0.
type Activity struct {
	name    string
	sum     float64
	samples int
}

func NewActivity() *Activity {
	return &Activity{name: "activity"}
}

func (a *Activity) Name() string { return a.name }

func (a *Activity) Observe(s sim.Sample) {
	a.samples++
	if s.Chunks > 0 {
		a.sum += float64(s.Active) / float64(s.Chunks)
	}
}

func (a *Activity) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.sum / float64(a.samples)
}

func (a *Activity) Reset() {
	a.sum = 0
	a.samples = 0
}
