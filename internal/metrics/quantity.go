package metrics

import (
	"math"

	"github.com/san-kum/voxelworld/internal/sim"
)

// Quantity is the mean total quantity held by the world across samples.
type Quantity struct {
	name    string
	samples int
	total   float64
}

func NewQuantity() *Quantity {
	return &Quantity{name: "quantity"}
}

func (q *Quantity) Name() string { return q.name }

func (q *Quantity) Observe(s sim.Sample) {
	q.total += s.Quantity
	q.samples++
}

func (q *Quantity) Value() float64 {
	if q.samples == 0 {
		return 0
	}
	return q.total / float64(q.samples)
}

func (q *Quantity) Reset() {
	q.total = 0
	q.samples = 0
}

// QuantityDrift is the largest relative departure of total quantity from
// the first sample. Fire, acid and gas dissipation remove quantity on
// purpose, so a closed world of inert materials is where it reads zero.
type QuantityDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewQuantityDrift() *QuantityDrift {
	return &QuantityDrift{name: "quantity_drift"}
}

func (d *QuantityDrift) Name() string { return d.name }

func (d *QuantityDrift) Observe(s sim.Sample) {
	if d.samples == 0 {
		d.initial = s.Quantity
	}
	d.samples++
	if d.initial != 0 {
		drift := math.Abs(s.Quantity-d.initial) / math.Abs(d.initial)
		d.maxDrift = math.Max(d.maxDrift, drift)
	}
}

func (d *QuantityDrift) Value() float64 { return d.maxDrift }

func (d *QuantityDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}
