package compute

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// serialCutoff is the cell count below which passes run on one goroutine.
const serialCutoff = 4096

// maxFlow caps the per-edge exchange coefficient so a pass stays stable.
const maxFlow = 0.2

type CPUDevice struct {
	workers int
	frame   Frame
	scratch []float32

	records []ReactionRecord
	count   atomic.Int32
}

func NewCPUDevice(workers int) *CPUDevice {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUDevice{workers: workers}
}

func (c *CPUDevice) Name() string    { return "cpu" }
func (c *CPUDevice) Available() bool { return true }
func (c *CPUDevice) Cleanup()        {}

func (c *CPUDevice) Upload(f *Frame) error {
	n := f.Cells()
	if len(f.Temperature) < n || len(f.Quantity) < n || len(f.Material) < n {
		return fmt.Errorf("%w: %d cells, %d uploaded", ErrFrameMismatch, n, len(f.Temperature))
	}
	c.frame.Width = f.Width
	c.frame.CellsPerChunk = f.CellsPerChunk
	c.frame.Tickets = f.Tickets
	c.frame.Temperature = append(c.frame.Temperature[:0], f.Temperature[:n]...)
	c.frame.Quantity = append(c.frame.Quantity[:0], f.Quantity[:n]...)
	c.frame.HeatCapacity = append(c.frame.HeatCapacity[:0], f.HeatCapacity[:n]...)
	c.frame.Conductivity = append(c.frame.Conductivity[:0], f.Conductivity[:n]...)
	c.frame.Material = append(c.frame.Material[:0], f.Material[:n]...)
	c.frame.Mobile = append(c.frame.Mobile[:0], f.Mobile[:n]...)
	c.frame.Links = append(c.frame.Links[:0], f.Links[:f.Tickets*LinkStride]...)
	c.frame.Rules = append(c.frame.Rules[:0], f.Rules...)
	c.frame.RuleIndex = append(c.frame.RuleIndex[:0], f.RuleIndex...)

	if cap(c.scratch) < n {
		c.scratch = make([]float32, n)
	}
	c.scratch = c.scratch[:n]
	if cap(c.records) < n {
		c.records = make([]ReactionRecord, n)
	}
	c.records = c.records[:n]
	c.count.Store(0)
	return nil
}

func (c *CPUDevice) Dispatch(p Pass, params Params) error {
	n := c.frame.Cells()
	switch p {
	case PassHeat:
		c.parallel(n, func(start, end int) { c.heat(start, end, params.HeatRate) })
		c.frame.Temperature, c.scratch = c.scratch, c.frame.Temperature
	case PassPressure:
		c.parallel(n, func(start, end int) { c.pressure(start, end, params.PressureRate) })
		c.frame.Quantity, c.scratch = c.scratch, c.frame.Quantity
	case PassReactions:
		c.count.Store(0)
		c.parallel(n, func(start, end int) { c.react(start, end, params) })
	default:
		return fmt.Errorf("compute: unknown pass %v", p)
	}
	return nil
}

func (c *CPUDevice) ReadTemperature(dst []float32) error {
	if len(dst) < len(c.frame.Temperature) {
		return ErrFrameMismatch
	}
	copy(dst, c.frame.Temperature)
	return nil
}

func (c *CPUDevice) ReadQuantity(dst []float32) error {
	if len(dst) < len(c.frame.Quantity) {
		return ErrFrameMismatch
	}
	copy(dst, c.frame.Quantity)
	return nil
}

func (c *CPUDevice) ReadReactions() ([]ReactionRecord, error) {
	n := int(c.count.Load())
	out := make([]ReactionRecord, n)
	copy(out, c.records[:n])
	return out, nil
}

func (c *CPUDevice) parallel(n int, fn func(start, end int)) {
	if n < serialCutoff || c.workers == 1 {
		fn(0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(c.workers)
	chunkSize := (n + c.workers - 1) / c.workers
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}

// heat exchanges energy along each edge. Every edge flow is computed
// identically from both ends, so total heat energy is conserved.
func (c *CPUDevice) heat(start, end int, rate float32) {
	f := &c.frame
	for i := start; i < end; i++ {
		t := f.Temperature[i]
		ci := f.HeatCapacity[i]
		if ci <= 0 {
			c.scratch[i] = t
			continue
		}

		var energy float32
		for d := 0; d < 4; d++ {
			j := f.Neighbor(i, d)
			if j < 0 {
				continue
			}
			cj := f.HeatCapacity[j]
			if cj <= 0 {
				continue
			}
			energy += (f.Temperature[j] - t) * edgeCoefficient(f.Conductivity[i], f.Conductivity[j], ci, cj, rate)
		}
		c.scratch[i] = t + energy/ci
	}
}

func (c *CPUDevice) pressure(start, end int, rate float32) {
	f := &c.frame
	for i := start; i < end; i++ {
		q := f.Quantity[i]
		if f.Mobile[i] == 0 {
			c.scratch[i] = q
			continue
		}

		var delta float32
		for d := 0; d < 4; d++ {
			j := f.Neighbor(i, d)
			if j < 0 || f.Mobile[j] == 0 || f.Material[j] != f.Material[i] {
				continue
			}
			delta += (f.Quantity[j] - q) * min32(rate, maxFlow)
		}
		c.scratch[i] = q + delta
	}
}

func (c *CPUDevice) react(start, end int, params Params) {
	f := &c.frame
	materials := len(f.RuleIndex) / 2
	for i := start; i < end; i++ {
		m := int(f.Material[i])
		if m <= 0 || m >= materials {
			continue
		}
		first, count := int(f.RuleIndex[m*2]), int(f.RuleIndex[m*2+1])
		for r := first; r < first+count; r++ {
			rule := f.Rules[r]
			if !c.touches(i, rule.With) {
				continue
			}
			if Chance(params.Seed, params.Tick, uint32(i), uint32(r)) >= rule.Rate {
				continue
			}
			slot := c.count.Add(1) - 1
			c.records[slot] = ReactionRecord{
				Material: rule.Produces,
				Local:    int32(i % f.CellsPerChunk),
				Ticket:   int32(i / f.CellsPerChunk),
			}
			break
		}
	}
}

func (c *CPUDevice) touches(i int, material int32) bool {
	for d := 0; d < 4; d++ {
		if j := c.frame.Neighbor(i, d); j >= 0 && c.frame.Material[j] == material {
			return true
		}
	}
	return false
}

// edgeCoefficient is the energy exchanged per degree of difference. It is
// symmetric in its cell arguments.
func edgeCoefficient(ki, kj, ci, cj, rate float32) float32 {
	coef := min32(ki, kj) * rate
	return min32(coef, maxFlow*min32(ci, cj))
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
