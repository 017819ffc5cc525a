package compute

import "sort"

// Frame is the host-side copy of the batched scalar fields.
type Frame struct {
	Width         int
	CellsPerChunk int
	Tickets       int

	Temperature  []float32
	Quantity     []float32
	HeatCapacity []float32
	Conductivity []float32
	Material     []int32
	// Mobile marks cells that take part in pressure equalization.
	Mobile []int32
	Links  []int32

	Rules []Rule
	// RuleIndex holds (start, count) into Rules per material id.
	RuleIndex []int32
}

// Resize makes room for tickets chunks of width×width cells, reusing the
// existing backing arrays when they are large enough.
func (f *Frame) Resize(tickets, width int) {
	f.Width = width
	f.CellsPerChunk = width * width
	f.Tickets = tickets
	n := tickets * f.CellsPerChunk

	f.Temperature = growF(f.Temperature, n)
	f.Quantity = growF(f.Quantity, n)
	f.HeatCapacity = growF(f.HeatCapacity, n)
	f.Conductivity = growF(f.Conductivity, n)
	f.Material = growI(f.Material, n)
	f.Mobile = growI(f.Mobile, n)
	f.Links = growI(f.Links, tickets*LinkStride)
	for i := range f.Links {
		f.Links[i] = -1
	}
}

// Cells is the total number of cells in the frame.
func (f *Frame) Cells() int { return f.Tickets * f.CellsPerChunk }

// SetRules installs the reaction table, sorted by material.
func (f *Frame) SetRules(rules []Rule, materials int) {
	f.Rules = append(f.Rules[:0], rules...)
	sort.SliceStable(f.Rules, func(i, j int) bool { return f.Rules[i].Material < f.Rules[j].Material })

	f.RuleIndex = growI(f.RuleIndex, materials*2)
	for i := range f.RuleIndex {
		f.RuleIndex[i] = 0
	}
	for i, r := range f.Rules {
		m := int(r.Material)
		if m < 0 || m >= materials {
			continue
		}
		if f.RuleIndex[m*2+1] == 0 {
			f.RuleIndex[m*2] = int32(i)
		}
		f.RuleIndex[m*2+1]++
	}
}

// Neighbor returns the flat index of the cell next to i in direction d
// (0 left, 1 right, 2 up, 3 down), crossing into linked chunks, or -1.
func (f *Frame) Neighbor(i, d int) int {
	w := f.Width
	t := i / f.CellsPerChunk
	l := i - t*f.CellsPerChunk
	lx, ly := l%w, l/w

	switch d {
	case 0:
		if lx > 0 {
			return i - 1
		}
		return f.linked(t, 1, ly*w+w-1)
	case 1:
		if lx < w-1 {
			return i + 1
		}
		return f.linked(t, 2, ly*w)
	case 2:
		if ly > 0 {
			return i - w
		}
		return f.linked(t, 3, (w-1)*w+lx)
	case 3:
		if ly < w-1 {
			return i + w
		}
		return f.linked(t, 4, lx)
	}
	return -1
}

func (f *Frame) linked(ticket, slot, local int) int {
	n := f.Links[ticket*LinkStride+slot]
	if n < 0 {
		return -1
	}
	return int(n)*f.CellsPerChunk + local
}

func growF(s []float32, n int) []float32 {
	if cap(s) < n {
		return make([]float32, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}

func growI(s []int32, n int) []int32 {
	if cap(s) < n {
		return make([]int32, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}

// hash32 is a 32-bit integer mix shared with the GLSL kernels so both
// devices draw the same reaction outcomes.
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// Chance maps (seed, tick, cell, rule) onto [0, 1).
func Chance(seed, tick, cell, rule uint32) float32 {
	h := hash32(seed ^ hash32(tick^hash32(cell*8+rule)))
	return float32(h>>8) / float32(1<<24)
}
