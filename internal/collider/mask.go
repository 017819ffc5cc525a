package collider

// Mask is a W×H occupancy grid. Reads outside the grid report empty, which
// pads it by one cell on every side so each region has a closed boundary.
type Mask struct {
	W, H  int
	cells []bool
}

func NewMask(w, h int) *Mask {
	return &Mask{W: w, H: h, cells: make([]bool, w*h)}
}

func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	m.cells[y*m.W+x] = v
}

func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.cells[y*m.W+x]
}

// Empty reports whether no cell is set.
func (m *Mask) Empty() bool {
	for _, c := range m.cells {
		if c {
			return false
		}
	}
	return true
}

func (m *Mask) Clear() {
	for i := range m.cells {
		m.cells[i] = false
	}
}
