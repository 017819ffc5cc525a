package collider

// Labels assigns each cell of a mask the id of its connected component.
// Zero means empty; components are numbered from 1 in scan order.
type Labels struct {
	W, H  int
	ids   []int
	Count int
}

func (l *Labels) At(x, y int) int {
	if x < 0 || y < 0 || x >= l.W || y >= l.H {
		return 0
	}
	return l.ids[y*l.W+x]
}

func (l *Labels) set(x, y, id int) { l.ids[y*l.W+x] = id }

var offsets4 = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Label flood-fills 4-connected regions, then absorbs single-cell holes
// into the surrounding label.
func Label(m *Mask) *Labels {
	l := &Labels{W: m.W, H: m.H, ids: make([]int, m.W*m.H)}
	queue := make([][2]int, 0, 64)

	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if !m.At(x, y) || l.At(x, y) != 0 {
				continue
			}
			l.Count++
			l.set(x, y, l.Count)
			queue = append(queue[:0], [2]int{x, y})
			for len(queue) > 0 {
				c := queue[0]
				queue = queue[1:]
				for _, o := range offsets4 {
					nx, ny := c[0]+o[0], c[1]+o[1]
					if m.At(nx, ny) && l.At(nx, ny) == 0 {
						l.set(nx, ny, l.Count)
						queue = append(queue, [2]int{nx, ny})
					}
				}
			}
		}
	}

	fillPinholes(l)
	return l
}

func fillPinholes(l *Labels) {
	for y := 0; y < l.H; y++ {
		for x := 0; x < l.W; x++ {
			if l.At(x, y) != 0 {
				continue
			}
			left, right := l.At(x-1, y), l.At(x+1, y)
			up, down := l.At(x, y-1), l.At(x, y+1)

			switch {
			case left != 0 && left == right:
				l.set(x, y, left)
			case up != 0 && up == down:
				l.set(x, y, up)
			default:
				if id := majority([4]int{left, right, up, down}); id != 0 {
					l.set(x, y, id)
				}
			}
		}
	}
}

// majority returns a label held by at least three of the neighbours.
func majority(n [4]int) int {
	for _, id := range n {
		if id == 0 {
			continue
		}
		count := 0
		for _, o := range n {
			if o == id {
				count++
			}
		}
		if count >= 3 {
			return id
		}
	}
	return 0
}
