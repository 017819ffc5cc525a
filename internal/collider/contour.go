package collider

import "github.com/go-gl/mathgl/mgl64"

type dir struct{ x, y int }

var (
	right = dir{1, 0}
	down  = dir{0, 1}
	left  = dir{-1, 0}
	up    = dir{0, -1}
)

// clockwise on screen, where +y points down
func (d dir) turnRight() dir { return dir{-d.y, d.x} }
func (d dir) turnLeft() dir  { return dir{d.y, -d.x} }

// cellAhead returns the cell in front of corner (px, py) when heading d,
// on the right side if side is 1 and on the left if side is -1.
func cellAhead(px, py int, d dir, side int) (int, int) {
	r := d.turnRight()
	vx := 2*px + d.x + side*r.x
	vy := 2*py + d.y + side*r.y
	return floorHalf(vx), floorHalf(vy)
}

func floorHalf(v int) int {
	if v < 0 {
		return (v - 1) / 2
	}
	return v / 2
}

// Contour walks the outer boundary of one label on the corner lattice with
// the region on its right hand, emitting a vertex at every turn. It starts
// at the top-left corner of the topmost, then leftmost cell. A walk longer
// than the lattice allows returns nil.
func Contour(l *Labels, id int) []mgl64.Vec2 {
	sx, sy, ok := firstCell(l, id)
	if !ok {
		return nil
	}
	inside := func(x, y int) bool { return l.At(x, y) == id }

	px, py := sx, sy
	d := right
	pts := []mgl64.Vec2{{float64(px), float64(py)}}
	limit := 4 * (l.W + 1) * (l.H + 1)

	for step := 0; step < limit; step++ {
		px += d.x
		py += d.y

		next := d
		rx, ry := cellAhead(px, py, d, 1)
		lx, ly := cellAhead(px, py, d, -1)
		switch {
		case !inside(rx, ry):
			next = d.turnRight()
		case inside(lx, ly):
			next = d.turnLeft()
		}

		if px == sx && py == sy && next == right {
			return pts
		}
		if next != d {
			pts = append(pts, mgl64.Vec2{float64(px), float64(py)})
		}
		d = next
	}
	return nil
}

func firstCell(l *Labels, id int) (int, int, bool) {
	for y := 0; y < l.H; y++ {
		for x := 0; x < l.W; x++ {
			if l.At(x, y) == id {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}
