package world

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ChunkCoord addresses a chunk; chunk (X, Y) covers world cells
// [X*size, (X+1)*size) × [Y*size, (Y+1)*size).
type ChunkCoord struct {
	X, Y int
}

func (c ChunkCoord) Add(dx, dy int) ChunkCoord { return ChunkCoord{c.X + dx, c.Y + dy} }

func (c ChunkCoord) Point() image.Point { return image.Pt(c.X, c.Y) }

// Parity is the index of the checkerboard class in [0, 4).
func (c ChunkCoord) Parity() int {
	return mod(c.X, 2) + 2*mod(c.Y, 2)
}

// ChunkOf returns the chunk coordinate containing world cell p.
func ChunkOf(p image.Point, size int) ChunkCoord {
	return ChunkCoord{floorDiv(p.X, size), floorDiv(p.Y, size)}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

var (
	up    = image.Pt(0, -1)
	down  = image.Pt(0, 1)
	left  = image.Pt(-1, 0)
	right = image.Pt(1, 0)

	neighbours4 = [4]image.Point{left, right, up, down}
	diagonals   = [4]image.Point{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
)

func toVec(p image.Point) mgl64.Vec2 { return mgl64.Vec2{float64(p.X), float64(p.Y)} }

func toPoint(v mgl64.Vec2) image.Point {
	return image.Pt(int(math.Floor(v[0])), int(math.Floor(v[1])))
}
