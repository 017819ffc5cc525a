package collider

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sentinel separates edge loops in Result.Loops.
var Sentinel = mgl64.Vec2{math.MaxFloat64, math.MaxFloat64}

type Options struct {
	// Epsilon drops duplicate and collinear points.
	Epsilon float64
	// Tolerance is the Douglas-Peucker deviation bound.
	Tolerance float64
}

func DefaultOptions() Options {
	return Options{Epsilon: 1e-6, Tolerance: 0.5}
}

type Result struct {
	Triangles [][3]mgl64.Vec2
	// Loops holds every polygon ring followed by Sentinel.
	Loops []mgl64.Vec2
}

func (r Result) Empty() bool { return len(r.Triangles) == 0 }

// Generate builds collision geometry for every component of m, translated
// by offset.
func Generate(m *Mask, offset mgl64.Vec2, opts Options) Result {
	var res Result
	labels := Label(m)
	for id := 1; id <= labels.Count; id++ {
		ring := Contour(labels, id)
		ring = Simplify(ring, opts.Epsilon, opts.Tolerance)
		if ring == nil {
			continue
		}
		ring = Normalize(ring)
		tris := Triangulate(ring)
		if tris == nil {
			continue
		}
		for _, t := range tris {
			res.Triangles = append(res.Triangles, [3]mgl64.Vec2{t[0].Add(offset), t[1].Add(offset), t[2].Add(offset)})
		}
		for _, p := range ring {
			res.Loops = append(res.Loops, p.Add(offset))
		}
		res.Loops = append(res.Loops, Sentinel)
	}
	return res
}

// Loops splits sentinel-separated rings.
func Loops(flat []mgl64.Vec2) [][]mgl64.Vec2 {
	var out [][]mgl64.Vec2
	var cur []mgl64.Vec2
	for _, p := range flat {
		if p == Sentinel {
			if len(cur) > 0 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, p)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// TriangleArea is the unsigned area of t.
func TriangleArea(t [3]mgl64.Vec2) float64 {
	return math.Abs(cross(t[0], t[1], t[2])) / 2
}
