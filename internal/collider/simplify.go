package collider

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Simplify reduces a closed ring: near-duplicate points closer than eps,
// points whose triangle with their neighbours has area below eps, then
// Douglas-Peucker with the given tolerance. Fewer than three surviving
// points yield nil.
func Simplify(pts []mgl64.Vec2, eps, tolerance float64) []mgl64.Vec2 {
	pts = dedupe(pts, eps)
	pts = dropCollinear(pts, eps)
	if len(pts) < 3 {
		return nil
	}
	pts = douglasPeuckerClosed(pts, tolerance)
	if len(pts) < 3 {
		return nil
	}
	return pts
}

func dedupe(pts []mgl64.Vec2, eps float64) []mgl64.Vec2 {
	out := make([]mgl64.Vec2, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1].Sub(p).Len() < eps {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0].Sub(out[len(out)-1]).Len() < eps {
		out = out[:len(out)-1]
	}
	return out
}

func dropCollinear(pts []mgl64.Vec2, eps float64) []mgl64.Vec2 {
	for changed := true; changed && len(pts) >= 3; {
		changed = false
		out := make([]mgl64.Vec2, 0, len(pts))
		n := len(pts)
		for i := 0; i < n; i++ {
			var prev mgl64.Vec2
			if len(out) > 0 {
				prev = out[len(out)-1]
			} else {
				prev = pts[(i+n-1)%n]
			}
			next := pts[(i+1)%n]
			if math.Abs(cross(prev, pts[i], next))*0.5 < eps {
				changed = true
				continue
			}
			out = append(out, pts[i])
		}
		pts = out
	}
	return pts
}

// douglasPeuckerClosed splits the ring at the point farthest from the first
// and simplifies both halves as open chains.
func douglasPeuckerClosed(pts []mgl64.Vec2, tolerance float64) []mgl64.Vec2 {
	far, best := 0, -1.0
	for i, p := range pts {
		if d := p.Sub(pts[0]).Len(); d > best {
			far, best = i, d
		}
	}
	if far == 0 {
		return pts
	}

	first := douglasPeucker(pts[:far+1], tolerance)
	second := douglasPeucker(append(append([]mgl64.Vec2{}, pts[far:]...), pts[0]), tolerance)

	out := append([]mgl64.Vec2{}, first...)
	out = append(out, second[1:len(second)-1]...)
	return out
}

func douglasPeucker(pts []mgl64.Vec2, tolerance float64) []mgl64.Vec2 {
	if len(pts) < 3 {
		return pts
	}
	a, b := pts[0], pts[len(pts)-1]
	idx, dmax := 0, 0.0
	for i := 1; i < len(pts)-1; i++ {
		if d := perpendicular(pts[i], a, b); d > dmax {
			idx, dmax = i, d
		}
	}
	if dmax <= tolerance {
		return []mgl64.Vec2{a, b}
	}
	left := douglasPeucker(pts[:idx+1], tolerance)
	right := douglasPeucker(pts[idx:], tolerance)
	return append(left[:len(left)-1:len(left)-1], right...)
}

func perpendicular(p, a, b mgl64.Vec2) float64 {
	ab := b.Sub(a)
	l := ab.Len()
	if l == 0 {
		return p.Sub(a).Len()
	}
	return math.Abs(cross(a, b, p)) / l
}

// cross is the z component of (b-a)×(c-b).
func cross(a, b, c mgl64.Vec2) float64 {
	ab := b.Sub(a)
	bc := c.Sub(b)
	return ab[0]*bc[1] - ab[1]*bc[0]
}
