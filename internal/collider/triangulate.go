package collider

import "github.com/go-gl/mathgl/mgl64"

// SignedArea is the shoelace area of a closed ring.
func SignedArea(pts []mgl64.Vec2) float64 {
	var a float64
	for i := range pts {
		p, q := pts[i], pts[(i+1)%len(pts)]
		a += p[0]*q[1] - q[0]*p[1]
	}
	return a / 2
}

// Normalize reverses the ring in place if its signed area is negative.
func Normalize(pts []mgl64.Vec2) []mgl64.Vec2 {
	if SignedArea(pts) < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

// Triangulate ear-clips a ring with positive signed area into len(pts)-2
// triangles. It returns nil when no ear can be found.
func Triangulate(pts []mgl64.Vec2) [][3]mgl64.Vec2 {
	n := len(pts)
	if n < 3 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	tris := make([][3]mgl64.Vec2, 0, n-2)
	for len(idx) > 3 {
		clipped := false
		for i := range idx {
			ia := idx[(i+len(idx)-1)%len(idx)]
			ib := idx[i]
			ic := idx[(i+1)%len(idx)]
			if !isEar(pts, idx, ia, ib, ic) {
				continue
			}
			tris = append(tris, [3]mgl64.Vec2{pts[ia], pts[ib], pts[ic]})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil
		}
	}
	return append(tris, [3]mgl64.Vec2{pts[idx[0]], pts[idx[1]], pts[idx[2]]})
}

func isEar(pts []mgl64.Vec2, idx []int, ia, ib, ic int) bool {
	a, b, c := pts[ia], pts[ib], pts[ic]
	if cross(a, b, c) <= 0 {
		return false
	}
	for _, j := range idx {
		if j == ia || j == ib || j == ic {
			continue
		}
		p := pts[j]
		if p == a || p == b || p == c {
			continue
		}
		if inTriangle(p, a, b, c) {
			return false
		}
	}
	return true
}

// inTriangle includes the boundary, so a reflex vertex on an edge blocks
// the ear.
func inTriangle(p, a, b, c mgl64.Vec2) bool {
	return cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0
}
