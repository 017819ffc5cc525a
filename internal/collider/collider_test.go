package collider

import (
	"github.com/go-gl/mathgl/mgl64"
	g "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func rectMask(w, h, x0, y0, rw, rh int) *Mask {
	m := NewMask(w, h)
	for y := y0; y < y0+rh; y++ {
		for x := x0; x < x0+rw; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

func areaSum(tris [][3]mgl64.Vec2) float64 {
	var sum float64
	for _, t := range tris {
		sum += TriangleArea(t)
	}
	return sum
}

var _ = g.Describe("Label", func() {
	g.It("gives a filled rectangle one label", func() {
		l := Label(rectMask(10, 10, 2, 3, 5, 4))
		Expect(l.Count).To(Equal(1))
		Expect(l.At(2, 3)).To(Equal(1))
		Expect(l.At(1, 3)).To(Equal(0))
	})

	g.It("separates diagonal neighbours", func() {
		m := NewMask(4, 4)
		m.Set(0, 0, true)
		m.Set(1, 1, true)
		Expect(Label(m).Count).To(Equal(2))
	})

	g.It("fills a single-cell pinhole", func() {
		m := rectMask(5, 5, 0, 0, 5, 5)
		m.Set(2, 2, false)
		l := Label(m)
		Expect(l.Count).To(Equal(1))
		Expect(l.At(2, 2)).To(Equal(1))
	})

	g.It("fills a gap between two opposite cells of one label", func() {
		m := rectMask(5, 3, 0, 0, 5, 1)
		m.Set(0, 1, true)
		m.Set(2, 1, true)
		l := Label(m)
		Expect(l.At(1, 1)).To(Equal(1))
	})
})

var _ = g.Describe("Contour", func() {
	g.It("traces a single cell as a unit square", func() {
		m := NewMask(3, 3)
		m.Set(1, 1, true)
		ring := Contour(Label(m), 1)
		Expect(ring).To(Equal([]mgl64.Vec2{{1, 1}, {2, 1}, {2, 2}, {1, 2}}))
	})

	g.It("emits one vertex per corner of an L shape", func() {
		m := rectMask(6, 6, 0, 0, 2, 4)
		m.Set(2, 3, true)
		m.Set(3, 3, true)
		ring := Contour(Label(m), 1)
		Expect(ring).To(HaveLen(6))
		Expect(SignedArea(ring)).To(BeNumerically("~", 10, 1e-9))
	})

	g.It("returns nil for a missing label", func() {
		Expect(Contour(Label(NewMask(2, 2)), 1)).To(BeNil())
	})
})

var _ = g.Describe("Simplify", func() {
	g.It("drops duplicates and collinear points", func() {
		ring := []mgl64.Vec2{{0, 0}, {1, 0}, {1, 0}, {2, 0}, {2, 2}, {0, 2}}
		out := Simplify(ring, 1e-6, 0.1)
		Expect(out).To(HaveLen(4))
		Expect(SignedArea(out)).To(BeNumerically("~", 4, 1e-9))
	})

	g.It("returns nil when fewer than three points survive", func() {
		Expect(Simplify([]mgl64.Vec2{{0, 0}, {1, 0}, {2, 0}}, 1e-6, 0.1)).To(BeNil())
	})

	g.It("flattens a staircase within tolerance", func() {
		ring := []mgl64.Vec2{{0, 0}, {1, 0}, {1, 1}, {2, 1}, {2, 2}, {3, 2}, {3, 3}, {0, 3}}
		out := Simplify(ring, 1e-6, 1.0)
		Expect(len(out)).To(BeNumerically("<", len(ring)))
		Expect(len(out)).To(BeNumerically(">=", 3))
	})
})

var _ = g.Describe("Normalize and Triangulate", func() {
	g.It("reverses clockwise rings", func() {
		ring := []mgl64.Vec2{{0, 0}, {0, 3}, {3, 3}, {3, 0}}
		Expect(SignedArea(ring)).To(BeNumerically("<", 0))
		Expect(SignedArea(Normalize(ring))).To(BeNumerically("~", 9, 1e-9))
	})

	g.It("clips N-2 triangles covering the polygon", func() {
		ring := []mgl64.Vec2{{0, 0}, {4, 0}, {4, 1}, {1, 1}, {1, 3}, {0, 3}}
		tris := Triangulate(ring)
		Expect(tris).To(HaveLen(len(ring) - 2))
		Expect(areaSum(tris)).To(BeNumerically("~", SignedArea(ring), 1e-9))
	})

	g.It("fails cleanly on a degenerate ring", func() {
		Expect(Triangulate([]mgl64.Vec2{{0, 0}, {1, 1}})).To(BeNil())
	})
})

var _ = g.Describe("Generate", func() {
	g.DescribeTable("rectangle round trip",
		func(w, h int) {
			res := Generate(rectMask(16, 16, 3, 2, w, h), mgl64.Vec2{100, 200}, DefaultOptions())
			loops := Loops(res.Loops)
			Expect(loops).To(HaveLen(1))

			ring := loops[0]
			Expect(SignedArea(ring)).To(BeNumerically("~", float64(w*h), 1e-9))
			Expect(res.Triangles).To(HaveLen(len(ring) - 2))
			Expect(areaSum(res.Triangles)).To(BeNumerically("~", float64(w*h), 1e-9))
			Expect(ring).To(ContainElement(mgl64.Vec2{103, 202}))
		},
		g.Entry("square", 4, 4),
		g.Entry("wide", 10, 2),
		g.Entry("tall", 1, 12),
		g.Entry("single cell", 1, 1),
	)

	g.It("produces one loop per component", func() {
		m := rectMask(12, 12, 0, 0, 3, 3)
		for y := 6; y < 9; y++ {
			for x := 6; x < 10; x++ {
				m.Set(x, y, true)
			}
		}
		res := Generate(m, mgl64.Vec2{}, DefaultOptions())
		Expect(Loops(res.Loops)).To(HaveLen(2))
		Expect(areaSum(res.Triangles)).To(BeNumerically("~", 9+12, 1e-9))
	})

	g.It("is empty for an empty mask", func() {
		res := Generate(NewMask(8, 8), mgl64.Vec2{}, DefaultOptions())
		Expect(res.Empty()).To(BeTrue())
		Expect(res.Loops).To(BeEmpty())
	})
})
