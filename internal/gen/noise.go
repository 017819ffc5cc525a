package gen

import "math/rand/v2"

var grad2 = [8][2]float64{
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
}

// Noise is seeded 2D simplex noise with output in [-1, 1].
type Noise struct {
	perm [512]uint8
}

func NewNoise(seed uint64) *Noise {
	n := &Noise{}
	var p [256]uint8
	for i := range p {
		p[i] = uint8(i)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))
	rng.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
	for i := range n.perm {
		n.perm[i] = p[i&255]
	}
	return n
}

// At samples the noise field at (x, y).
func (n *Noise) At(x, y float64) float64 {
	const (
		skew   = 0.36602540378443864676
		unskew = 0.21132486540518711775
	)
	s := (x + y) * skew
	i, j := floor(x+s), floor(y+s)
	t := float64(i+j) * unskew
	x0, y0 := x-(float64(i)-t), y-(float64(j)-t)

	i1, j1 := 0, 1
	if x0 > y0 {
		i1, j1 = 1, 0
	}
	x1, y1 := x0-float64(i1)+unskew, y0-float64(j1)+unskew
	x2, y2 := x0-1+2*unskew, y0-1+2*unskew

	ii, jj := i&255, j&255
	sum := n.corner(ii+int(n.perm[jj]), x0, y0) +
		n.corner(ii+i1+int(n.perm[jj+j1]), x1, y1) +
		n.corner(ii+1+int(n.perm[jj+1]), x2, y2)
	return 70 * sum
}

func (n *Noise) corner(h int, x, y float64) float64 {
	t := 0.5 - x*x - y*y
	if t < 0 {
		return 0
	}
	g := grad2[n.perm[h]&7]
	t *= t
	return t * t * (g[0]*x + g[1]*y)
}

// Fractal sums octaves of noise, halving amplitude and doubling frequency
// each time, normalised back into [-1, 1].
func (n *Noise) Fractal(x, y float64, octaves int) float64 {
	var sum, norm float64
	amp, freq := 1.0, 1.0
	for o := 0; o < octaves; o++ {
		sum += amp * n.At(x*freq, y*freq)
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

func floor(v float64) int {
	i := int(v)
	if v < float64(i) {
		return i - 1
	}
	return i
}
