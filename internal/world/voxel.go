package world

import (
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/voxelworld/internal/material"
)

// Voxel is the state of one cell. Voxels live by value in exactly one chunk
// slot, object buffer or particle at a time.
type Voxel struct {
	Material    material.ID
	Quantity    float64
	Temperature float64
	Color       color.RGBA
	Position    image.Point

	// Stepped is the matrix tick this voxel last ran its step rule in.
	Stepped uint64

	// Falling and Velocity are solid and liquid motion bookkeeping:
	// Velocity[1] is the accumulated fall speed, Velocity[0] the residual
	// sideways slide left over from a landing.
	Falling  bool
	Velocity mgl64.Vec2
}

// DesiredDensity is the quantity a settled liquid cell holds.
const DesiredDensity = 1.0

// MinGasQuantity is the quantity below which a gas dissolves into vacuum.
const MinGasQuantity = 0.01

// GasEqualizeThreshold is the quantity difference that makes a gas push
// into a same-material neighbour.
const GasEqualizeThreshold = 0.25

func newVoxel(reg *material.Registry, id material.ID, rng *rand.Rand) Voxel {
	p := reg.Get(id)
	v := Voxel{
		Material:    id,
		Quantity:    1,
		Temperature: p.Temperature,
		Color:       jitter(p.Color, p.ColorJitter, rng),
		Falling:     p.IsSolid() && p.Movable(),
	}
	if id == material.Vacuum {
		v.Quantity = 0
		v.Temperature = material.NeutralTemperature
	}
	return v
}

func jitter(c color.RGBA, amount uint8, rng *rand.Rand) color.RGBA {
	if amount == 0 || rng == nil {
		return c
	}
	n := int(amount)
	shift := func(ch uint8) uint8 {
		v := int(ch) + rng.IntN(2*n+1) - n
		return uint8(max(0, min(255, v)))
	}
	return color.RGBA{shift(c.R), shift(c.G), shift(c.B), c.A}
}

// merge adds quantity q at temperature t into dst, averaging temperature
// by quantity.
func merge(dst *Voxel, q, t float64) {
	total := dst.Quantity + q
	if total <= 0 {
		dst.Quantity = 0
		dst.Temperature = material.NeutralTemperature
		return
	}
	dst.Temperature = (dst.Quantity*dst.Temperature + q*t) / total
	dst.Quantity = total
}
