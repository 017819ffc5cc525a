package gen

import (
	"math"

	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/world"
)

// Params shape the built-in generators. Heights are world rows; +y is down.
type Params struct {
	Seed      uint64
	Ground    int
	Amplitude float64
	Scale     float64
	SeaLevel  int
}

func DefaultParams() Params {
	return Params{
		Seed:      1,
		Ground:    256,
		Amplitude: 48,
		Scale:     240,
		SeaLevel:  272,
	}
}

// palette resolves generator materials against whatever registry the world
// uses. Missing names fall back to vacuum.
type palette struct {
	stone, sand, water, coal material.ID
}

func paletteFor(reg *material.Registry) palette {
	id := func(name string) material.ID {
		if v, ok := reg.Lookup(name); ok {
			return v
		}
		return material.Vacuum
	}
	return palette{stone: id("stone"), sand: id("sand"), water: id("water"), coal: id("coal")}
}

// Empty leaves every chunk as vacuum.
func Empty(Params) world.Generator {
	return func(cc world.ChunkCoord, m *world.Matrix) *world.Chunk {
		return m.NewChunk(cc)
	}
}

// Flat fills stone below Ground with a three-cell sand crust.
func Flat(p Params) world.Generator {
	return func(cc world.ChunkCoord, m *world.Matrix) *world.Chunk {
		c := m.NewChunk(cc)
		pal := paletteFor(m.Registry())
		size := c.Size()
		for y := 0; y < size; y++ {
			wy := c.Origin.Y + y
			var id material.ID
			switch {
			case wy >= p.Ground+3:
				id = pal.stone
			case wy >= p.Ground:
				id = pal.sand
			default:
				continue
			}
			for x := 0; x < size; x++ {
				c.Fill(x, y, id)
			}
		}
		return c
	}
}

// Terrain carves a rolling surface from fractal noise, floods hollows below
// SeaLevel, seeds coal seams and opens caves.
func Terrain(p Params) world.Generator {
	surface := NewNoise(p.Seed)
	caves := NewNoise(p.Seed + 1)
	seams := NewNoise(p.Seed + 2)
	scale := p.Scale
	if scale <= 0 {
		scale = DefaultParams().Scale
	}

	return func(cc world.ChunkCoord, m *world.Matrix) *world.Chunk {
		c := m.NewChunk(cc)
		pal := paletteFor(m.Registry())
		size := c.Size()
		for x := 0; x < size; x++ {
			wx := float64(c.Origin.X + x)
			top := p.Ground + int(math.Round(surface.Fractal(wx/scale, 0, 4)*p.Amplitude))
			for y := 0; y < size; y++ {
				wy := c.Origin.Y + y
				fy := float64(wy)
				var id material.ID
				switch {
				case wy < top:
					if wy >= p.SeaLevel {
						id = pal.water
					}
				case wy < top+4:
					id = pal.sand
				case wy > top+12 && caves.Fractal(wx/48, fy/32, 2) > 0.45:
					// cave
				case seams.At(wx/20, fy/12) > 0.75:
					id = pal.coal
				default:
					id = pal.stone
				}
				if id != material.Vacuum {
					c.Fill(x, y, id)
				}
			}
		}
		return c
	}
}
