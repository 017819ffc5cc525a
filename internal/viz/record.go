package viz

import (
	"image"
	"image/color"
	"image/gif"
	"io"

	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/world"
)

// GIFRecorder turns snapshots into animation frames. Each material gets one
// palette entry with its base colour, so frames are indexed without colour
// matching.
type GIFRecorder struct {
	palette color.Palette
	scale   int
	delay   int
	frames  []*image.Paletted
}

// NewGIFRecorder draws each voxel as a scale×scale block and holds each
// frame for delay hundredths of a second.
func NewGIFRecorder(reg *material.Registry, bg color.RGBA, scale, delay int) *GIFRecorder {
	pal := color.Palette{bg}
	for _, p := range reg.All() {
		if len(pal) == 256 {
			break
		}
		if p.ID == material.Vacuum {
			continue
		}
		pal = append(pal, p.Color)
	}
	return &GIFRecorder{palette: pal, scale: max(scale, 1), delay: delay}
}

func (g *GIFRecorder) Capture(s *world.Snapshot) {
	w, h := s.Rect.Dx(), s.Rect.Dy()
	img := image.NewPaletted(image.Rect(0, 0, w*g.scale, h*g.scale), g.palette)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			id := int(s.Materials[y*w+x])
			if id == 0 || id >= len(g.palette) {
				continue
			}
			for dy := 0; dy < g.scale; dy++ {
				for dx := 0; dx < g.scale; dx++ {
					img.SetColorIndex(x*g.scale+dx, y*g.scale+dy, uint8(id))
				}
			}
		}
	}
	g.frames = append(g.frames, img)
}

func (g *GIFRecorder) Len() int { return len(g.frames) }

func (g *GIFRecorder) Save(w io.Writer) error {
	anim := gif.GIF{LoopCount: 0}
	for _, f := range g.frames {
		anim.Image = append(anim.Image, f)
		anim.Delay = append(anim.Delay, g.delay)
	}
	return gif.EncodeAll(w, &anim)
}
