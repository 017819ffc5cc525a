package viz

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/voxelworld/internal/world"
)

// upperHalf carries the top pixel in the foreground and the bottom pixel
// in the background.
const upperHalf = '▀'

// Canvas is a colour grid two pixels tall per terminal row.
type Canvas struct {
	Width, Height int
	pixels        []color.RGBA
	styles        map[[2]color.RGBA]lipgloss.Style
}

// NewCanvas sizes the canvas in terminal cells: w by h cells hold w by 2h
// pixels.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{
		Width:  w,
		Height: h,
		pixels: make([]color.RGBA, w*h*2),
		styles: make(map[[2]color.RGBA]lipgloss.Style),
	}
}

// Bounds is the canvas size in pixels.
func (c *Canvas) Bounds() image.Rectangle { return image.Rect(0, 0, c.Width, c.Height*2) }

func (c *Canvas) Set(x, y int, col color.RGBA) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height*2 {
		return
	}
	c.pixels[y*c.Width+x] = col
}

func (c *Canvas) At(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height*2 {
		return color.RGBA{}
	}
	return c.pixels[y*c.Width+x]
}

func (c *Canvas) Clear(bg color.RGBA) {
	for i := range c.pixels {
		c.pixels[i] = bg
	}
}

// Blit copies a snapshot onto the canvas with its top-left at pixel (0, 0).
// Transparent cells keep the background.
func (c *Canvas) Blit(s *world.Snapshot) {
	for y := 0; y < s.Rect.Dy() && y < c.Height*2; y++ {
		for x := 0; x < s.Rect.Dx() && x < c.Width; x++ {
			if col := s.Colors[y*s.Rect.Dx()+x]; col.A != 0 {
				c.pixels[y*c.Width+x] = col
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		for x := 0; x < c.Width; x++ {
			pair := [2]color.RGBA{c.At(x, row*2), c.At(x, row*2+1)}
			b.WriteString(c.style(pair).Render(string(upperHalf)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (c *Canvas) style(pair [2]color.RGBA) lipgloss.Style {
	if s, ok := c.styles[pair]; ok {
		return s
	}
	s := lipgloss.NewStyle().Foreground(hex(pair[0])).Background(hex(pair[1]))
	c.styles[pair] = s
	return s
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
