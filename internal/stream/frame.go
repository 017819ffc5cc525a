package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"github.com/san-kum/voxelworld/internal/world"
)

const headerSize = 20

var ErrShortFrame = errors.New("stream: short frame")

// EncodeFrame writes s as a binary frame: tick, then the rectangle origin
// and size as little-endian int32, then one RGBA quadruple per cell.
func EncodeFrame(dst []byte, tick uint64, s *world.Snapshot) []byte {
	n := headerSize + 4*len(s.Colors)
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	binary.LittleEndian.PutUint32(dst[0:], uint32(tick))
	binary.LittleEndian.PutUint32(dst[4:], uint32(int32(s.Rect.Min.X)))
	binary.LittleEndian.PutUint32(dst[8:], uint32(int32(s.Rect.Min.Y)))
	binary.LittleEndian.PutUint32(dst[12:], uint32(s.Rect.Dx()))
	binary.LittleEndian.PutUint32(dst[16:], uint32(s.Rect.Dy()))
	px := dst[headerSize:]
	for i, c := range s.Colors {
		px[4*i], px[4*i+1], px[4*i+2], px[4*i+3] = c.R, c.G, c.B, c.A
	}
	return dst
}

// Frame is a decoded binary frame.
type Frame struct {
	Tick uint32
	Rect image.Rectangle
	RGBA []byte
}

func DecodeFrame(b []byte) (Frame, error) {
	if len(b) < headerSize {
		return Frame{}, ErrShortFrame
	}
	x := int(int32(binary.LittleEndian.Uint32(b[4:])))
	y := int(int32(binary.LittleEndian.Uint32(b[8:])))
	w := int(binary.LittleEndian.Uint32(b[12:]))
	h := int(binary.LittleEndian.Uint32(b[16:]))
	if len(b)-headerSize != 4*w*h {
		return Frame{}, fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrShortFrame, w, h, 4*w*h, len(b)-headerSize)
	}
	return Frame{
		Tick: binary.LittleEndian.Uint32(b[0:]),
		Rect: image.Rect(x, y, x+w, y+h),
		RGBA: b[headerSize:],
	}, nil
}
