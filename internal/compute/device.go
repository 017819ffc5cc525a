package compute

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable indicates the requested device cannot run here.
	ErrDeviceUnavailable = errors.New("compute: device unavailable")

	// ErrFrameMismatch indicates a read-back destination of the wrong size.
	ErrFrameMismatch = errors.New("compute: frame size mismatch")
)

type Pass int

const (
	PassHeat Pass = iota
	PassPressure
	PassReactions
)

func (p Pass) String() string {
	switch p {
	case PassHeat:
		return "heat"
	case PassPressure:
		return "pressure"
	case PassReactions:
		return "reactions"
	}
	return fmt.Sprintf("pass(%d)", int(p))
}

// LinkStride is the number of ints in a chunk's connectivity record: own
// ticket, then left, right, up and down neighbour tickets (-1 for none).
const LinkStride = 5

// Rule is one reaction: a Material cell next to With becomes Produces.
type Rule struct {
	Material int32
	With     int32
	Produces int32
	Rate     float32
}

// ReactionRecord is one cell that reacted this pass.
type ReactionRecord struct {
	Material int32
	Local    int32
	Ticket   int32
}

// Params are the uniforms shared by every pass.
type Params struct {
	HeatRate     float32
	PressureRate float32
	Seed         uint32
	Tick         uint32
}

type Device interface {
	Name() string
	Available() bool
	Upload(f *Frame) error
	// Dispatch runs one pass over every uploaded cell and waits for it.
	Dispatch(p Pass, params Params) error
	ReadTemperature(dst []float32) error
	ReadQuantity(dst []float32) error
	ReadReactions() ([]ReactionRecord, error)
	Cleanup()
}

// Select returns the device for a configuration name.
func Select(name string) (Device, error) {
	switch name {
	case "", "auto":
		return AutoSelect(), nil
	case "cpu":
		return NewCPUDevice(0), nil
	case "opengl":
		gl := NewOpenGLDevice()
		if !gl.Available() {
			return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, gl.Name())
		}
		return gl, nil
	}
	return nil, fmt.Errorf("%w: unknown device %q", ErrDeviceUnavailable, name)
}

// AutoSelect prefers the GPU and falls back to the CPU device.
func AutoSelect() Device {
	gl := NewOpenGLDevice()
	if gl.Available() {
		return gl
	}
	return NewCPUDevice(0)
}
