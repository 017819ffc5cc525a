package world

import (
	"image"
	"testing"

	"github.com/san-kum/voxelworld/internal/compute"
	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/physics"
)

func newTestMatrix(t *testing.T, size int, gen Generator) (*Matrix, *physics.Recorder) {
	t.Helper()
	rec := physics.NewRecorder()
	opts := DefaultOptions()
	opts.ChunkSize = size
	opts.Generator = gen
	opts.Physics = rec
	opts.Workers = 4
	return NewMatrix(opts), rec
}

func newRegistryMatrix(t *testing.T, reg *material.Registry) *Matrix {
	t.Helper()
	opts := DefaultOptions()
	opts.ChunkSize = 16
	opts.Registry = reg
	opts.Physics = physics.NewRecorder()
	opts.Device = compute.NewCPUDevice(1)
	return NewMatrix(opts)
}

func floorGenerator(name string) Generator {
	return func(cc ChunkCoord, m *Matrix) *Chunk {
		c := m.NewChunk(cc)
		id := m.Registry().MustID(name)
		for x := 0; x < c.Size(); x++ {
			c.Fill(x, c.Size()-1, id)
		}
		return c
	}
}

func (m *Matrix) mustPlace(t *testing.T, name string, p image.Point) *Voxel {
	t.Helper()
	v := m.NewVoxel(m.Registry().MustID(name), p)
	if !m.PlaceVoxelAt(v, true, false) {
		t.Fatalf("place %s at %v failed", name, p)
	}
	return m.cell(p)
}

func (m *Matrix) materialAt(p image.Point) string {
	v := m.cell(p)
	if v == nil {
		return "<unloaded>"
	}
	return m.props(v.Material).Name
}

func (m *Matrix) count(name string) int {
	id := m.Registry().MustID(name)
	n := 0
	for _, c := range m.list {
		for i := range c.voxels {
			if c.voxels[i].Material == id {
				n++
			}
		}
	}
	return n
}

func runSteps(m *Matrix, n int) {
	for i := 0; i < n; i++ {
		m.Step()
	}
}
