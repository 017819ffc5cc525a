package world

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/san-kum/voxelworld/internal/compute"
	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/physics"
)

// Locks are the two mutexes shared by a matrix and the loop driving it.
// Take Voxel before Chunks.
type Locks struct {
	Voxel  sync.Mutex
	Chunks sync.Mutex
}

// Generator builds the chunk at coord. It should start from m.NewChunk and
// fill cells with Chunk.Fill.
type Generator func(coord ChunkCoord, m *Matrix) *Chunk

type BatchOptions struct {
	Heat         bool
	Pressure     bool
	Reactions    bool
	HeatRate     float32
	PressureRate float32
}

type ExplosionOptions struct {
	Rays           int
	IgniteFraction float64
	ScorchFraction float64
	ParticleSpeed  float64
	Magnitude      float64
}

type Options struct {
	ChunkSize int
	// MinChunk reserves every chunk coordinate with a component below it.
	MinChunk        int
	EvictionTicks   int
	InterestPadding int
	Workers         int
	Seed            uint64
	SwapHeatRate    float64

	Registry  *material.Registry
	Generator Generator
	Physics   physics.Engine
	Device    compute.Device
	Locks     *Locks
	Logger    *slog.Logger

	Batch     BatchOptions
	Explosion ExplosionOptions
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:       64,
		MinChunk:        1,
		EvictionTicks:   120,
		InterestPadding: 1,
		Workers:         runtime.NumCPU(),
		Seed:            1,
		SwapHeatRate:    0.5,
		Batch: BatchOptions{
			Heat:         true,
			Reactions:    true,
			HeatRate:     0.1,
			PressureRate: 0.1,
		},
		Explosion: ExplosionOptions{
			Rays:           90,
			IgniteFraction: 0.5,
			ScorchFraction: 1.25,
			ParticleSpeed:  3,
			Magnitude:      50,
		},
	}
}
