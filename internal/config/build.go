package config

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/san-kum/voxelworld/internal/compute"
	"github.com/san-kum/voxelworld/internal/gen"
	"github.com/san-kum/voxelworld/internal/physics"
	"github.com/san-kum/voxelworld/internal/sim"
	"github.com/san-kum/voxelworld/internal/world"
)

// Build wires a runner: registry, generator, device, world and emitters.
// A nil device selects one from gpu.backend; a nil engine means no rigid
// bodies.
func (c *Config) Build(phys physics.Engine, dev compute.Device, log *slog.Logger) (*sim.Runner, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	reg, err := c.Registry()
	if err != nil {
		return nil, err
	}
	g, err := gen.NewRegistry().Get(c.World.Generator, c.GenParams())
	if err != nil {
		return nil, err
	}
	if dev == nil {
		if dev, err = c.Device(); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	w := world.NewMatrix(c.WorldOptions(reg, g, phys, dev, &world.Locks{}, log))
	w.SetInterest(c.InterestRect())

	scfg := c.SimConfig()
	scfg.ManualFixedUpdate = dev.Name() == "opengl"
	r, err := sim.NewRunner(w, scfg, log)
	if err != nil {
		return nil, err
	}
	for i, e := range c.Emitters {
		id, ok := reg.Lookup(e.Material)
		if !ok {
			return nil, fmt.Errorf("%w: emitter %d: unknown material %q", ErrInvalidConfig, i, e.Material)
		}
		r.AddObserver(sim.NewEmitter(r, id, image.Pt(e.X, e.Y), e.Radius, e.Every))
	}
	log.Debug("runner built", "generator", c.World.Generator, "device", dev.Name(), "chunk_size", c.World.ChunkSize)
	return r, nil
}
