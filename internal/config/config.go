package config

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/voxelworld/internal/compute"
	"github.com/san-kum/voxelworld/internal/gen"
	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/physics"
	"github.com/san-kum/voxelworld/internal/sim"
	"github.com/san-kum/voxelworld/internal/world"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	DefaultChunkSize     = 64
	DefaultGenerator     = "flat"
	DefaultGround        = 256
	DefaultSeaLevel      = 272
	DefaultAmplitude     = 48.0
	DefaultEvictionTicks = 120
	DefaultSubstepHz     = 60.0
	DefaultFixedHz       = 30.0
	DefaultHeatRate      = 0.1
	DefaultPressureRate  = 0.1
)

type Config struct {
	World     WorldConfig           `yaml:"world"`
	Sim       SimConfig             `yaml:"sim"`
	GPU       GPUConfig             `yaml:"gpu"`
	Explosion ExplosionConfig       `yaml:"explosion"`
	Materials []material.Definition `yaml:"materials,omitempty"`
	Emitters  []EmitterConfig       `yaml:"emitters,omitempty"`
}

type WorldConfig struct {
	ChunkSize       int     `yaml:"chunk_size"`
	Seed            uint64  `yaml:"seed"`
	Generator       string  `yaml:"generator"`
	Ground          int     `yaml:"ground"`
	SeaLevel        int     `yaml:"sea_level"`
	Amplitude       float64 `yaml:"amplitude"`
	Interest        [4]int  `yaml:"interest"`
	InterestPadding int     `yaml:"interest_padding"`
	EvictionTicks   int     `yaml:"eviction_ticks"`
	MinChunk        int     `yaml:"min_chunk"`
}

type SimConfig struct {
	SubstepHz  float64       `yaml:"substep_hz"`
	FixedHz    float64       `yaml:"fixed_hz"`
	Workers    int           `yaml:"workers"`
	BudgetWarn time.Duration `yaml:"budget_warn"`
}

type GPUConfig struct {
	Backend      string  `yaml:"backend"`
	Heat         bool    `yaml:"heat"`
	Pressure     bool    `yaml:"pressure"`
	Reactions    bool    `yaml:"reactions"`
	HeatRate     float64 `yaml:"heat_rate"`
	PressureRate float64 `yaml:"pressure_rate"`
}

type ExplosionConfig struct {
	Rays           int     `yaml:"rays"`
	IgniteFraction float64 `yaml:"ignite_fraction"`
	ScorchFraction float64 `yaml:"scorch_fraction"`
	ParticleSpeed  float64 `yaml:"particle_speed"`
	Magnitude      float64 `yaml:"magnitude"`
}

type EmitterConfig struct {
	Material string `yaml:"material"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Radius   int    `yaml:"radius"`
	Every    int    `yaml:"every"`
}

func DefaultConfig() *Config {
	return &Config{
		World: WorldConfig{
			ChunkSize:       DefaultChunkSize,
			Seed:            1,
			Generator:       DefaultGenerator,
			Ground:          DefaultGround,
			SeaLevel:        DefaultSeaLevel,
			Amplitude:       DefaultAmplitude,
			Interest:        [4]int{1, 1, 9, 6},
			InterestPadding: 1,
			EvictionTicks:   DefaultEvictionTicks,
			MinChunk:        1,
		},
		Sim: SimConfig{
			SubstepHz: DefaultSubstepHz,
			FixedHz:   DefaultFixedHz,
		},
		GPU: GPUConfig{
			Backend:      "auto",
			Heat:         true,
			Reactions:    true,
			HeatRate:     DefaultHeatRate,
			PressureRate: DefaultPressureRate,
		},
		Explosion: ExplosionConfig{
			Rays:           90,
			IgniteFraction: 0.5,
			ScorchFraction: 1.25,
			ParticleSpeed:  3,
			Magnitude:      50,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	w := c.World
	check(w.ChunkSize >= 16, "chunk_size must be at least 16, got %d", w.ChunkSize)
	check(w.EvictionTicks >= 0, "eviction_ticks must not be negative")
	check(w.InterestPadding >= 0, "interest_padding must not be negative")
	check(w.Interest[2] >= w.Interest[0] && w.Interest[3] >= w.Interest[1], "interest rectangle is inverted: %v", w.Interest)
	check(c.Sim.SubstepHz > 0, "substep_hz must be positive, got %f", c.Sim.SubstepHz)
	check(c.Sim.FixedHz > 0, "fixed_hz must be positive, got %f", c.Sim.FixedHz)
	check(c.Sim.Workers >= 0, "workers must not be negative")
	check(c.Sim.BudgetWarn >= 0, "budget_warn must not be negative")
	check(c.GPU.HeatRate >= 0 && c.GPU.HeatRate <= 1, "heat_rate must be in [0, 1], got %f", c.GPU.HeatRate)
	check(c.GPU.PressureRate >= 0 && c.GPU.PressureRate <= 1, "pressure_rate must be in [0, 1], got %f", c.GPU.PressureRate)
	switch c.GPU.Backend {
	case "", "auto", "cpu", "opengl":
	default:
		errs = append(errs, fmt.Errorf("unknown gpu backend %q", c.GPU.Backend))
	}
	check(c.Explosion.Rays > 0, "explosion rays must be positive")
	check(c.Explosion.IgniteFraction >= 0 && c.Explosion.IgniteFraction <= 1, "ignite_fraction must be in [0, 1]")
	for i, e := range c.Emitters {
		check(e.Material != "", "emitter %d has no material", i)
		check(e.Radius >= 0, "emitter %d radius must not be negative", i)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Registry returns the built-in materials plus any defined in the config,
// closed and ready for a world.
func (c *Config) Registry() (*material.Registry, error) {
	reg := material.NewRegistry()
	for _, d := range material.Definitions() {
		reg.Register(d)
	}
	for _, d := range c.Materials {
		if _, err := material.ParseKind(d.Kind); err != nil {
			return nil, fmt.Errorf("material %q: %w", d.Name, err)
		}
		if _, dup := reg.Lookup(d.Name); dup {
			return nil, fmt.Errorf("%w: %q", material.ErrDuplicateMaterial, d.Name)
		}
		reg.Register(d)
	}
	if err := closeRegistry(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// closeRegistry turns the registry's unresolved-reference panic into an
// error, since config materials are user input.
func closeRegistry(reg *material.Registry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("%w: %v", ErrInvalidConfig, r)
		}
	}()
	reg.Close()
	return nil
}

func (c *Config) GenParams() gen.Params {
	return gen.Params{
		Seed:      c.World.Seed,
		Ground:    c.World.Ground,
		SeaLevel:  c.World.SeaLevel,
		Amplitude: c.World.Amplitude,
		Scale:     gen.DefaultParams().Scale,
	}
}

func (c *Config) InterestRect() image.Rectangle {
	i := c.World.Interest
	return image.Rect(i[0], i[1], i[2], i[3])
}

// Device selects the compute device named by gpu.backend.
func (c *Config) Device() (compute.Device, error) {
	return compute.Select(c.GPU.Backend)
}

// WorldOptions assembles matrix options. Collaborators are passed in since
// their lifetime belongs to the caller.
func (c *Config) WorldOptions(reg *material.Registry, g world.Generator, phys physics.Engine, dev compute.Device, locks *world.Locks, log *slog.Logger) world.Options {
	opts := world.DefaultOptions()
	opts.ChunkSize = c.World.ChunkSize
	opts.MinChunk = c.World.MinChunk
	opts.EvictionTicks = c.World.EvictionTicks
	opts.InterestPadding = c.World.InterestPadding
	opts.Seed = c.World.Seed
	if c.Sim.Workers > 0 {
		opts.Workers = c.Sim.Workers
	}
	opts.Registry = reg
	opts.Generator = g
	opts.Physics = phys
	opts.Device = dev
	opts.Locks = locks
	opts.Logger = log
	opts.Batch = world.BatchOptions{
		Heat:         c.GPU.Heat,
		Pressure:     c.GPU.Pressure,
		Reactions:    c.GPU.Reactions,
		HeatRate:     float32(c.GPU.HeatRate),
		PressureRate: float32(c.GPU.PressureRate),
	}
	opts.Explosion = world.ExplosionOptions{
		Rays:           c.Explosion.Rays,
		IgniteFraction: c.Explosion.IgniteFraction,
		ScorchFraction: c.Explosion.ScorchFraction,
		ParticleSpeed:  c.Explosion.ParticleSpeed,
		Magnitude:      c.Explosion.Magnitude,
	}
	return opts
}

func (c *Config) SimConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.SubstepHz = c.Sim.SubstepHz
	cfg.FixedHz = c.Sim.FixedHz
	cfg.BudgetWarn = c.Sim.BudgetWarn
	return cfg
}
