// Package automation runs scripted scenarios and parameter sweeps against
// headless worlds.
package automation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/voxelworld/internal/config"
	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/metrics"
	"github.com/san-kum/voxelworld/internal/sim"
	"github.com/san-kum/voxelworld/internal/world"
)

var (
	ErrUnknownAction = errors.New("automation: unknown action")
	ErrExpectation   = errors.New("automation: expectation failed")
	ErrUnknownParam  = errors.New("automation: unknown sweep parameter")
)

// Scenario defines a scripted sequence against one world.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Seed        uint64         `yaml:"seed"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one action. Paint and explode act at (x, y) with radius;
// fill covers the w by h rectangle at (x, y); run advances ticks sub-steps;
// expect checks the material at (x, y).
type ScenarioStep struct {
	Action   string `yaml:"action"`
	Material string `yaml:"material,omitempty"`
	X        int    `yaml:"x,omitempty"`
	Y        int    `yaml:"y,omitempty"`
	W        int    `yaml:"w,omitempty"`
	H        int    `yaml:"h,omitempty"`
	Radius   int    `yaml:"radius,omitempty"`
	Ticks    int    `yaml:"ticks,omitempty"`
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// Build creates the scenario's world from its preset, or the default
// config when it names none.
func (s *Scenario) Build(log *slog.Logger) (*sim.Runner, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", config.ErrInvalidConfig, s.Preset)
		}
	}
	if s.Seed != 0 {
		cfg.World.Seed = s.Seed
	}
	return cfg.Build(nil, nil, log)
}

// StepResult is the world state after one step.
type StepResult struct {
	Step   int
	Action string
	Stats  sim.Stats
}

// RunScenario executes every step against r and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, r *sim.Runner, log *slog.Logger) ([]StepResult, error) {
	if log == nil {
		log = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))
	reg := r.World().Registry()

	for i, step := range scenario.Steps {
		log.Debug("scenario step", "n", i+1, "of", len(scenario.Steps), "action", step.Action)
		if err := runStep(ctx, r, reg, step); err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		results = append(results, StepResult{Step: i + 1, Action: step.Action, Stats: r.Stats()})
	}
	return results, nil
}

func runStep(ctx context.Context, r *sim.Runner, reg *material.Registry, step ScenarioStep) error {
	at := image.Pt(step.X, step.Y)
	switch step.Action {
	case "paint":
		id, err := lookup(reg, step.Material)
		if err != nil {
			return err
		}
		r.Paint(id, at, step.Radius)
	case "fill":
		id, err := lookup(reg, step.Material)
		if err != nil {
			return err
		}
		r.Fill(id, image.Rect(step.X, step.Y, step.X+step.W, step.Y+step.H))
	case "explode":
		r.Explode(at, float64(step.Radius))
	case "run":
		return sim.Drive(ctx, r, step.Ticks)
	case "expect":
		id, err := lookup(reg, step.Material)
		if err != nil {
			return err
		}
		var snap world.Snapshot
		r.SnapshotInto(&snap, image.Rectangle{Min: at, Max: at.Add(image.Pt(1, 1))})
		_, got, _ := snap.At(at)
		if material.ID(got) != id {
			return fmt.Errorf("%w: %s at %v, found %s", ErrExpectation, step.Material, at, reg.Get(material.ID(got)).Name)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, step.Action)
	}
	return nil
}

func lookup(reg *material.Registry, name string) (material.ID, error) {
	id, ok := reg.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", material.ErrUnknownMaterial, name)
	}
	return id, nil
}

// ParameterSweep runs one world per value of a config parameter. Base, when
// set, replaces the preset as the starting config.
type ParameterSweep struct {
	Base      *config.Config
	Preset    string
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Ticks     int
}

// SweepResult holds the outcome of one sweep point.
type SweepResult struct {
	ParamValue    float64
	FinalQuantity float64
	MaxDrift      float64
	MeanActivity  float64
	Particles     int
}

var sweepParams = map[string]func(*config.Config, float64){
	"heat_rate":       func(c *config.Config, v float64) { c.GPU.HeatRate = v },
	"pressure_rate":   func(c *config.Config, v float64) { c.GPU.PressureRate = v },
	"ignite_fraction": func(c *config.Config, v float64) { c.Explosion.IgniteFraction = v },
	"amplitude":       func(c *config.Config, v float64) { c.World.Amplitude = v },
	"seed":            func(c *config.Config, v float64) { c.World.Seed = uint64(v) },
}

// RunSweep executes a parameter sweep.
func RunSweep(ctx context.Context, sweep *ParameterSweep, log *slog.Logger) ([]SweepResult, error) {
	set, ok := sweepParams[sweep.ParamName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, sweep.ParamName)
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one step", config.ErrInvalidConfig)
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}
	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg, err := sweep.config()
		if err != nil {
			return nil, err
		}
		set(cfg, paramVal)
		r, err := cfg.Build(nil, nil, log)
		if err != nil {
			return nil, fmt.Errorf("sweep %s=%.4f: %w", sweep.ParamName, paramVal, err)
		}
		drift := metrics.NewQuantityDrift()
		activity := metrics.NewActivity()
		r.AddMetric(drift)
		r.AddMetric(activity)

		if err := sim.Drive(ctx, r, sweep.Ticks); err != nil {
			return nil, err
		}
		last := r.Stats().Last
		results = append(results, SweepResult{
			ParamValue:    paramVal,
			FinalQuantity: last.Quantity,
			MaxDrift:      drift.Value(),
			MeanActivity:  activity.Value(),
			Particles:     last.Particles,
		})
	}
	return results, nil
}

func (sweep *ParameterSweep) config() (*config.Config, error) {
	switch {
	case sweep.Base != nil:
		c := *sweep.Base
		return &c, nil
	case sweep.Preset != "":
		if c := config.GetPreset(sweep.Preset); c != nil {
			return c, nil
		}
		return nil, fmt.Errorf("%w: unknown preset %q", config.ErrInvalidConfig, sweep.Preset)
	}
	return config.DefaultConfig(), nil
}

// SweepParams lists the parameters RunSweep accepts.
func SweepParams() []string {
	names := make([]string, 0, len(sweepParams))
	for name := range sweepParams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
