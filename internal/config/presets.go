package config

import (
	"sort"

	"github.com/san-kum/voxelworld/internal/material"
)

var Presets = map[string]func() *Config{
	"sandbox": func() *Config {
		return DefaultConfig()
	},
	"rain": func() *Config {
		cfg := DefaultConfig()
		cfg.GPU.Pressure = true
		cfg.Emitters = []EmitterConfig{
			{Material: "water", X: 150, Y: 80, Radius: 2, Every: 3},
			{Material: "water", X: 300, Y: 80, Radius: 2, Every: 3},
			{Material: "water", X: 450, Y: 80, Radius: 2, Every: 3},
		}
		return cfg
	},
	"lava": func() *Config {
		cfg := DefaultConfig()
		cfg.World.Generator = "terrain"
		cfg.GPU.HeatRate = 0.2
		cfg.Materials = []material.Definition{
			{Name: "magma", Kind: "liquid", Color: [3]uint8{255, 90, 20}, ColorJitter: 25, Density: 2.6,
				HeatCapacity: 1, Conductivity: 0.6, CoolsInto: "obsidian", CoolsAt: 900, Dispersion: 1,
				Temperature: 1600,
				Reactions:   []material.ReactionDef{{With: "water", Produces: "obsidian", Rate: 0.5}}},
			{Name: "obsidian", Kind: "solid", Color: [3]uint8{40, 20, 50}, ColorJitter: 6, Density: 2.4,
				HeatCapacity: 0.8, Conductivity: 0.3, HeatsInto: "magma", HeatsAt: 1300, Static: true},
		}
		cfg.Emitters = []EmitterConfig{{Material: "magma", X: 320, Y: 90, Radius: 3, Every: 2}}
		return cfg
	},
	"bench": func() *Config {
		cfg := DefaultConfig()
		cfg.World.Generator = "terrain"
		cfg.World.Interest = [4]int{1, 1, 9, 9}
		cfg.GPU.Backend = "cpu"
		cfg.GPU.Pressure = true
		cfg.Emitters = []EmitterConfig{
			{Material: "sand", X: 200, Y: 80, Radius: 4, Every: 1},
			{Material: "water", X: 400, Y: 80, Radius: 4, Every: 1},
		}
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
