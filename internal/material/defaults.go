package material

// Definitions returns the built-in material set.
func Definitions() []Definition {
	return []Definition{
		{Name: "air", Kind: "gas", Color: [3]uint8{18, 20, 28}, Density: 0.5, HeatCapacity: 1, Conductivity: 0.05, Dispersion: 3},
		{Name: "steam", Kind: "gas", Color: [3]uint8{200, 200, 210}, ColorJitter: 12, Density: 0.2, HeatCapacity: 2, Conductivity: 0.1,
			CoolsInto: "water", CoolsAt: 100, Dispersion: 3, Temperature: 110},
		{Name: "smoke", Kind: "gas", Color: [3]uint8{70, 70, 70}, ColorJitter: 10, Density: 0.3, HeatCapacity: 1, Conductivity: 0.05,
			Dispersion: 2, Dissipation: 0.01, Temperature: 120},
		{Name: "fire", Kind: "fire", Color: [3]uint8{255, 120, 30}, ColorJitter: 40, Density: 0.1, HeatCapacity: 1, Conductivity: 0.9,
			CoolsInto: "smoke", CoolsAt: 200, Dispersion: 1, Dissipation: 0.04, BurnsInto: "smoke", Temperature: 900},
		{Name: "water", Kind: "liquid", Color: [3]uint8{40, 90, 220}, ColorJitter: 8, Density: 1.0, HeatCapacity: 4, Conductivity: 0.6,
			HeatsInto: "steam", HeatsAt: 100, CoolsInto: "ice", CoolsAt: 0, Dispersion: 5,
			Reactions: []ReactionDef{{With: "lava", Produces: "steam", Rate: 0.3}}},
		{Name: "oil", Kind: "liquid", Color: [3]uint8{60, 45, 20}, ColorJitter: 6, Density: 0.8, HeatCapacity: 2, Conductivity: 0.15,
			HeatsInto: "fire", HeatsAt: 250, Dispersion: 3, Flammability: 0.3},
		{Name: "lava", Kind: "liquid", Color: [3]uint8{230, 70, 10}, ColorJitter: 25, Density: 3.0, HeatCapacity: 1.5, Conductivity: 0.5,
			CoolsInto: "stone", CoolsAt: 800, Dispersion: 1, Temperature: 1300,
			Reactions: []ReactionDef{{With: "water", Produces: "stone", Rate: 0.3}}},
		{Name: "acid", Kind: "acid", Color: [3]uint8{120, 230, 40}, ColorJitter: 15, Density: 1.2, HeatCapacity: 3, Conductivity: 0.5,
			HeatsInto: "smoke", HeatsAt: 300, Dispersion: 4, Dissipation: 0.1,
			Reactions: []ReactionDef{{With: "water", Produces: "water", Rate: 0.05}}},
		{Name: "sand", Kind: "solid", Color: [3]uint8{200, 180, 110}, ColorJitter: 20, Density: 1.6, HeatCapacity: 0.8, Conductivity: 0.3,
			HeatsInto: "lava", HeatsAt: 1700, Inertia: 0.1},
		{Name: "stone", Kind: "solid", Color: [3]uint8{110, 110, 115}, ColorJitter: 12, Density: 2.5, HeatCapacity: 0.8, Conductivity: 0.4,
			HeatsInto: "lava", HeatsAt: 1100, Static: true},
		{Name: "wood", Kind: "solid", Color: [3]uint8{110, 70, 35}, ColorJitter: 10, Density: 0.7, HeatCapacity: 1.7, Conductivity: 0.1,
			HeatsInto: "fire", HeatsAt: 300, Flammability: 0.05, Static: true},
		{Name: "ice", Kind: "solid", Color: [3]uint8{170, 210, 240}, ColorJitter: 8, Density: 0.9, HeatCapacity: 2, Conductivity: 0.8,
			HeatsInto: "water", HeatsAt: 0, Static: true, Temperature: -10},
		{Name: "coal", Kind: "solid", Color: [3]uint8{30, 30, 30}, ColorJitter: 6, Density: 1.4, HeatCapacity: 1.3, Conductivity: 0.2,
			HeatsInto: "fire", HeatsAt: 400, Flammability: 0.02, Inertia: 0.6},
	}
}

// Default returns a closed registry with vacuum and the built-in set.
func Default() *Registry {
	r := NewRegistry()
	for _, d := range Definitions() {
		r.Register(d)
	}
	r.Close()
	return r
}
