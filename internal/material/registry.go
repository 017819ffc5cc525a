package material

import (
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"
)

// ID indexes a registered material. Vacuum is always id 0.
type ID uint16

const Vacuum ID = 0

// None marks an unset material reference.
const None ID = 0xFFFF

// Hysteresis is the margin a temperature must overshoot a phase threshold by
// before the transition fires.
const Hysteresis = 2.0

// Reaction turns a cell of the owning material into Produces when a
// 4-neighbour holds With. Rate is the per-batch-tick probability.
type Reaction struct {
	With     ID
	Produces ID
	Rate     float64
}

// Properties are the physical constants of one material.
type Properties struct {
	ID    ID
	Name  string
	Kind  Kind
	Color color.RGBA
	// ColorJitter is the per-channel random variation applied to new voxels.
	ColorJitter uint8

	Density          float64
	HeatCapacity     float64
	HeatConductivity float64

	HeatsInto ID
	HeatsAt   float64
	CoolsInto ID
	CoolsAt   float64

	DispersionRate int
	Flammability   float64
	// Dissipation is the quantity a gas loses per step.
	Dissipation float64
	// Static solids never move and force destructive placement.
	Static            bool
	InertiaResistance float64
	// BurnsInto is what fire leaves behind; None burns out to vacuum.
	BurnsInto ID
	// Temperature is the default temperature of freshly spawned voxels.
	Temperature float64

	Reactions []Reaction
}

func (p *Properties) Phase() Phase { return p.Kind.Phase() }

func (p *Properties) IsSolid() bool { return p.Kind.Phase() == PhaseSolid }

// Movable reports whether a voxel of this material can ever change cell.
func (p *Properties) Movable() bool { return !(p.IsSolid() && p.Static) }

// TransitionFor returns the material a voxel at temp turns into, if the
// temperature overshoots a threshold by more than Hysteresis.
func (p *Properties) TransitionFor(temp float64) (ID, bool) {
	if p.HeatsInto != None && temp > p.HeatsAt+Hysteresis {
		return p.HeatsInto, true
	}
	if p.CoolsInto != None && temp < p.CoolsAt-Hysteresis {
		return p.CoolsInto, true
	}
	return None, false
}

// Registry stores every material by id. It is append-only until Close.
type Registry struct {
	mu     sync.RWMutex
	props  []*Properties
	byName map[string]ID
	defs   []Definition
	closed atomic.Bool
}

// NewRegistry returns an open registry holding only vacuum.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]ID)}
	r.Register(Definition{
		Name:  "vacuum",
		Kind:  "gas",
		Color: [3]uint8{0, 0, 0},
	})
	return r
}

// Register adds a material and returns its id. References to other
// materials are resolved at Close, so definitions may come in any order.
func (r *Registry) Register(def Definition) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		panic(fmt.Errorf("%w: register %q", ErrRegistryClosed, def.Name))
	}
	if _, ok := r.byName[def.Name]; ok {
		panic(fmt.Errorf("%w: %q", ErrDuplicateMaterial, def.Name))
	}
	kind, err := ParseKind(def.Kind)
	if err != nil {
		panic(fmt.Errorf("material %q: %w", def.Name, err))
	}

	id := ID(len(r.props))
	p := &Properties{
		ID:                id,
		Name:              def.Name,
		Kind:              kind,
		Color:             color.RGBA{def.Color[0], def.Color[1], def.Color[2], 255},
		ColorJitter:       def.ColorJitter,
		Density:           def.Density,
		HeatCapacity:      def.HeatCapacity,
		HeatConductivity:  def.Conductivity,
		HeatsAt:           def.HeatsAt,
		CoolsAt:           def.CoolsAt,
		DispersionRate:    def.Dispersion,
		Flammability:      def.Flammability,
		Dissipation:       def.Dissipation,
		Static:            def.Static,
		InertiaResistance: def.Inertia,
		Temperature:       def.Temperature,
		HeatsInto:         None,
		CoolsInto:         None,
		BurnsInto:         None,
	}
	if p.InertiaResistance == 0 {
		p.InertiaResistance = kind.Capability().InertiaResistance
	}
	if p.Temperature == 0 {
		p.Temperature = NeutralTemperature
	}
	r.props = append(r.props, p)
	r.defs = append(r.defs, def)
	r.byName[def.Name] = id
	return id
}

// NeutralTemperature is the ambient temperature used when no better value
// exists, e.g. a merge that ends with zero quantity.
const NeutralTemperature = 20.0

// Close resolves cross references and freezes the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return
	}
	resolve := func(owner, name string) ID {
		if name == "" {
			return None
		}
		id, ok := r.byName[name]
		if !ok {
			panic(fmt.Errorf("%w: %q referenced by %q", ErrUnresolvedReference, name, owner))
		}
		return id
	}
	for i, def := range r.defs {
		p := r.props[i]
		p.HeatsInto = resolve(def.Name, def.HeatsInto)
		p.CoolsInto = resolve(def.Name, def.CoolsInto)
		p.BurnsInto = resolve(def.Name, def.BurnsInto)
		for _, rd := range def.Reactions {
			p.Reactions = append(p.Reactions, Reaction{
				With:     resolve(def.Name, rd.With),
				Produces: resolve(def.Name, rd.Produces),
				Rate:     rd.Rate,
			})
		}
	}
	r.defs = nil
	r.closed.Store(true)
}

func (r *Registry) Closed() bool { return r.closed.Load() }

// Get returns the properties for id. Unknown ids panic.
func (r *Registry) Get(id ID) *Properties {
	if r.closed.Load() {
		if int(id) >= len(r.props) {
			panic(fmt.Errorf("%w: id %d", ErrUnknownMaterial, id))
		}
		return r.props[id]
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.props) {
		panic(fmt.Errorf("%w: id %d", ErrUnknownMaterial, id))
	}
	return r.props[id]
}

// Lookup finds a material by name.
func (r *Registry) Lookup(name string) (ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// MustID is Lookup for names the caller knows exist.
func (r *Registry) MustID(name string) ID {
	id, ok := r.Lookup(name)
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrUnknownMaterial, name))
	}
	return id
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.props)
}

// All returns the properties in id order.
func (r *Registry) All() []*Properties {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Properties, len(r.props))
	copy(out, r.props)
	return out
}
