package material

import (
	"fmt"
	"strings"
)

// Phase is the state of matter a kind belongs to.
type Phase uint8

const (
	PhaseGas Phase = iota
	PhaseLiquid
	PhaseSolid
)

func (p Phase) String() string {
	switch p {
	case PhaseGas:
		return "gas"
	case PhaseLiquid:
		return "liquid"
	case PhaseSolid:
		return "solid"
	}
	return "unknown"
}

// Kind selects the step rule of a material.
type Kind uint8

const (
	KindGas Kind = iota
	KindLiquid
	KindSolid
	KindFire
	KindAcid
	kindCount
)

// Capability is the static behaviour table entry for a kind.
type Capability struct {
	Phase Phase
	// Ignitable kinds turn into fire when an explosion or flame reaches them.
	Ignitable bool
	// InertiaResistance is the default chance a resting neighbour ignores a
	// falling solid next to it.
	InertiaResistance float64
	// MovedBySolid kinds can be displaced by a falling solid.
	MovedBySolid bool
	// Reactive kinds run extra rules on top of their phase movement.
	Reactive bool
}

var capabilities = [kindCount]Capability{
	KindGas:    {Phase: PhaseGas, Ignitable: true, MovedBySolid: true},
	KindLiquid: {Phase: PhaseLiquid, Ignitable: true, MovedBySolid: true},
	KindSolid:  {Phase: PhaseSolid, Ignitable: true, InertiaResistance: 0.5},
	KindFire:   {Phase: PhaseGas, MovedBySolid: true, Reactive: true},
	KindAcid:   {Phase: PhaseLiquid, MovedBySolid: true, Reactive: true},
}

var kindNames = [kindCount]string{
	KindGas:    "gas",
	KindLiquid: "liquid",
	KindSolid:  "solid",
	KindFire:   "fire",
	KindAcid:   "acid",
}

func (k Kind) Capability() Capability {
	if k >= kindCount {
		panic(fmt.Errorf("%w: %d", ErrUnknownKind, k))
	}
	return capabilities[k]
}

func (k Kind) Phase() Phase { return k.Capability().Phase }

func (k Kind) String() string {
	if k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind maps a configuration name onto a kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
