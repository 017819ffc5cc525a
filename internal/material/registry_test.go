package material

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default()

	if !reg.Closed() {
		t.Fatal("default registry should be closed")
	}
	if reg.Get(Vacuum).Name != "vacuum" {
		t.Errorf("id 0 should be vacuum, got %q", reg.Get(Vacuum).Name)
	}

	water := reg.Get(reg.MustID("water"))
	if water.Kind != KindLiquid {
		t.Errorf("water kind = %v, want liquid", water.Kind)
	}
	if water.HeatsInto != reg.MustID("steam") {
		t.Error("water should heat into steam")
	}
	if len(water.Reactions) != 1 || water.Reactions[0].With != reg.MustID("lava") {
		t.Errorf("water reactions not resolved: %+v", water.Reactions)
	}
	if reg.Get(reg.MustID("stone")).Movable() {
		t.Error("stone should be static")
	}
	if !reg.Get(reg.MustID("sand")).Movable() {
		t.Error("sand should be movable")
	}
}

func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("panic %v, want %v", r, target)
		}
	}()
	fn()
}

func TestRegistryHardFailures(t *testing.T) {
	reg := Default()

	expectPanic(t, ErrUnknownMaterial, func() { reg.Get(ID(reg.Len() + 5)) })
	expectPanic(t, ErrRegistryClosed, func() { reg.Register(Definition{Name: "late", Kind: "gas"}) })
	expectPanic(t, ErrUnknownMaterial, func() { reg.MustID("unobtainium") })
}

func TestRegistryUnresolvedReference(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Definition{Name: "mud", Kind: "liquid", HeatsInto: "brick"})

	expectPanic(t, ErrUnresolvedReference, reg.Close)
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Definition{Name: "mud", Kind: "liquid"})

	expectPanic(t, ErrDuplicateMaterial, func() { reg.Register(Definition{Name: "mud", Kind: "liquid"}) })
}

func TestTransitionHysteresis(t *testing.T) {
	reg := Default()
	water := reg.Get(reg.MustID("water"))
	steam := reg.MustID("steam")
	ice := reg.MustID("ice")

	tests := []struct {
		name string
		temp float64
		want ID
		ok   bool
	}{
		{"ambient", 20, None, false},
		{"at boiling point", 100, None, false},
		{"inside upper margin", 100 + Hysteresis - 0.1, None, false},
		{"past upper margin", 100 + Hysteresis + 0.1, steam, true},
		{"inside lower margin", -Hysteresis + 0.1, None, false},
		{"past lower margin", -Hysteresis - 0.1, ice, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := water.TransitionFor(tt.temp)
			if ok != tt.ok || got != tt.want {
				t.Errorf("TransitionFor(%v) = %v,%v want %v,%v", tt.temp, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestKindCapabilities(t *testing.T) {
	if KindFire.Phase() != PhaseGas {
		t.Error("fire should behave as a gas")
	}
	if KindAcid.Phase() != PhaseLiquid {
		t.Error("acid should behave as a liquid")
	}
	if KindSolid.Capability().MovedBySolid {
		t.Error("solids must not be displaced by solids")
	}
	if KindFire.Capability().Ignitable {
		t.Error("fire cannot ignite again")
	}
	if _, err := ParseKind("plasma"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(plasma) err = %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	doc := `
materials:
  - name: mud
    kind: liquid
    color: [90, 60, 30]
    density: 1.4
    heat_capacity: 3
    conductivity: 0.3
    heats_into: dirt
    heats_at: 150
    dispersion: 2
  - name: dirt
    kind: solid
    color: [100, 70, 40]
    density: 1.5
    heat_capacity: 1
    conductivity: 0.2
`
	reg := NewRegistry()
	if err := LoadYAML(strings.NewReader(doc), reg); err != nil {
		t.Fatalf("load: %v", err)
	}
	reg.Close()

	mud := reg.Get(reg.MustID("mud"))
	if mud.HeatsInto != reg.MustID("dirt") {
		t.Error("mud should heat into dirt")
	}
	if mud.DispersionRate != 2 || mud.Density != 1.4 {
		t.Errorf("unexpected mud properties: %+v", mud)
	}
	if mud.Temperature != NeutralTemperature {
		t.Errorf("default temperature = %v", mud.Temperature)
	}
}

func TestLoadYAMLBadKind(t *testing.T) {
	doc := "materials:\n  - name: goo\n    kind: plasma\n"
	if err := LoadYAML(strings.NewReader(doc), NewRegistry()); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}
