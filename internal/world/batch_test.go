package world

import (
	"image"
	"math"
	"testing"

	"github.com/san-kum/voxelworld/internal/material"
)

func TestBatchReactionRewritesCell(t *testing.T) {
	reg := material.NewRegistry()
	reg.Register(material.Definition{Name: "a", Kind: "liquid", Density: 1, HeatCapacity: 1, Dispersion: 1,
		Reactions: []material.ReactionDef{{With: "b", Produces: "c", Rate: 1}}})
	reg.Register(material.Definition{Name: "b", Kind: "solid", Static: true, Density: 2, HeatCapacity: 1})
	reg.Register(material.Definition{Name: "c", Kind: "liquid", Density: 1, HeatCapacity: 1, Dispersion: 1})
	reg.Close()
	m := newRegistryMatrix(t, reg)

	p := image.Pt(20, 20)
	m.mustPlace(t, "a", p).Temperature = 42
	m.mustPlace(t, "b", p.Add(right))

	if err := m.BatchSimulate(); err != nil {
		t.Fatal(err)
	}
	if got := m.materialAt(p); got != "c" {
		t.Fatalf("reacting cell is %s, want c", got)
	}
	if got := m.materialAt(p.Add(right)); got != "b" {
		t.Errorf("partner became %s", got)
	}
	if v := m.cell(p); math.Abs(v.Temperature-42) > 1e-3 {
		t.Errorf("product temperature %.2f, want 42", v.Temperature)
	}
}

func TestBatchReactionNeedsContact(t *testing.T) {
	reg := material.NewRegistry()
	reg.Register(material.Definition{Name: "a", Kind: "liquid", Density: 1, HeatCapacity: 1,
		Reactions: []material.ReactionDef{{With: "b", Produces: "c", Rate: 1}}})
	reg.Register(material.Definition{Name: "b", Kind: "solid", Static: true, Density: 2, HeatCapacity: 1})
	reg.Register(material.Definition{Name: "c", Kind: "liquid", Density: 1, HeatCapacity: 1})
	reg.Close()
	m := newRegistryMatrix(t, reg)

	p := image.Pt(20, 20)
	m.mustPlace(t, "a", p)
	m.mustPlace(t, "b", p.Add(image.Pt(3, 0)))

	if err := m.BatchSimulate(); err != nil {
		t.Fatal(err)
	}
	if got := m.materialAt(p); got != "a" {
		t.Errorf("isolated cell reacted into %s", got)
	}
}

func TestBatchHeatConservesEnergy(t *testing.T) {
	m := newRegistryMatrix(t, material.Default())
	hot, cold := image.Pt(20, 20), image.Pt(21, 20)
	m.mustPlace(t, "stone", hot).Temperature = 500
	m.mustPlace(t, "stone", cold).Temperature = 20

	before := m.cell(hot).Temperature + m.cell(cold).Temperature
	for i := 0; i < 10; i++ {
		if err := m.BatchSimulate(); err != nil {
			t.Fatal(err)
		}
	}
	h, c := m.cell(hot).Temperature, m.cell(cold).Temperature
	if !(h < 500 && c > 20 && h >= c) {
		t.Fatalf("temperatures did not approach equilibrium: hot %.2f cold %.2f", h, c)
	}
	if after := h + c; math.Abs(after-before) > 0.05 {
		t.Errorf("energy drifted: %.3f -> %.3f", before, after)
	}
}

func TestBatchWithoutDeviceIsNoop(t *testing.T) {
	m, _ := newTestMatrix(t, 16, nil)
	m.mustPlace(t, "stone", image.Pt(20, 20)).Temperature = 500
	if err := m.BatchSimulate(); err != nil {
		t.Fatal(err)
	}
	if m.cell(image.Pt(20, 20)).Temperature != 500 {
		t.Error("temperature changed without a device")
	}
}
