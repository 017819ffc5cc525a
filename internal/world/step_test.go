package world

import (
	"image"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/voxelworld/internal/material"
)

func TestSandFallsAndSettles(t *testing.T) {
	m, _ := newTestMatrix(t, 16, floorGenerator("stone"))
	m.mustPlace(t, "sand", image.Pt(20, 18))

	runSteps(m, 80)

	if n := m.count("sand"); n != 1 {
		t.Fatalf("expected 1 sand voxel, got %d", n)
	}
	found := false
	for x := 16; x < 32; x++ {
		if m.materialAt(image.Pt(x, 30)) == "sand" {
			found = true
		}
	}
	if !found {
		t.Error("sand did not come to rest on the floor")
	}
	if m.ActiveChunks() != 0 {
		t.Errorf("%d chunks still active after settling", m.ActiveChunks())
	}
}

func TestSandSinksThroughWater(t *testing.T) {
	m, _ := newTestMatrix(t, 16, floorGenerator("stone"))
	m.mustPlace(t, "water", image.Pt(20, 30))
	m.mustPlace(t, "sand", image.Pt(20, 29))

	runSteps(m, 10)

	if got := m.materialAt(image.Pt(20, 30)); got != "sand" {
		t.Errorf("bottom cell holds %s, want sand", got)
	}
	if m.count("water") != 1 {
		t.Error("water lost while being displaced")
	}
}

func TestLiquidSpreadConservesQuantity(t *testing.T) {
	m, _ := newTestMatrix(t, 16, floorGenerator("stone"))
	for y := 20; y < 23; y++ {
		for x := 22; x < 25; x++ {
			m.mustPlace(t, "water", image.Pt(x, y))
		}
	}
	before := m.TotalQuantity()

	runSteps(m, 100)

	if after := m.TotalQuantity(); math.Abs(after-before) > 1e-9 {
		t.Errorf("quantity drifted: %.6f -> %.6f", before, after)
	}
	bottom := 0
	for x := 16; x < 32; x++ {
		if m.materialAt(image.Pt(x, 30)) == "water" {
			bottom++
		}
	}
	if bottom < 3 {
		t.Errorf("water did not spread along the floor: %d cells", bottom)
	}
}

func TestOverfullLiquidSplitsUpward(t *testing.T) {
	m, _ := newTestMatrix(t, 16, floorGenerator("stone"))
	p := image.Pt(20, 30)
	m.mustPlace(t, "water", p).Quantity = 2.5

	m.StepVoxel(p)

	if got := m.cell(p).Quantity; got != DesiredDensity {
		t.Errorf("lower cell holds %.2f, want %.2f", got, DesiredDensity)
	}
	if got := m.cell(p.Add(up)); got.Quantity != 1.5 || m.materialAt(p.Add(up)) != "water" {
		t.Errorf("split cell %+v", got)
	}
}

func TestOverfullLiquidPushesIntoLiquidAbove(t *testing.T) {
	m, _ := newTestMatrix(t, 16, floorGenerator("stone"))
	for y := 20; y < 31; y++ {
		m.mustPlace(t, "stone", image.Pt(19, y))
		m.mustPlace(t, "stone", image.Pt(21, y))
	}
	m.mustPlace(t, "water", image.Pt(20, 30)).Quantity = 3
	m.mustPlace(t, "water", image.Pt(20, 29)).Quantity = 1
	before := m.TotalQuantity()

	runSteps(m, 200)

	if after := m.TotalQuantity(); math.Abs(after-before) > 1e-9 {
		t.Errorf("quantity drifted: %.6f -> %.6f", before, after)
	}
	for y := 27; y <= 30; y++ {
		p := image.Pt(20, y)
		if got := m.materialAt(p); got != "water" {
			t.Fatalf("y=%d holds %s, want water", y, got)
		}
		if q := m.cell(p).Quantity; math.Abs(q-DesiredDensity) > 1e-9 {
			t.Errorf("y=%d holds %.2f, want %.2f", y, q, DesiredDensity)
		}
	}
}

func TestFallingSolidWakesDiagonals(t *testing.T) {
	reg := material.NewRegistry()
	reg.Register(material.Definition{Name: "grit", Kind: "solid", Density: 1.5, HeatCapacity: 1, Inertia: 1e-9})
	reg.Close()
	m := newRegistryMatrix(t, reg)

	p := image.Pt(20, 20)
	m.mustPlace(t, "grit", p)
	for _, d := range diagonals {
		m.mustPlace(t, "grit", p.Add(d)).Falling = false
	}

	if !m.StepVoxel(p) {
		t.Fatal("unsupported grit did not fall")
	}
	for _, d := range diagonals {
		q := p.Add(d)
		v := m.cell(q)
		if m.materialAt(q) != "grit" || !v.Falling {
			t.Errorf("diagonal %v not woken: %s falling=%v", d, m.materialAt(q), v.Falling)
		}
	}
}

func TestGasDissolvesBelowMinimum(t *testing.T) {
	m, _ := newTestMatrix(t, 16, nil)
	p := image.Pt(20, 20)
	m.mustPlace(t, "steam", p).Quantity = MinGasQuantity / 2

	if !m.StepVoxel(p) {
		t.Fatal("dissolving gas reported inactive")
	}
	if got := m.materialAt(p); got != "vacuum" {
		t.Errorf("got %s, want vacuum", got)
	}
}

func TestLightGasRises(t *testing.T) {
	m, _ := newTestMatrix(t, 16, nil)
	p := image.Pt(20, 25)
	m.mustPlace(t, "steam", p)

	m.StepVoxel(p)

	if got := m.materialAt(p.Add(up)); got != "steam" {
		t.Errorf("steam did not rise, above holds %s", got)
	}
}

func TestGasEqualizes(t *testing.T) {
	m, _ := newTestMatrix(t, 16, nil)
	a, b := image.Pt(20, 20), image.Pt(21, 20)
	m.mustPlace(t, "air", a).Quantity = 2
	m.mustPlace(t, "air", b).Quantity = 1
	before := m.TotalQuantity()

	m.StepVoxel(a)

	if math.Abs(m.TotalQuantity()-before) > 1e-9 {
		t.Error("equalization changed total quantity")
	}
	if m.cell(a).Quantity >= 2 {
		t.Error("dense gas did not push into its neighbour")
	}
}

func TestFireBurnsOut(t *testing.T) {
	m, _ := newTestMatrix(t, 16, nil)
	p := image.Pt(20, 20)
	m.mustPlace(t, "fire", p).Quantity = 0.02

	m.StepVoxel(p)
	if got := m.materialAt(p); got != "smoke" {
		t.Errorf("spent fire became %s, want smoke", got)
	}
}

func TestFireIgnitesFlammableNeighbours(t *testing.T) {
	reg := material.NewRegistry()
	reg.Register(material.Definition{Name: "fire", Kind: "fire", Density: 0.1, HeatCapacity: 1, Conductivity: 0.9,
		Dissipation: 0.04, BurnsInto: "ash", Temperature: 900})
	reg.Register(material.Definition{Name: "ash", Kind: "gas", Density: 0.3, HeatCapacity: 1})
	reg.Register(material.Definition{Name: "tinder", Kind: "solid", Static: true, Density: 1, HeatCapacity: 1,
		Conductivity: 0.1, Flammability: 1})
	reg.Close()
	m := newRegistryMatrix(t, reg)

	p := image.Pt(20, 20)
	m.mustPlace(t, "fire", p)
	m.mustPlace(t, "tinder", p.Add(right))
	m.mustPlace(t, "tinder", p.Add(down))

	if !m.StepVoxel(p) {
		t.Fatal("fire reported inactive")
	}
	if got := m.materialAt(p.Add(right)); got != "fire" {
		t.Errorf("right neighbour is %s, want fire", got)
	}
	if got := m.materialAt(p.Add(down)); got != "fire" {
		t.Errorf("lower neighbour is %s, want fire", got)
	}
}

func TestAcidDissolvesSolids(t *testing.T) {
	m, _ := newTestMatrix(t, 16, floorGenerator("stone"))
	m.mustPlace(t, "acid", image.Pt(20, 30))

	runSteps(m, 200)

	if n := m.count("stone"); n >= 16 {
		t.Errorf("acid dissolved nothing, %d stone cells remain", n)
	}
}

func TestParallelStepConservesMass(t *testing.T) {
	m, _ := newTestMatrix(t, 16, floorGenerator("stone"))
	rng := rand.New(rand.NewPCG(7, 7))
	names := []string{"sand", "water", "oil", "vacuum", "vacuum"}
	for y := 16; y < 64; y++ {
		for x := 16; x < 64; x++ {
			if y%16 == 15 {
				continue
			}
			m.mustPlace(t, names[rng.IntN(len(names))], image.Pt(x, y))
		}
	}
	if m.ChunkCount() != 9 {
		t.Fatalf("expected 9 chunks, got %d", m.ChunkCount())
	}
	before := m.TotalQuantity()

	runSteps(m, 60)

	if after := m.TotalQuantity(); math.Abs(after-before) > 1e-6 {
		t.Errorf("mass drifted across parallel passes: %.6f -> %.6f", before, after)
	}
}

func TestParticleSettlesOnFloor(t *testing.T) {
	m, _ := newTestMatrix(t, 16, floorGenerator("stone"))
	m.GenerateChunk(ChunkCoord{1, 1})
	sand := m.NewVoxel(m.Registry().MustID("sand"), image.Point{})
	m.SpawnParticle(sand, toVec(image.Pt(20, 18)), mgl64.Vec2{0.5, 0})

	for i := 0; i < 50 && m.ParticleCount() > 0; i++ {
		m.UpdateParticles()
	}
	if m.ParticleCount() != 0 {
		t.Fatal("particle never settled")
	}
	if m.count("sand") != 1 {
		t.Error("settled particle missing from the grid")
	}
}

func TestParticleLeavingWorldIsDropped(t *testing.T) {
	m, _ := newTestMatrix(t, 16, nil)
	m.GenerateChunk(ChunkCoord{1, 1})
	sand := m.NewVoxel(m.Registry().MustID("sand"), image.Point{})
	m.SpawnParticle(sand, toVec(image.Pt(20, 20)), toVec(image.Pt(0, 20)))

	m.UpdateParticles()
	if m.ParticleCount() != 0 {
		t.Error("particle in unloaded space kept flying")
	}
}
