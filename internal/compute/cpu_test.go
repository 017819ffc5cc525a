package compute

import (
	"errors"
	"math"
	"testing"
)

// twoChunkFrame links ticket 0 (left) and ticket 1 (right) side by side.
func twoChunkFrame(width int) *Frame {
	f := &Frame{}
	f.Resize(2, width)
	f.Links[0*LinkStride] = 0
	f.Links[0*LinkStride+2] = 1
	f.Links[1*LinkStride] = 1
	f.Links[1*LinkStride+1] = 0
	for i := 0; i < f.Cells(); i++ {
		f.HeatCapacity[i] = 1
		f.Conductivity[i] = 1
		f.Temperature[i] = 20
		f.Material[i] = 1
		f.Mobile[i] = 1
		f.Quantity[i] = 1
	}
	return f
}

func totalEnergy(temp, capacity []float32) float64 {
	var sum float64
	for i := range temp {
		sum += float64(temp[i]) * float64(capacity[i])
	}
	return sum
}

func TestNeighborCrossesLinks(t *testing.T) {
	f := twoChunkFrame(4)

	tests := []struct {
		name string
		i, d int
		want int
	}{
		{"interior left", 5, 0, 4},
		{"right edge into next chunk", 3, 1, 16},
		{"left edge into previous chunk", 16, 0, 3},
		{"unlinked top", 1, 2, -1},
		{"down", 1, 3, 5},
		{"unlinked left", 0, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Neighbor(tt.i, tt.d); got != tt.want {
				t.Errorf("Neighbor(%d, %d) = %d, want %d", tt.i, tt.d, got, tt.want)
			}
		})
	}
}

func TestCPUHeatConservesEnergy(t *testing.T) {
	f := twoChunkFrame(8)
	f.Temperature[3] = 1000
	f.HeatCapacity[40] = 4
	f.Temperature[70] = -50
	f.HeatCapacity[100] = 0

	before := totalEnergy(f.Temperature, f.HeatCapacity)

	dev := NewCPUDevice(4)
	if err := dev.Upload(f); err != nil {
		t.Fatalf("upload: %v", err)
	}
	for i := 0; i < 50; i++ {
		if err := dev.Dispatch(PassHeat, Params{HeatRate: 0.1}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}

	out := make([]float32, f.Cells())
	if err := dev.ReadTemperature(out); err != nil {
		t.Fatalf("read: %v", err)
	}
	after := totalEnergy(out, f.HeatCapacity)

	if math.Abs(after-before) > 1e-2*math.Abs(before) {
		t.Errorf("energy drifted: before %.3f after %.3f", before, after)
	}
	if out[3] >= 1000 {
		t.Errorf("hot cell did not cool: %.2f", out[3])
	}
	if out[100] != 20 {
		t.Errorf("zero-capacity cell changed temperature to %.2f", out[100])
	}
}

func TestCPUWorkersMatchSerial(t *testing.T) {
	run := func(workers int) []float32 {
		f := twoChunkFrame(64)
		if f.Cells() < serialCutoff {
			t.Fatalf("frame of %d cells stays serial", f.Cells())
		}
		for i := 0; i < f.Cells(); i += 97 {
			f.Temperature[i] = float32(i % 500)
		}
		dev := NewCPUDevice(workers)
		if err := dev.Upload(f); err != nil {
			t.Fatalf("upload: %v", err)
		}
		for i := 0; i < 10; i++ {
			if err := dev.Dispatch(PassHeat, Params{HeatRate: 0.1}); err != nil {
				t.Fatalf("dispatch: %v", err)
			}
		}
		out := make([]float32, f.Cells())
		if err := dev.ReadTemperature(out); err != nil {
			t.Fatalf("read: %v", err)
		}
		return out
	}

	serial, split := run(1), run(6)
	for i := range serial {
		if serial[i] != split[i] {
			t.Fatalf("cell %d: serial %.4f, %d workers %.4f", i, serial[i], 6, split[i])
		}
	}
}

func TestCPUPressureConservesMass(t *testing.T) {
	f := twoChunkFrame(8)
	f.Quantity[7] = 5
	f.Material[20] = 2
	f.Mobile[30] = 0

	var before float64
	for _, q := range f.Quantity {
		before += float64(q)
	}

	dev := NewCPUDevice(1)
	if err := dev.Upload(f); err != nil {
		t.Fatalf("upload: %v", err)
	}
	for i := 0; i < 20; i++ {
		if err := dev.Dispatch(PassPressure, Params{PressureRate: 0.15}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}

	out := make([]float32, f.Cells())
	if err := dev.ReadQuantity(out); err != nil {
		t.Fatalf("read: %v", err)
	}
	var after float64
	for _, q := range out {
		after += float64(q)
	}

	if math.Abs(after-before) > 1e-3 {
		t.Errorf("mass drifted: before %.4f after %.4f", before, after)
	}
	if out[20] != 1 {
		t.Errorf("different material exchanged quantity: %.3f", out[20])
	}
	if out[30] != 1 {
		t.Errorf("immobile cell exchanged quantity: %.3f", out[30])
	}
	if out[8+7] <= 1 {
		t.Errorf("quantity did not spread from the dense cell")
	}
}

func TestCPUReactions(t *testing.T) {
	f := twoChunkFrame(4)
	f.Material[5] = 3
	f.Material[6] = 4
	f.SetRules([]Rule{
		{Material: 3, With: 4, Produces: 7, Rate: 1},
		{Material: 4, With: 9, Produces: 8, Rate: 1},
	}, 10)

	dev := NewCPUDevice(0)
	if err := dev.Upload(f); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := dev.Dispatch(PassReactions, Params{Seed: 1, Tick: 1}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	records, err := dev.ReadReactions()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 reaction, got %d", len(records))
	}
	want := ReactionRecord{Material: 7, Local: 5, Ticket: 0}
	if records[0] != want {
		t.Errorf("got %+v, want %+v", records[0], want)
	}
}

func TestReactionRateZeroNeverFires(t *testing.T) {
	f := twoChunkFrame(4)
	f.Material[5] = 3
	f.Material[6] = 4
	f.SetRules([]Rule{{Material: 3, With: 4, Produces: 7, Rate: 0}}, 10)

	dev := NewCPUDevice(0)
	if err := dev.Upload(f); err != nil {
		t.Fatalf("upload: %v", err)
	}
	for tick := uint32(0); tick < 100; tick++ {
		if err := dev.Dispatch(PassReactions, Params{Seed: 7, Tick: tick}); err != nil {
			t.Fatal(err)
		}
		records, _ := dev.ReadReactions()
		if len(records) != 0 {
			t.Fatalf("tick %d: zero-rate rule fired", tick)
		}
	}
}

func TestChanceRange(t *testing.T) {
	for cell := uint32(0); cell < 1000; cell++ {
		c := Chance(42, 3, cell, 1)
		if c < 0 || c >= 1 {
			t.Fatalf("chance out of range: %f", c)
		}
		if c != Chance(42, 3, cell, 1) {
			t.Fatal("chance not deterministic")
		}
	}
}

func TestUploadRejectsShortFrame(t *testing.T) {
	f := &Frame{Width: 4, CellsPerChunk: 16, Tickets: 1}
	err := NewCPUDevice(1).Upload(f)
	if !errors.Is(err, ErrFrameMismatch) {
		t.Errorf("expected ErrFrameMismatch, got %v", err)
	}
}

func TestSelect(t *testing.T) {
	dev, err := Select("cpu")
	if err != nil || dev.Name() != "cpu" {
		t.Fatalf("Select(cpu) = %v, %v", dev, err)
	}
	if _, err := Select("quantum"); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("expected ErrDeviceUnavailable, got %v", err)
	}
	if AutoSelect() == nil {
		t.Error("AutoSelect returned nil")
	}
}
