package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/voxelworld/internal/config"
	"github.com/san-kum/voxelworld/internal/sim"
)

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.World.ChunkSize = 16
	cfg.World.Interest = [4]int{1, 1, 4, 4}
	cfg.Sim.Workers = 1
	cfg.GPU.Backend = "cpu"
	return cfg
}

func newRunner(t *testing.T) *sim.Runner {
	t.Helper()
	r, err := smallConfig().Build(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drop.yaml")
	doc := `name: drop
description: sand falls past a stone block
preset: sandbox
steps:
  - action: fill
    material: stone
    x: 20
    y: 40
    w: 4
    h: 2
  - action: run
    ticks: 5
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "drop" || len(s.Steps) != 2 {
		t.Fatalf("loaded %+v", s)
	}
	if st := s.Steps[0]; st.Action != "fill" || st.W != 4 || st.Material != "stone" {
		t.Errorf("first step %+v", st)
	}
}

func TestRunScenario(t *testing.T) {
	s := &Scenario{Steps: []ScenarioStep{
		{Action: "fill", Material: "stone", X: 20, Y: 40, W: 3, H: 2},
		{Action: "paint", Material: "sand", X: 40, Y: 17},
		{Action: "run", Ticks: 10},
		{Action: "expect", Material: "stone", X: 21, Y: 41},
		{Action: "expect", Material: "vacuum", X: 40, Y: 17},
	}}
	results, err := RunScenario(context.Background(), s, newRunner(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 5 {
		t.Fatalf("%d results", len(results))
	}
	if results[2].Stats.Ticks != 10 {
		t.Errorf("run step left %d ticks", results[2].Stats.Ticks)
	}
}

func TestRunScenarioFailures(t *testing.T) {
	tests := []struct {
		name string
		step ScenarioStep
		want error
	}{
		{"unknown action", ScenarioStep{Action: "teleport"}, ErrUnknownAction},
		{"unknown material", ScenarioStep{Action: "paint", Material: "unobtainium"}, nil},
		{"expectation", ScenarioStep{Action: "expect", Material: "water", X: 20, Y: 20}, ErrExpectation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scenario{Steps: []ScenarioStep{tt.step}}
			results, err := RunScenario(context.Background(), s, newRunner(t), nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if len(results) != 0 {
				t.Errorf("failed step reported %d results", len(results))
			}
		})
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{
		Base:      smallConfig(),
		ParamName: "heat_rate",
		ParamMin:  0,
		ParamMax:  0.2,
		NumSteps:  3,
		Ticks:     4,
	}
	results, err := RunSweep(context.Background(), sweep, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("%d results", len(results))
	}
	want := []float64{0, 0.1, 0.2}
	for i, r := range results {
		if d := r.ParamValue - want[i]; d > 1e-9 || d < -1e-9 {
			t.Errorf("point %d at %f, want %f", i, r.ParamValue, want[i])
		}
	}
}

func TestRunSweepRejects(t *testing.T) {
	if _, err := RunSweep(context.Background(), &ParameterSweep{ParamName: "gravity", NumSteps: 2}, nil); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("unknown param: %v", err)
	}
	if _, err := RunSweep(context.Background(), &ParameterSweep{ParamName: "seed"}, nil); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("zero steps: %v", err)
	}
	if got := SweepParams(); len(got) != len(sweepParams) || got[0] != "amplitude" {
		t.Errorf("SweepParams() = %v", got)
	}
}
