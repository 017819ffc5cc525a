package sim

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/voxelworld/internal/compute"
	"github.com/san-kum/voxelworld/internal/physics"
	"github.com/san-kum/voxelworld/internal/world"
)

func newWorld(locks *world.Locks) *world.Matrix {
	opts := world.DefaultOptions()
	opts.ChunkSize = 16
	opts.Workers = 2
	opts.Locks = locks
	opts.Physics = physics.NewRecorder()
	opts.Device = compute.NewCPUDevice(1)
	return world.NewMatrix(opts)
}

func newRunner(t *testing.T, cfg Config) *Runner {
	t.Helper()
	r, err := NewRunner(newWorld(nil), cfg, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"zero substep", func(c *Config) { c.SubstepHz = 0 }},
		{"negative fixed", func(c *Config) { c.FixedHz = -1 }},
		{"negative budget", func(c *Config) { c.BudgetWarn = -time.Second }},
		{"negative catch-up", func(c *Config) { c.MaxCatchUp = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(&cfg)
			if _, err := NewRunner(newWorld(nil), cfg, nil); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestTickAdvancesWorld(t *testing.T) {
	r := newRunner(t, DefaultConfig())
	before := r.World().Tick()
	for i := 0; i < 5; i++ {
		r.Tick()
	}
	if got := r.World().Tick() - before; got != 5 {
		t.Errorf("world advanced %d ticks, want 5", got)
	}
	if r.Stats().Ticks != 5 {
		t.Errorf("stats report %d ticks", r.Stats().Ticks)
	}
}

func TestPendingWorldSwap(t *testing.T) {
	r := newRunner(t, DefaultConfig())
	if err := r.SetPendingWorld(newWorld(nil)); !errors.Is(err, ErrLockMismatch) {
		t.Fatalf("foreign locks accepted: %v", err)
	}

	next := newWorld(r.Locks())
	if err := r.SetPendingWorld(next); err != nil {
		t.Fatal(err)
	}
	if r.World() == next {
		t.Fatal("world swapped before the fixed update")
	}
	if err := r.FixedUpdate(); err != nil {
		t.Fatal(err)
	}
	if r.World() != next {
		t.Error("pending world not installed")
	}
}

func TestFixedUpdateRunsBatchHeat(t *testing.T) {
	r := newRunner(t, DefaultConfig())
	stone := r.World().Registry().MustID("stone")
	hot, cold := image.Pt(20, 20), image.Pt(21, 20)
	r.Place(stone, hot)
	r.Place(stone, cold)
	r.World().VirtualGetAt(hot, false).Temperature = 600

	if err := r.FixedUpdate(); err != nil {
		t.Fatal(err)
	}
	if got := r.World().VirtualGetAt(cold, false).Temperature; got <= 20 {
		t.Errorf("cold stone still at %.2f after a batch pass", got)
	}
}

func TestFixedUpdateLoadsInterestAndEvicts(t *testing.T) {
	r := newRunner(t, DefaultConfig())
	r.SetInterest(image.Rect(2, 2, 3, 3))
	if err := r.FixedUpdate(); err != nil {
		t.Fatal(err)
	}
	w := r.World()
	if w.ChunkAt(world.ChunkCoord{X: 2, Y: 2}) == nil {
		t.Fatal("interest chunk not loaded")
	}

	far := w.GenerateChunk(world.ChunkCoord{X: 9, Y: 9})
	far.SetCountdown(0)
	r.Tick()
	r.Tick()
	if err := r.FixedUpdate(); err != nil {
		t.Fatal(err)
	}
	if w.ChunkAt(world.ChunkCoord{X: 9, Y: 9}) != nil {
		t.Error("settled chunk outside interest survived the sweep")
	}
	if w.ChunkAt(world.ChunkCoord{X: 2, Y: 2}) == nil {
		t.Error("interest chunk was evicted")
	}
	if r.Stats().Last.Evicted == 0 {
		t.Error("sample did not record the eviction")
	}
}

func TestOverBudgetWarns(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	cfg := DefaultConfig()
	cfg.BudgetWarn = time.Nanosecond
	r, err := NewRunner(newWorld(nil), cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	r.Place(r.World().Registry().MustID("sand"), image.Pt(20, 20))

	if err := r.FixedUpdate(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "over budget") {
		t.Errorf("no warning logged: %q", buf.String())
	}
	if r.Stats().OverBudget != 1 {
		t.Errorf("over budget count %d", r.Stats().OverBudget)
	}
}

type countMetric struct{ n int }

func (c *countMetric) Name() string   { return "count" }
func (c *countMetric) Observe(Sample) { c.n++ }
func (c *countMetric) Value() float64 { return float64(c.n) }
func (c *countMetric) Reset()         { c.n = 0 }

func TestMetricsAndObservers(t *testing.T) {
	r := newRunner(t, DefaultConfig())
	m := &countMetric{}
	r.AddMetric(m)
	var seen []Sample
	r.AddObserver(ObserverFunc(func(s Sample) { seen = append(seen, s) }))

	for i := 0; i < 3; i++ {
		if err := r.FixedUpdate(); err != nil {
			t.Fatal(err)
		}
	}
	if got := r.Metrics()["count"]; got != 3 {
		t.Errorf("metric observed %v samples, want 3", got)
	}
	if len(seen) != 3 {
		t.Errorf("observer saw %d samples", len(seen))
	}
}

func TestStartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubstepHz = 500
	cfg.FixedHz = 100
	r := newRunner(t, cfg)
	r.Place(r.World().Registry().MustID("sand"), image.Pt(20, 20))

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Errorf("second start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for r.Stats().Ticks < 5 || r.Stats().FixedUpdates < 1 {
		if time.Now().After(deadline) {
			t.Fatal("runner made no progress")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	ticks := r.Stats().Ticks
	time.Sleep(20 * time.Millisecond)
	if r.Stats().Ticks != ticks {
		t.Error("runner kept ticking after Stop")
	}
	if err := r.Stop(); err != nil {
		t.Errorf("second stop: %v", err)
	}
}

func TestManualFixedUpdateSkipsLoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubstepHz = 500
	cfg.FixedHz = 500
	cfg.ManualFixedUpdate = true
	r := newRunner(t, cfg)
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	if n := r.Stats().FixedUpdates; n != 0 {
		t.Errorf("%d fixed updates ran without being asked", n)
	}
}

func TestPaint(t *testing.T) {
	r := newRunner(t, DefaultConfig())
	stone := r.World().Registry().MustID("stone")
	if n := r.Paint(stone, image.Pt(40, 40), 2); n != 13 {
		t.Errorf("painted %d cells, want 13", n)
	}
	var snap world.Snapshot
	r.SnapshotInto(&snap, image.Rect(36, 36, 45, 45))
	if _, id, ok := snap.At(image.Pt(40, 40)); !ok || id != uint16(stone) {
		t.Errorf("snapshot centre holds %d", id)
	}
}

func TestFillLoadsRegion(t *testing.T) {
	r := newRunner(t, DefaultConfig())
	stone := r.World().Registry().MustID("stone")
	rect := image.Rect(32, 32, 64, 48)

	if n := r.Fill(stone, rect); n != rect.Dx()*rect.Dy() {
		t.Errorf("filled %d cells, want %d", n, rect.Dx()*rect.Dy())
	}
	if got := r.World().ChunkCount(); got != 2 {
		t.Errorf("fill loaded %d chunks, want 2", got)
	}
	var snap world.Snapshot
	r.SnapshotInto(&snap, rect)
	for _, p := range []image.Point{rect.Min, rect.Max.Sub(image.Pt(1, 1))} {
		if _, id, ok := snap.At(p); !ok || id != uint16(stone) {
			t.Errorf("cell %v holds %d", p, id)
		}
	}
}

func TestEnsemble(t *testing.T) {
	e := NewEnsemble(func(seed uint64) (*Runner, error) {
		opts := world.DefaultOptions()
		opts.ChunkSize = 16
		opts.Seed = seed
		opts.Workers = 1
		w := world.NewMatrix(opts)
		w.PlaceVoxelAt(w.NewVoxel(w.Registry().MustID("water"), image.Pt(20, 20)), true, false)
		return NewRunner(w, DefaultConfig(), nil)
	}, 3, 10)

	stats, err := e.Run(context.Background(), 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 3 {
		t.Fatalf("got %d results", len(stats))
	}
	for i, s := range stats {
		if s.Ticks != 20 || s.FixedUpdates != 10 {
			t.Errorf("run %d: %d ticks, %d fixed updates", i, s.Ticks, s.FixedUpdates)
		}
	}
}

func TestSnapshotPoolReuse(t *testing.T) {
	p := NewSnapshotPool()
	s := p.Get()
	if s == nil {
		t.Fatal("nil snapshot")
	}
	p.Put(s)
	p.Put(nil)
}

func TestEmitter(t *testing.T) {
	r := newRunner(t, DefaultConfig())
	water := r.World().Registry().MustID("water")
	r.AddObserver(NewEmitter(r, water, image.Pt(40, 40), 0, 2))

	if err := r.FixedUpdate(); err != nil {
		t.Fatal(err)
	}
	if q := r.World().TotalQuantity(); q != 0 {
		t.Fatalf("emitter fired early: quantity %f", q)
	}
	if err := r.FixedUpdate(); err != nil {
		t.Fatal(err)
	}
	if q := r.World().TotalQuantity(); q <= 0 {
		t.Error("emitter did not fire on its period")
	}
}
