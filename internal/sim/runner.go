package sim

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/world"
)

// Runner owns a world and the loops driving it. The automaton steps on its
// own goroutine; fixed updates run either on a second goroutine or, with
// ManualFixedUpdate, wherever the caller invokes FixedUpdate.
type Runner struct {
	cfg   Config
	log   *slog.Logger
	locks *world.Locks
	world *world.Matrix

	pendingMu sync.Mutex
	pending   *world.Matrix

	metrics   []Metric
	observers []Observer

	statsMu sync.Mutex
	stats   Stats

	runMu  sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewRunner wraps w. Every world later handed to SetPendingWorld must be
// built with w.Locks().
func NewRunner(w *world.Matrix, cfg Config, log *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		cfg:   cfg,
		log:   log,
		locks: w.Locks(),
		world: w,
	}, nil
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Locks() *world.Locks { return r.locks }
func (r *Runner) Config() Config      { return r.cfg }

// World returns the active matrix. Callers touching it hold Locks().Voxel.
func (r *Runner) World() *world.Matrix { return r.world }

// Start launches the simulation goroutines. They stop on Stop or when ctx
// is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.group != nil {
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.stepLoop(ctx) })
	if !r.cfg.ManualFixedUpdate {
		g.Go(func() error { return r.fixedLoop(ctx) })
	}
	r.cancel, r.group = cancel, g
	r.log.Debug("runner started", "substep_hz", r.cfg.SubstepHz, "fixed_hz", r.cfg.FixedHz)
	return nil
}

// Stop cancels the loops and returns the first error a fixed update hit.
func (r *Runner) Stop() error {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.group == nil {
		return nil
	}
	r.cancel()
	err := r.group.Wait()
	r.cancel, r.group = nil, nil
	r.log.Debug("runner stopped", "ticks", r.Stats().Ticks)
	return err
}

func (r *Runner) stepLoop(ctx context.Context) error {
	period := r.cfg.substep()
	next := time.Now()
	for {
		if ctx.Err() != nil {
			return nil
		}
		now := time.Now()
		if now.Before(next) {
			time.Sleep(time.Millisecond)
			continue
		}
		behind := int(now.Sub(next) / period)
		if behind > r.cfg.MaxCatchUp {
			next = now
			behind = r.cfg.MaxCatchUp
		}
		r.setBehind(behind)
		r.Tick()
		next = next.Add(period)
	}
}

func (r *Runner) fixedLoop(ctx context.Context) error {
	t := time.NewTicker(r.cfg.fixed())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := r.FixedUpdate(); err != nil {
				return err
			}
		}
	}
}

// Tick runs one automaton sub-step under the voxel lock.
func (r *Runner) Tick() {
	start := time.Now()
	r.locks.Voxel.Lock()
	r.world.Step()
	r.locks.Voxel.Unlock()
	elapsed := time.Since(start)

	r.statsMu.Lock()
	r.stats.Ticks++
	r.stats.LastTick = elapsed
	r.statsMu.Unlock()
}

// FixedUpdate swaps in a pending world, keeps the interest region loaded,
// then with both locks held runs the batch passes, rebuilds colliders,
// syncs objects and sweeps evictable chunks.
func (r *Runner) FixedUpdate() error {
	start := time.Now()
	r.locks.Voxel.Lock()

	r.locks.Chunks.Lock()
	r.swapPending()
	r.locks.Chunks.Unlock()

	w := r.world
	w.LoadInterest()

	r.locks.Chunks.Lock()
	err := w.BatchSimulate()
	colliders := w.RegenerateColliders()
	w.SyncObjects()
	evicted := w.EvictionSweep()
	r.locks.Chunks.Unlock()

	s := Sample{
		Tick:      w.Tick(),
		Quantity:  w.TotalQuantity(),
		Chunks:    w.ChunkCount(),
		Active:    w.ActiveChunks(),
		Particles: w.ParticleCount(),
		Objects:   len(w.Objects()),
		Evicted:   evicted,
		Colliders: colliders,
	}
	r.locks.Voxel.Unlock()

	if err != nil {
		return fmt.Errorf("batch simulate: %w", err)
	}

	elapsed := time.Since(start)
	s.Fixed = elapsed
	r.statsMu.Lock()
	s.Elapsed = r.stats.LastTick
	r.stats.FixedUpdates++
	r.stats.LastFixed = elapsed
	if budget := r.cfg.budget(); elapsed > budget {
		r.stats.OverBudget++
		r.log.Warn("fixed update over budget", "elapsed", elapsed, "budget", budget)
	}
	r.stats.Last = s
	r.statsMu.Unlock()

	if evicted > 0 {
		r.log.Debug("chunks evicted", "count", evicted, "loaded", s.Chunks)
	}
	for _, m := range r.metrics {
		m.Observe(s)
	}
	for _, o := range r.observers {
		o.OnSample(s)
	}
	return nil
}

// SetPendingWorld stages w to replace the active world at the next fixed
// update.
func (r *Runner) SetPendingWorld(w *world.Matrix) error {
	if w.Locks() != r.locks {
		return ErrLockMismatch
	}
	r.pendingMu.Lock()
	r.pending = w
	r.pendingMu.Unlock()
	return nil
}

func (r *Runner) swapPending() {
	r.pendingMu.Lock()
	next := r.pending
	r.pending = nil
	r.pendingMu.Unlock()
	if next == nil || next == r.world {
		return
	}
	r.world = next
	r.log.Debug("world swapped", "chunks", next.ChunkCount(), "tick", next.Tick())
}

// Place puts a fresh voxel of id at p, overwriting the cell. Placements
// onto an object go into the object.
func (r *Runner) Place(id material.ID, p image.Point) bool {
	r.locks.Voxel.Lock()
	defer r.locks.Voxel.Unlock()
	return r.world.PlaceVoxelAt(r.world.NewVoxel(id, p), true, true)
}

// Paint places id over a disc of the given radius. Gases and liquids are
// placed non-destructively so they merge with what is there.
func (r *Runner) Paint(id material.ID, center image.Point, radius int) int {
	r.locks.Voxel.Lock()
	defer r.locks.Voxel.Unlock()
	destructive := id == material.Vacuum || r.world.Registry().Get(id).IsSolid()
	n := 0
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if math.Hypot(float64(dx), float64(dy)) > float64(radius) {
				continue
			}
			p := center.Add(image.Pt(dx, dy))
			if r.world.PlaceVoxelAt(r.world.NewVoxel(id, p), destructive, false) {
				n++
			}
		}
	}
	return n
}

// Fill overwrites every cell of rect with id, loading the covered chunks
// first. It returns the number of cells placed.
func (r *Runner) Fill(id material.ID, rect image.Rectangle) int {
	r.locks.Voxel.Lock()
	defer r.locks.Voxel.Unlock()
	r.world.LoadRegion(rect)
	n := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			p := image.Pt(x, y)
			if r.world.PlaceVoxelAtNoLoad(r.world.NewVoxel(id, p), true, true) {
				n++
			}
		}
	}
	return n
}

func (r *Runner) Explode(center image.Point, radius float64) {
	r.locks.Voxel.Lock()
	defer r.locks.Voxel.Unlock()
	r.world.ExplodeAt(center, radius)
}

// SetInterest keeps the chunk rectangle loaded.
func (r *Runner) SetInterest(chunks image.Rectangle) {
	r.locks.Voxel.Lock()
	defer r.locks.Voxel.Unlock()
	r.world.SetInterest(chunks)
}

func (r *Runner) SnapshotInto(dst *world.Snapshot, rect image.Rectangle) {
	r.locks.Voxel.Lock()
	defer r.locks.Voxel.Unlock()
	r.world.SnapshotInto(dst, rect)
}

func (r *Runner) Stats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

func (r *Runner) setBehind(n int) {
	r.statsMu.Lock()
	r.stats.Behind = n
	r.statsMu.Unlock()
}

// Metrics returns the current value of every registered metric by name.
// Call it between fixed updates, not while the runner is started.
func (r *Runner) Metrics() map[string]float64 {
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}
