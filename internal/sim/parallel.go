package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent headless worlds side by side, one per seed.
type Ensemble struct {
	build     func(seed uint64) (*Runner, error)
	numRuns   int
	seedStart uint64
}

func NewEnsemble(build func(seed uint64) (*Runner, error), numRuns int, seedStart uint64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

// Run steps every world for ticks automaton sub-steps, interleaving fixed
// updates at the configured ratio, and returns each runner's final stats.
func (e *Ensemble) Run(ctx context.Context, ticks int) ([]Stats, error) {
	results := make([]Stats, e.numRuns)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			r, err := e.build(e.seedStart + uint64(i))
			if err != nil {
				return err
			}
			if err := Drive(ctx, r, ticks); err != nil {
				return err
			}
			results[i] = r.Stats()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Drive steps r synchronously as fast as possible, as a benchmark or test
// would, calling FixedUpdate whenever enough sub-steps have passed.
func Drive(ctx context.Context, r *Runner, ticks int) error {
	ratio := r.cfg.SubstepHz / r.cfg.FixedHz
	var acc float64
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Tick()
		acc++
		if acc >= ratio {
			acc -= ratio
			if err := r.FixedUpdate(); err != nil {
				return err
			}
		}
	}
	return nil
}
