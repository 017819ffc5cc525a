package sim

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidConfig = errors.New("invalid runner config")
	ErrRunning       = errors.New("runner already started")
	ErrLockMismatch  = errors.New("world does not share the runner's locks")
)

// Sample is what metrics and observers see after every fixed update.
type Sample struct {
	Tick      uint64
	Elapsed   time.Duration
	Fixed     time.Duration
	Quantity  float64
	Chunks    int
	Active    int
	Particles int
	Objects   int
	Evicted   int
	Colliders int
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(s Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Sample)

func (f ObserverFunc) OnSample(s Sample) { f(s) }

type Config struct {
	// SubstepHz is the automaton tick rate of the simulation goroutine.
	SubstepHz float64
	// FixedHz is the rate of batch passes, collider rebuilds, object sync
	// and eviction.
	FixedHz float64
	// BudgetWarn is the fixed update duration above which a warning is
	// logged. Zero means one fixed period.
	BudgetWarn time.Duration
	// ManualFixedUpdate leaves FixedUpdate to the caller, for devices that
	// must run on a particular thread.
	ManualFixedUpdate bool
	// MaxCatchUp bounds how many late sub-steps are replayed back to back.
	MaxCatchUp int
}

func DefaultConfig() Config {
	return Config{
		SubstepHz:  60,
		FixedHz:    30,
		MaxCatchUp: 4,
	}
}

func (c Config) Validate() error {
	if c.SubstepHz <= 0 {
		return fmt.Errorf("%w: substep rate must be positive, got %f", ErrInvalidConfig, c.SubstepHz)
	}
	if c.FixedHz <= 0 {
		return fmt.Errorf("%w: fixed rate must be positive, got %f", ErrInvalidConfig, c.FixedHz)
	}
	if c.BudgetWarn < 0 {
		return fmt.Errorf("%w: budget must not be negative", ErrInvalidConfig)
	}
	if c.MaxCatchUp < 0 {
		return fmt.Errorf("%w: catch-up must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c Config) substep() time.Duration {
	return time.Duration(float64(time.Second) / c.SubstepHz)
}

func (c Config) fixed() time.Duration {
	return time.Duration(float64(time.Second) / c.FixedHz)
}

func (c Config) budget() time.Duration {
	if c.BudgetWarn > 0 {
		return c.BudgetWarn
	}
	return c.fixed()
}

// Stats is a point-in-time view of a runner.
type Stats struct {
	Ticks        uint64
	FixedUpdates uint64
	Behind       int
	LastTick     time.Duration
	LastFixed    time.Duration
	OverBudget   uint64
	Last         Sample
}
