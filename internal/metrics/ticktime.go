package metrics

import (
	"time"

	"github.com/san-kum/voxelworld/internal/sim"
)

// TickTime tracks automaton sub-step duration in milliseconds. Value is
// the mean; Max and History feed the CLI plots.
type TickTime struct {
	name    string
	total   time.Duration
	max     time.Duration
	samples int
	history []float64
	keep    int
}

// NewTickTime keeps the last keep samples for plotting.
func NewTickTime(keep int) *TickTime {
	return &TickTime{name: "tick_ms", keep: keep}
}

func (t *TickTime) Name() string { return t.name }

func (t *TickTime) Observe(s sim.Sample) {
	t.total += s.Elapsed
	t.max = max(t.max, s.Elapsed)
	t.samples++
	if t.keep > 0 {
		t.history = append(t.history, ms(s.Elapsed))
		if len(t.history) > t.keep {
			t.history = t.history[len(t.history)-t.keep:]
		}
	}
}

func (t *TickTime) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return ms(t.total) / float64(t.samples)
}

func (t *TickTime) Max() float64 { return ms(t.max) }

func (t *TickTime) History() []float64 { return t.history }

func (t *TickTime) Reset() {
	t.total = 0
	t.max = 0
	t.samples = 0
	t.history = t.history[:0]
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
