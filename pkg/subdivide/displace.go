package subdivide

import (
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// Displacer draws zero-mean random offsets scaled linearly by r.
// Implementations must return values in [-r/2, r/2).
type Displacer interface {
	Displace(r float32) float32
}

// RandomDisplacer draws uniform offsets from a seeded PCG source.
type RandomDisplacer struct {
	rng  *rand.Rand
	seed uint64
}

// NewRandomDisplacer creates a deterministic displacer. A zero seed draws a
// fresh one from the clock; Seed reports the value actually used.
func NewRandomDisplacer(seed uint64) *RandomDisplacer {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomDisplacer{rng: rand.New(rand.NewPCG(seed, 0)), seed: seed}
}

// Displace returns a value uniformly distributed in [-r/2, r/2).
func (d *RandomDisplacer) Displace(r float32) float32 {
	return float32((d.rng.Float32() - 0.5) * r)
}

// Seed returns the seed the source was created with.
func (d *RandomDisplacer) Seed() uint64 { return d.seed }

// SequenceDisplacer replays a fixed list of unit offsets, each scaled by r.
// Values should lie in [-0.5, 0.5). After the list is exhausted it returns 0.
type SequenceDisplacer struct {
	Values []float32
	calls  int
}

// Displace returns the next recorded offset scaled by r.
func (d *SequenceDisplacer) Displace(r float32) float32 {
	i := d.calls
	d.calls++
	if i >= len(d.Values) {
		return 0
	}
	return float32(d.Values[i] * r)
}

// Calls reports how many offsets have been drawn, including those past the
// end of Values.
func (d *SequenceDisplacer) Calls() int { return d.calls }

// Canceler reports whether the current fill should stop.
type Canceler interface {
	Cancelled() bool
}

// Flag is a cancellation token shared between the goroutine that requests
// cancellation and the one running the fill. The zero value is not cancelled.
type Flag struct {
	v atomic.Bool
}

// Cancel sets the flag. It is safe to call more than once and from any goroutine.
func (f *Flag) Cancel() { f.v.Store(true) }

// Cancelled reports whether Cancel has been called.
func (f *Flag) Cancelled() bool { return f.v.Load() }

// CancelAfter returns a Canceler that trips after n polls. Tests use it to
// cancel at a precise depth without timing races.
func CancelAfter(n int) Canceler {
	return &countdown{left: n}
}

type countdown struct {
	left int
}

func (c *countdown) Cancelled() bool {
	if c.left <= 0 {
		return true
	}
	c.left--
	return false
}
