// Package subdivide fills a height field by random midpoint displacement.
//
// Each call to Divide writes the four corners of a square, derives the four
// edge midpoints by averaging, displaces the center by a random amount scaled
// by the current deviation r, and recurses into the four quadrants with
// r*decay. Displacement therefore shrinks geometrically with depth, which is
// what gives plasma clouds their 1/f-like roughness.
//
// # Corner Layout
//
// Corner values are passed clockwise from the top-left:
//
//	a ---- p0 ---- b
//	|      |       |
//	p3 --- m ----- p1
//	|      |       |
//	d ---- p2 ---- c
//
// Shared corners of adjacent quadrants receive the same value from the same
// parent, so cells assigned more than once are always assigned identically.
//
// # Cancellation
//
// The Engine polls its Canceler at the top of every recursive call. There is
// no preemption: a cancelled fill unwinds after at most one more node per
// active stack frame.
//
// # Determinism
//
// The random source is an explicit Displacer. With a SequenceDisplacer the
// output is bit-exact for given inputs, which the golden tests rely on.
package subdivide

import (
	"github.com/matzehuels/plasmafractal/pkg/errors"
	"github.com/matzehuels/plasmafractal/pkg/heightfield"
)

// ErrCancelled is returned by Fill when the Canceler was observed set.
var ErrCancelled = errors.New(errors.ErrCodeCancelled, "subdivision cancelled")

// DefaultDecay is the per-level deviation multiplier used when none is given.
const DefaultDecay = 0.5

// Engine runs midpoint displacement over a heightfield.Field.
//
// An Engine is not safe for concurrent use; each generation owns its own.
type Engine struct {
	// Decay multiplies the deviation at every recursion level.
	Decay float32

	// Displacer supplies the random center offsets and the four seed corners.
	Displacer Displacer

	// Cancel is polled at every node. Nil means never cancelled.
	Cancel Canceler

	cancelled bool
}

// New returns an Engine with the given decay, displacer and cancellation token.
func New(decay float32, d Displacer, c Canceler) *Engine {
	return &Engine{Decay: decay, Displacer: d, Cancel: c}
}

// Fill seeds the four corners of f with Displace(1) and subdivides the whole
// field starting at deviation r0. It returns ErrCancelled if cancellation was
// observed at any node, in which case the contents of f are incomplete.
func (e *Engine) Fill(f *heightfield.Field, r0 float32) error {
	e.cancelled = false

	a := e.Displacer.Displace(1)
	b := e.Displacer.Displace(1)
	c := e.Displacer.Displace(1)
	d := e.Displacer.Displace(1)

	e.Divide(f, 0, 0, f.Side()-1, r0, a, b, c, d)

	if e.cancelled {
		return ErrCancelled
	}
	return nil
}

// Divide writes the corners a (top-left), b (top-right), c (bottom-right) and
// d (bottom-left) of the square at (x, y) spanning size cells, then recurses
// into its quadrants unless size < 2 or cancellation is requested.
func (e *Engine) Divide(f *heightfield.Field, x, y, size int, r, a, b, c, d float32) {
	f.Set(x, y, a)
	f.Set(x+size, y, b)
	f.Set(x+size, y+size, c)
	f.Set(x, y+size, d)

	if e.cancelled || (e.Cancel != nil && e.Cancel.Cancelled()) {
		e.cancelled = true
		return
	}
	if size < 2 {
		return
	}

	p0 := avg2(a, b)
	p1 := avg2(b, c)
	p2 := avg2(c, d)
	p3 := avg2(d, a)

	m := avg4(p0, p1, p2, p3) + e.Displacer.Displace(r)

	half := size / 2
	next := r * e.Decay

	e.Divide(f, x, y, half, next, a, p0, m, p3)
	e.Divide(f, x+half, y, half, next, p0, b, p1, m)
	e.Divide(f, x+half, y+half, half, next, m, p1, c, p2)
	e.Divide(f, x, y+half, half, next, p3, m, p2, d)
}

// Cancelled reports whether the last Fill stopped early.
func (e *Engine) Cancelled() bool { return e.cancelled }

func avg2(a, b float32) float32 { return (a + b) / 2 }

func avg4(a, b, c, d float32) float32 { return (a + b + c + d) / 4 }
