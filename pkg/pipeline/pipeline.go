// Package pipeline turns generation requests into published plasma images.
//
// This package implements the allocate → subdivide → map pipeline that is
// shared by the interactive viewer, the one-shot printer and the window host.
// By centralizing retry and cancellation policy here, the subdivision engine
// and the tone mappers stay pure functions.
//
// # Architecture
//
// A request moves through the states
//
//	Idle → Running → {Completed, Cancelled, Exhausted}
//
// Running allocates a height field of side 2^n+1. An allocation failure
// retries immediately at n-1 without publishing anything; once n drops below
// zero the request is Exhausted and the consumer is told that no image was
// produced. A cancellation observed anywhere inside the subdivision or the
// mapping pass abandons the request without publishing and without retrying.
//
// # Usage
//
// Run a single request synchronously:
//
//	res, err := pipeline.Generate(ctx, pipeline.Request{Exponent: 9, Deviation: 1, Decay: 0.5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	img := res.Buffer.Image()
//
// Or keep a Generator running behind an interactive consumer:
//
//	g := pipeline.NewGenerator(pipeline.WithNotify(func(r pipeline.Result) {
//	    prog.Send(r)
//	}))
//	defer g.Close()
//	g.Start(req)   // returns immediately, supersedes in-flight work
//	buf := g.Latest()
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plasmafractal/pkg/errors"
	"github.com/matzehuels/plasmafractal/pkg/heightfield"
	"github.com/matzehuels/plasmafractal/pkg/observability"
	"github.com/matzehuels/plasmafractal/pkg/subdivide"
	"github.com/matzehuels/plasmafractal/pkg/tone"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, Viewer, and Window
// =============================================================================

const (
	// DefaultDeviation is the initial displacement magnitude.
	DefaultDeviation = 1.0

	// DefaultDecay is the per-level deviation multiplier.
	DefaultDecay = subdivide.DefaultDecay

	// DefaultExponent gives a 513x513 grid.
	DefaultExponent = 9
)

// =============================================================================
// Outcomes
// =============================================================================

var (
	// ErrExhausted is returned by Generate when no grid size down to n=0
	// could be allocated.
	ErrExhausted = errors.New(errors.ErrCodeResourceExhausted, "no grid size could be allocated")

	// ErrCancelled is returned by Generate when the request was cancelled.
	ErrCancelled = subdivide.ErrCancelled
)

// State is the lifecycle position of a request.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateExhausted
)

// String returns a lower-case name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a request.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateExhausted
}

// =============================================================================
// Request
// =============================================================================

// Request describes one generation. A Request is copied into the task that
// runs it and is never modified afterwards.
type Request struct {
	// Exponent n selects a grid of side 2^n+1.
	Exponent int `json:"exponent"`

	// Deviation is the initial displacement magnitude r0, in [0,1].
	Deviation float32 `json:"deviation"`

	// Decay multiplies r at each recursion level, in [0,1].
	Decay float32 `json:"decay"`

	// Seed for the displacement source. Zero draws a fresh seed; the one
	// actually used is reported in Stats.Seed.
	Seed uint64 `json:"seed,omitempty"`

	// Mapper converts heights to pixels. Nil selects tone.Color().
	Mapper tone.Mapper `json:"-"`
}

// NewRequest returns a request for exponent n with the default deviation,
// decay and mapper.
func NewRequest(n int) Request {
	return Request{
		Exponent:  n,
		Deviation: DefaultDeviation,
		Decay:     DefaultDecay,
		Mapper:    tone.Color(),
	}
}

// ValidateAndSetDefaults checks field ranges and fills in the mapper. Every
// call re-checks the current field values, so a request edited after an
// earlier successful call is validated again.
func (r *Request) ValidateAndSetDefaults() error {
	if err := errors.ValidateExponent(r.Exponent); err != nil {
		return err
	}
	if err := errors.ValidateUnit("deviation", float64(r.Deviation)); err != nil {
		return err
	}
	if err := errors.ValidateUnit("decay", float64(r.Decay)); err != nil {
		return err
	}
	if r.Mapper == nil {
		r.Mapper = tone.Color()
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of one request. Buffer is nil unless State is
// StateCompleted; a nil Buffer delivered to a notify callback means the
// request was exhausted.
type Result struct {
	// ID identifies the request in logs and hooks.
	ID string

	// Request is the request as validated.
	Request Request

	// State is StateCompleted, StateCancelled or StateExhausted.
	State State

	// Buffer is the published image.
	Buffer *tone.Buffer

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains generation statistics.
type Stats struct {
	Exponent int           // exponent that produced the image (or the last one tried)
	Side     int           // side of the produced image
	Attempts int           // allocation attempts, including the successful one
	Seed     uint64        // displacement seed actually used
	Min, Max float32       // height range before mapping
	FillTime time.Duration // time spent in subdivision
	MapTime  time.Duration // time spent mapping heights to pixels
	Total    time.Duration // wall time of the whole request
}

// =============================================================================
// Options
// =============================================================================

// Allocator returns a zeroed field of side 2^n+1. Failures must wrap
// heightfield.ErrAllocation to be retried at a smaller size.
type Allocator func(n int) (*heightfield.Field, error)

// DisplacerFunc builds the random source for one attempt.
type DisplacerFunc func(seed uint64) subdivide.Displacer

// Option configures a Generator or a Generate call.
type Option func(*options)

type options struct {
	logger    *log.Logger
	notify    func(Result)
	budget    heightfield.Budget
	allocate  Allocator
	displacer DisplacerFunc
	hooks     observability.GenerationHooks
}

func newOptions(opts []Option) options {
	o := options{
		budget: heightfield.Budget{MaxCells: heightfield.DefaultMaxCells},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.allocate == nil {
		o.allocate = o.budget.Allocate
	}
	if o.displacer == nil {
		o.displacer = func(seed uint64) subdivide.Displacer { return subdivide.NewRandomDisplacer(seed) }
	}
	if o.hooks == nil {
		o.hooks = observability.Generation()
	}
	return o
}

// WithLogger sets the logger for generation events. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithNotify sets the callback invoked on the worker after each published
// image or exhausted request. It runs on the worker goroutine; consumers
// that own a UI thread should hand the result over rather than draw in it.
func WithNotify(fn func(Result)) Option {
	return func(o *options) { o.notify = fn }
}

// WithBudget limits field and buffer allocations to b.MaxCells cells each.
func WithBudget(b heightfield.Budget) Option {
	return func(o *options) { o.budget = b }
}

// WithAllocator replaces the field allocator. Pixel buffers still use the
// budget.
func WithAllocator(a Allocator) Option {
	return func(o *options) { o.allocate = a }
}

// WithDisplacer replaces the random source used for each attempt.
func WithDisplacer(fn DisplacerFunc) Option {
	return func(o *options) { o.displacer = fn }
}

// WithHooks overrides the globally registered observability hooks.
func WithHooks(h observability.GenerationHooks) Option {
	return func(o *options) { o.hooks = h }
}
