package pipeline

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/matzehuels/plasmafractal/pkg/errors"
	"github.com/matzehuels/plasmafractal/pkg/subdivide"
	"github.com/matzehuels/plasmafractal/pkg/tone"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New(errors.ErrCodeCancelled, "generator closed")

// Generator runs requests one at a time on a dedicated worker goroutine.
//
// Start and Cancel never block on generation. Pending requests collapse into
// a single slot so only the newest survives, and a request that has been
// superseded never publishes, even if it finishes after a newer one started.
// The most recent image is available from Latest at any time.
type Generator struct {
	runner runner

	mu      sync.Mutex
	seq     uint64 // sequence of the newest Start or Cancel
	pending *task  // latest-wins mailbox
	active  *task
	closed  bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}

	latest atomic.Pointer[tone.Buffer]
	state  atomic.Int32
}

// task is the mutable context of one in-flight request.
type task struct {
	id     string
	seq    uint64
	req    Request
	flag   subdivide.Flag
	ctx    context.Context
	cancel context.CancelFunc
}

// stop requests cooperative cancellation of the subdivision and the mapping.
func (t *task) stop() {
	t.flag.Cancel()
	t.cancel()
}

// NewGenerator starts a worker and returns its handle. Call Close to stop it.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		runner: runner{opts: newOptions(opts)},
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go g.loop()
	return g
}

// Start supersedes any active or queued request with req and returns the ID
// assigned to it. It returns immediately; the outcome arrives through the
// notify callback and Latest.
func (g *Generator) Start(req Request) (string, error) {
	if err := req.ValidateAndSetDefaults(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return "", ErrClosed
	}

	g.seq++
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{id: uuid.NewString(), seq: g.seq, req: req, ctx: ctx, cancel: cancel}

	if g.active != nil {
		g.active.stop()
	}
	if g.pending != nil {
		g.pending.cancel()
	}
	g.pending = t
	g.state.Store(int32(StateRunning))

	select {
	case g.wake <- struct{}{}:
	default:
	}
	return t.id, nil
}

// Cancel abandons the active request and drops any queued one. The current
// image stays published.
func (g *Generator) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	if g.active != nil {
		g.active.stop()
	}
	if g.pending != nil {
		g.pending.cancel()
		g.pending = nil
		if g.active == nil {
			g.state.Store(int32(StateCancelled))
		}
	}
}

// Latest returns the most recently published image, or nil if none has been
// published yet. The returned buffer must not be modified.
func (g *Generator) Latest() *tone.Buffer {
	return g.latest.Load()
}

// State reports whether a request is running or how the last one ended.
func (g *Generator) State() State {
	return State(g.state.Load())
}

// Close cancels outstanding work, stops the worker and waits for it to exit.
// It is safe to call more than once.
func (g *Generator) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		<-g.done
		return nil
	}
	g.closed = true
	g.seq++
	if g.active != nil {
		g.active.stop()
	}
	if g.pending != nil {
		g.pending.cancel()
		g.pending = nil
	}
	g.mu.Unlock()

	close(g.quit)
	<-g.done
	return nil
}

// =============================================================================
// Worker
// =============================================================================

func (g *Generator) loop() {
	defer close(g.done)
	for {
		select {
		case <-g.quit:
			return
		case <-g.wake:
		}
		for t := g.take(); t != nil; t = g.take() {
			g.execute(t)
		}
	}
}

// take moves the mailbox request to active.
func (g *Generator) take() *task {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active != nil {
		g.active.cancel()
	}
	g.active = g.pending
	g.pending = nil
	return g.active
}

func (g *Generator) execute(t *task) {
	r := &g.runner
	res, err := r.run(t.ctx, t.id, t.req, &t.flag)

	switch {
	case err == nil:
		if g.publish(t, res.Buffer, StateCompleted) {
			r.complete(t.ctx, res)
			g.notify(res)
			return
		}
		// Superseded between the last poll and publishing.
		r.opts.hooks.OnGenerationCancelled(t.ctx, t.id, res.Stats.Total)
		g.settle(StateCancelled)

	case stderrors.Is(err, ErrExhausted):
		if g.publish(t, nil, StateExhausted) {
			g.notify(res)
			return
		}
		g.settle(StateCancelled)

	case stderrors.Is(err, ErrCancelled):
		g.settle(StateCancelled)

	default:
		r.opts.logger.Error("generation failed", "id", shortID(t.id), "error", err)
		g.settle(StateCancelled)
	}
}

// publish stores buf and records the terminal state if t is still the newest
// request and was not cancelled. The check and the store happen under the
// same lock as Start, so a superseded task can never overwrite the image of
// a newer one. A nil buf records the state without replacing the image.
func (g *Generator) publish(t *task, buf *tone.Buffer, s State) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.seq != g.seq || t.flag.Cancelled() {
		return false
	}
	if buf != nil {
		g.latest.Store(buf)
	}
	g.state.Store(int32(s))
	return true
}

// settle records s unless a newer request is already queued.
func (g *Generator) settle(s State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		g.state.Store(int32(s))
	}
}

func (g *Generator) notify(res Result) {
	if fn := g.runner.opts.notify; fn != nil {
		fn(res)
	}
}
