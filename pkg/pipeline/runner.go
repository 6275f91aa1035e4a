package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/plasmafractal/pkg/heightfield"
	"github.com/matzehuels/plasmafractal/pkg/subdivide"
	"github.com/matzehuels/plasmafractal/pkg/tone"
)

// runner executes one request with the shared retry and cancellation policy.
// Both Generate and the Generator worker go through it.
//
// The runner holds no per-request state, so one value may serve many
// requests as long as they run one at a time.
type runner struct {
	opts options
}

// run executes req until it completes, is cancelled through c or ctx, or is
// exhausted. The returned error is nil, ErrCancelled, ErrExhausted, or an
// unexpected failure that is not an allocation error.
func (r *runner) run(ctx context.Context, id string, req Request, c subdivide.Canceler) (Result, error) {
	start := time.Now()
	res := Result{ID: id, Request: req}
	logger := r.opts.logger.With("id", shortID(id))

	seed := req.Seed
	if seed == 0 {
		seed = subdivide.NewRandomDisplacer(0).Seed()
	}
	res.Stats.Seed = seed

	r.opts.hooks.OnGenerationStart(ctx, id, req.Exponent)
	logger.Debug("generation started", "exponent", req.Exponent, "deviation", req.Deviation, "decay", req.Decay, "seed", seed)

	cancelled := func() (Result, error) {
		res.State = StateCancelled
		res.Stats.Total = time.Since(start)
		r.opts.hooks.OnGenerationCancelled(ctx, id, res.Stats.Total)
		logger.Debug("generation cancelled", "exponent", res.Stats.Exponent, "duration", res.Stats.Total)
		return res, ErrCancelled
	}

	for n := req.Exponent; n >= 0; n-- {
		if c.Cancelled() || ctx.Err() != nil {
			return cancelled()
		}
		res.Stats.Attempts++
		res.Stats.Exponent = n

		field, buf, err := r.allocate(n)
		if err != nil {
			if !heightfield.IsAllocation(err) {
				return res, fmt.Errorf("allocate n=%d: %w", n, err)
			}
			r.opts.hooks.OnAllocationRetry(ctx, id, n, err)
			logger.Warn("allocation failed, retrying smaller", "exponent", n, "error", err)
			continue
		}

		fillStart := time.Now()
		engine := subdivide.New(req.Decay, r.opts.displacer(seed), c)
		if err := engine.Fill(field, req.Deviation); err != nil {
			if stderrors.Is(err, subdivide.ErrCancelled) {
				return cancelled()
			}
			return res, fmt.Errorf("subdivide n=%d: %w", n, err)
		}
		res.Stats.FillTime = time.Since(fillStart)

		// Mapping has no Canceler of its own; it stops through ctx only.
		if c.Cancelled() {
			return cancelled()
		}
		mapStart := time.Now()
		if err := tone.ApplyInto(ctx, field, req.Mapper, buf); err != nil {
			if ctx.Err() != nil {
				return cancelled()
			}
			return res, err
		}
		res.Stats.MapTime = time.Since(mapStart)
		res.Stats.Min, res.Stats.Max = field.MinMax()
		res.Stats.Side = buf.Side

		res.State = StateCompleted
		res.Buffer = buf
		res.Stats.Total = time.Since(start)
		return res, nil
	}

	res.State = StateExhausted
	res.Stats.Total = time.Since(start)
	r.opts.hooks.OnGenerationExhausted(ctx, id, res.Stats.Attempts)
	logger.Error("generation exhausted", "attempts", res.Stats.Attempts)
	return res, ErrExhausted
}

// allocate reserves the field and the pixel buffer for exponent n together,
// so a size that cannot hold both is skipped before any work is done.
func (r *runner) allocate(n int) (*heightfield.Field, *tone.Buffer, error) {
	field, err := r.opts.allocate(n)
	if err != nil {
		return nil, nil, err
	}
	buf, err := tone.NewBuffer(r.opts.budget, n)
	if err != nil {
		return nil, nil, err
	}
	return field, buf, nil
}

// =============================================================================
// Synchronous entry point
// =============================================================================

// Generate runs one request on the calling goroutine with the same retry
// policy as a Generator. It returns ErrCancelled if ctx is done before the
// image is complete and ErrExhausted if no size could be allocated. The
// notify option is ignored.
func Generate(ctx context.Context, req Request, opts ...Option) (Result, error) {
	if err := req.ValidateAndSetDefaults(); err != nil {
		return Result{Request: req}, fmt.Errorf("invalid request: %w", err)
	}
	r := &runner{opts: newOptions(opts)}

	var flag subdivide.Flag
	stop := context.AfterFunc(ctx, flag.Cancel)
	defer stop()

	res, err := r.run(ctx, uuid.NewString(), req, &flag)
	if err == nil {
		r.complete(ctx, res)
	}
	return res, err
}

// complete reports a published result to hooks and the log.
func (r *runner) complete(ctx context.Context, res Result) {
	r.opts.hooks.OnGenerationComplete(ctx, res.ID, res.Stats.Exponent, res.Stats.Total)
	r.opts.logger.Info("generated plasma",
		"id", shortID(res.ID),
		"side", res.Stats.Side,
		"attempts", res.Stats.Attempts,
		"duration", res.Stats.Total.Round(time.Millisecond))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
