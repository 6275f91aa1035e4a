package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plasmafractal/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Generated 513x513 plasma (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Generation Hooks
// =============================================================================

// logHooks reports generation events through a logger. Start and retry
// events are debug-level; outcomes the user may care about are louder.
type logHooks struct {
	observability.NoopGenerationHooks
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l.WithPrefix("gen")}
}

func (h *logHooks) OnGenerationStart(_ context.Context, id string, exponent int) {
	h.logger.Debug("start", "id", short(id), "exponent", exponent)
}

func (h *logHooks) OnAllocationRetry(_ context.Context, id string, exponent int, err error) {
	h.logger.Debug("retry smaller", "id", short(id), "exponent", exponent, "error", err)
}

func (h *logHooks) OnGenerationCancelled(_ context.Context, id string, d time.Duration) {
	h.logger.Debug("cancelled", "id", short(id), "after", d.Round(time.Millisecond))
}

func (h *logHooks) OnGenerationExhausted(_ context.Context, id string, attempts int) {
	h.logger.Warn("no grid size could be allocated", "id", short(id), "attempts", attempts)
}

// short abbreviates a request ID for log lines.
func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
