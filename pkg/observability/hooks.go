// Package observability provides hooks for metrics, tracing, and logging of
// plasma generation.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about generation attempts, allocation retries, and outcomes.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (structured logs, Prometheus, tracing, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGenerationHooks(&myHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Generation().OnGenerationStart(ctx, id, n)
//	// ... allocate, subdivide, map ...
//	observability.Generation().OnGenerationComplete(ctx, id, n, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Generation Hooks
// =============================================================================

// GenerationHooks receives events from the generation pipeline. Every request
// produces one OnGenerationStart followed by exactly one of Complete,
// Cancelled, or Exhausted. OnAllocationRetry fires once per size that failed.
type GenerationHooks interface {
	// OnGenerationStart records the start of a request at its initial exponent.
	OnGenerationStart(ctx context.Context, id string, exponent int)

	// OnAllocationRetry records an allocation failure at exponent before the
	// pipeline retries one size smaller.
	OnAllocationRetry(ctx context.Context, id string, exponent int, err error)

	// OnGenerationComplete records a published image at the exponent that
	// finally succeeded.
	OnGenerationComplete(ctx context.Context, id string, exponent int, duration time.Duration)

	// OnGenerationCancelled records a request abandoned without publishing.
	OnGenerationCancelled(ctx context.Context, id string, duration time.Duration)

	// OnGenerationExhausted records a request for which no size could be
	// allocated.
	OnGenerationExhausted(ctx context.Context, id string, attempts int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnGenerationStart(context.Context, string, int)                   {}
func (NoopGenerationHooks) OnAllocationRetry(context.Context, string, int, error)            {}
func (NoopGenerationHooks) OnGenerationComplete(context.Context, string, int, time.Duration) {}
func (NoopGenerationHooks) OnGenerationCancelled(context.Context, string, time.Duration)     {}
func (NoopGenerationHooks) OnGenerationExhausted(context.Context, string, int)               {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generationHooks GenerationHooks = NoopGenerationHooks{}
	hooksMu         sync.RWMutex
)

// SetGenerationHooks registers custom generation hooks.
// This should be called once at application startup before any generation.
func SetGenerationHooks(h GenerationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generationHooks = h
	}
}

// Generation returns the registered generation hooks.
func Generation() GenerationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generationHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	generationHooks = NoopGenerationHooks{}
}
