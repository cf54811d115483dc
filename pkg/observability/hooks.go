// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about treebank processing, grammar training, and cache
// operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks take plain values rather than domain types, so any package can emit
// events without importing the packages that consume them.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetTrainingHooks(&myTrainingHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnFileStart(ctx, "analyze", path)
//	// ... process the file ...
//	observability.Pipeline().OnFileComplete(ctx, "analyze", path, sentences, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from treebank file processing.
type PipelineHooks interface {
	OnFileStart(ctx context.Context, task, path string)
	OnFileComplete(ctx context.Context, task, path string, sentences int, duration time.Duration, err error)
}

// =============================================================================
// Training Hooks
// =============================================================================

// TrainingHooks receives events from grammar hill-climbing runs.
type TrainingHooks interface {
	// OnRunStart is called once the initial grammars are drawn.
	OnRunStart(ctx context.Context, candidates, deprels int)

	// OnStep is called after every optimization step, including burn-in
	// steps that produce no record.
	OnStep(ctx context.Context, candidate, epoch int, burnIn, accepted, inert bool, meanImprovement float64, duration time.Duration)

	// OnRunComplete is called when the run ends, successfully or not.
	OnRunComplete(ctx context.Context, epochs int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnFileStart(context.Context, string, string) {}
func (NoopPipelineHooks) OnFileComplete(context.Context, string, string, int, time.Duration, error) {
}

// NoopTrainingHooks is a no-op implementation of TrainingHooks.
type NoopTrainingHooks struct{}

func (NoopTrainingHooks) OnRunStart(context.Context, int, int) {}
func (NoopTrainingHooks) OnStep(context.Context, int, int, bool, bool, bool, float64, time.Duration) {
}
func (NoopTrainingHooks) OnRunComplete(context.Context, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	trainingHooks TrainingHooks = NoopTrainingHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any files are processed.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetTrainingHooks registers custom training hooks.
func SetTrainingHooks(h TrainingHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		trainingHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Training returns the registered training hooks.
func Training() TrainingHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return trainingHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	trainingHooks = NoopTrainingHooks{}
	cacheHooks = NoopCacheHooks{}
}
