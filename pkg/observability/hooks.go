// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; nothing in nccs
// depends on a metrics backend. The command-line front end registers a
// logging implementation, tests register recorders, and everything else
// sees the no-op defaults.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAcquireHooks(&myAcquireHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Acquire().OnDownloadStart(ctx, url)
//	// ... stream the body ...
//	observability.Acquire().OnDownloadComplete(ctx, url, n, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Acquire Hooks
// =============================================================================

// AcquireHooks receives events from the file acquirer and the normalizer.
type AcquireHooks interface {
	// Download events
	OnDownloadStart(ctx context.Context, url string)
	OnDownloadComplete(ctx context.Context, url string, bytes int64, duration time.Duration, err error)

	// OnReuse records that an existing local file was used instead of the network.
	OnReuse(ctx context.Context, file string)

	// OnNormalize records a conversion to the canonical artifact.
	OnNormalize(ctx context.Context, file, format string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the warehouse cache tiers.
type CacheHooks interface {
	// OnCacheHit records that tier served table.
	OnCacheHit(ctx context.Context, tier, table string)

	// OnCacheMiss records that tier could not serve table.
	OnCacheMiss(ctx context.Context, tier, table string)

	// OnCacheSet records a write of rows into tier.
	OnCacheSet(ctx context.Context, tier, table string, rows int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, cancellation).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAcquireHooks is a no-op implementation of AcquireHooks.
type NoopAcquireHooks struct{}

func (NoopAcquireHooks) OnDownloadStart(context.Context, string) {}
func (NoopAcquireHooks) OnDownloadComplete(context.Context, string, int64, time.Duration, error) {
}
func (NoopAcquireHooks) OnReuse(context.Context, string)                                  {}
func (NoopAcquireHooks) OnNormalize(context.Context, string, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	acquireHooks AcquireHooks = NoopAcquireHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetAcquireHooks registers custom acquire hooks.
// This should be called once at application startup before any downloads.
func SetAcquireHooks(h AcquireHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		acquireHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Acquire returns the registered acquire hooks.
func Acquire() AcquireHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return acquireHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	acquireHooks = NoopAcquireHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
