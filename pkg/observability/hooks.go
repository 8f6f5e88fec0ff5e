// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through the registered hooks; the defaults do
// nothing. The command registers hooks once at startup:
//
//	observability.SetFetchHooks(observability.NewLogHooks(logger))
//	observability.SetCacheHooks(observability.NewLogHooks(logger))
//
// and libraries call them around the instrumented work:
//
//	observability.Fetch().OnFetchStart(ctx, route, host)
//	// ... request ...
//	observability.Fetch().OnFetchComplete(ctx, route, host, status, elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Hook Interfaces
// =============================================================================

// FetchHooks receives events from capabilities requests. Route names how
// the request was sent ("ogc-proxy", "auth-proxy" or "direct").
type FetchHooks interface {
	OnFetchStart(ctx context.Context, route, host string)
	OnFetchComplete(ctx context.Context, route, host string, statusCode int, duration time.Duration, err error)
}

// CacheHooks receives events from cache lookups. KeyType is the cache key
// namespace, e.g. "capabilities" or "proxy".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

type NoopFetchHooks struct{}

func (NoopFetchHooks) OnFetchStart(context.Context, string, string) {}
func (NoopFetchHooks) OnFetchComplete(context.Context, string, string, int, time.Duration, error) {
}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Logging Implementation
// =============================================================================

// LogHooks reports every event as a debug log line.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks logging to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l.WithPrefix("hooks")}
}

func (h *LogHooks) OnFetchStart(_ context.Context, route, host string) {
	h.logger.Debug("fetch start", "route", route, "host", host)
}

func (h *LogHooks) OnFetchComplete(_ context.Context, route, host string, status int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("fetch failed", "route", route, "host", host, "status", status, "duration", d, "err", err)
		return
	}
	h.logger.Debug("fetch done", "route", route, "host", host, "status", status, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	fetchHooks FetchHooks = NoopFetchHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetFetchHooks registers fetch hooks. Nil is ignored.
func SetFetchHooks(h FetchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		fetchHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

func Fetch() FetchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return fetchHooks
}

func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	fetchHooks = NoopFetchHooks{}
	cacheHooks = NoopCacheHooks{}
}
