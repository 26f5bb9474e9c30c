// Package providers wires per-source rate limiting and circuit breaking
// around the raw HTTP fetch layer, so a single degraded upstream (FRED rate
// limiting, a flaky RSS host) degrades gracefully instead of stalling the
// whole ingestion run.
package providers

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// LimiterConfig describes one source's token-bucket shape.
type LimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LimiterRegistry hands out one rate.Limiter per named source, created
// lazily and reused for the lifetime of the process.
type LimiterRegistry struct {
	mu       sync.Mutex
	configs  map[string]LimiterConfig
	limiters map[string]*rate.Limiter
}

// NewLimiterRegistry builds a registry from a source-name to config map.
func NewLimiterRegistry(configs map[string]LimiterConfig) *LimiterRegistry {
	return &LimiterRegistry{
		configs:  configs,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until source's bucket has a token to spend, or ctx is done.
// Sources with no configured limit pass through immediately.
func (r *LimiterRegistry) Wait(ctx context.Context, source string) error {
	limiter := r.limiterFor(source)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

func (r *LimiterRegistry) limiterFor(source string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[source]; ok {
		return l
	}
	cfg, ok := r.configs[source]
	if !ok {
		return nil
	}
	l := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	r.limiters[source] = l
	return l
}

// DefaultLimiterConfigs mirrors the per-source budgets Meridian's ingestors
// operate under: RSS feeds are polled gently, FRED and the calendar
// provider are called far less often so their daily quotas are never at
// risk.
func DefaultLimiterConfigs() map[string]LimiterConfig {
	return map[string]LimiterConfig{
		"rss":      {RequestsPerSecond: 0.5, Burst: 2},
		"fred":     {RequestsPerSecond: 1, Burst: 3},
		"calendar": {RequestsPerSecond: 0.2, Burst: 1},
		"fedcomms": {RequestsPerSecond: 0.5, Burst: 2},
		"prices":   {RequestsPerSecond: 2, Burst: 5},
	}
}

// ErrNoLimiterConfigured is returned by callers that require a configured
// source and got one without a budget entry.
var ErrNoLimiterConfigured = fmt.Errorf("providers: no limiter configured for source")
