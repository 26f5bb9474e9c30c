package providers

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerConfig tunes one source's circuit breaker.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

// BreakerRegistry hands out one gobreaker.CircuitBreaker per named source.
type BreakerRegistry struct {
	mu       sync.Mutex
	configs  map[string]BreakerConfig
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerRegistry builds a registry from a source-name to config map.
func NewBreakerRegistry(configs map[string]BreakerConfig) *BreakerRegistry {
	return &BreakerRegistry{
		configs:  configs,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Execute runs fn through source's circuit breaker, opening the circuit
// after FailureThreshold consecutive failures and refusing calls until
// Timeout elapses. Sources with no configured breaker call fn directly.
func (r *BreakerRegistry) Execute(source string, fn func() (interface{}, error)) (interface{}, error) {
	cb := r.breakerFor(source)
	if cb == nil {
		return fn()
	}
	return cb.Execute(fn)
}

func (r *BreakerRegistry) breakerFor(source string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[source]; ok {
		return cb
	}
	cfg, ok := r.configs[source]
	if !ok {
		return nil
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    source,
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	r.breakers[source] = cb
	return cb
}

// DefaultBreakerConfigs gives every ingestor source a conservative breaker:
// five consecutive failures trips it, and it stays open for two minutes
// before allowing a single probe request through.
func DefaultBreakerConfigs() map[string]BreakerConfig {
	cfg := BreakerConfig{FailureThreshold: 5, Timeout: 2 * time.Minute}
	return map[string]BreakerConfig{
		"rss":      cfg,
		"fred":     cfg,
		"calendar": cfg,
		"fedcomms": cfg,
		"prices":   cfg,
	}
}

// ErrCircuitOpen is a sentinel wrapping gobreaker.ErrOpenState for callers
// that want to branch on "source currently tripped" without importing
// gobreaker directly.
var ErrCircuitOpen = fmt.Errorf("providers: circuit open: %w", gobreaker.ErrOpenState)
