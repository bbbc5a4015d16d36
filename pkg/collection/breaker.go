package collection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the breaker for a collection rejects a request without sending it.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// errServerStatus marks a 5xx answer so that it counts against the breaker.
var errServerStatus = errors.New("server error status")

// BreakerConfig holds the configuration for a collection circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures required to trip the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before going half-open.
	Timeout time.Duration
	// HalfOpenMaxRequests is the number of probe requests allowed while half-open.
	HalfOpenMaxRequests uint32
}

// DefaultBreakerConfig trips after 5 consecutive failures and probes again after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:         5,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 1,
	}
}

// BreakerMetrics counts requests seen by a breaker.
type BreakerMetrics struct {
	TotalRequests       uint64
	TotalFailures       uint64
	Rejected            uint64
	ConsecutiveFailures uint32
}

// CircuitBreaker wraps gobreaker for one collection path. Transport errors and 5xx
// answers count as failures, 4xx answers do not.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	mu      sync.Mutex
	metrics BreakerMetrics
}

// NewCircuitBreaker creates a breaker named after the collection it protects.
func NewCircuitBreaker(name string, cfg BreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultBreakerConfig().MaxFailures
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultBreakerConfig().Timeout
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("[Collection] circuit breaker state changed", "collection", name, "from", from.String(), "to", to.String())
		},
	}
	return &CircuitBreaker{breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker. A response produced by fn is always returned,
// even when it counted as a failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() (*Response, error)) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var resp *Response
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		r, err := fn()
		resp = r
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= 500 {
			return r, errServerStatus
		}
		return r, nil
	})

	cb.mu.Lock()
	cb.metrics.TotalRequests++
	if err != nil {
		cb.metrics.TotalFailures++
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		cb.metrics.Rejected++
	}
	cb.mu.Unlock()

	switch {
	case err == nil, errors.Is(err, errServerStatus):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, ErrCircuitOpen
	default:
		return nil, err
	}
}

// State returns "closed", "open" or "half-open".
func (cb *CircuitBreaker) State() string {
	return cb.breaker.State().String()
}

// Metrics returns a snapshot of the breaker counters.
func (cb *CircuitBreaker) Metrics() BreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	m := cb.metrics
	m.ConsecutiveFailures = cb.breaker.Counts().ConsecutiveFailures
	return m
}
