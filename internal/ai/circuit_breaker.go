package ai

import (
	"jobmatch/internal/config"
	"jobmatch/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards model calls. A nil breaker runs calls directly.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[string]
}

// NewCircuitBreaker returns nil when the breaker is disabled
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = errors.NopLogger()
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		// caller mistakes (bad request, auth) say nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || !isUpstreamUnavailable(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[string](settings)}
}

// Execute runs fn under the breaker
func (b *CircuitBreaker) Execute(fn func() (string, error)) (string, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns breaker state for /stats
func (b *CircuitBreaker) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy is true while the breaker is closed or absent
func (b *CircuitBreaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
