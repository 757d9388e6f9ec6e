package jobs

import (
	"fmt"

	"github.com/sony/gobreaker/v2"

	"jobgate/internal/config"
	"jobgate/internal/errors"
	"jobgate/internal/types"
)

// SearchCircuitBreaker wraps search provider calls with circuit breaker
// protection. An open breaker skips the upstream call entirely; the Gateway
// treats that like any other provider failure.
type SearchCircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[types.SearchResult]
}

// NewSearchCircuitBreaker creates a breaker for the named provider.
// Returns nil when disabled; a nil breaker executes calls directly.
func NewSearchCircuitBreaker(providerName string, cfg *config.CircuitBreakerConfig, logger *errors.Logger) *SearchCircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("Search-%s", providerName),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"provider", providerName,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &SearchCircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[types.SearchResult](settings),
	}
}

// Execute runs fn under breaker protection.
func (cb *SearchCircuitBreaker) Execute(fn func() (types.SearchResult, error)) (types.SearchResult, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	return cb.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (cb *SearchCircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *SearchCircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}
