package clients

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewCircuitBreaker guards a dependency probe. Three consecutive failed
// probes open the breaker for 30 seconds, so repeated health checks against a
// dead database fail fast instead of piling up connection attempts.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // single trial probe in half-open state
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}
