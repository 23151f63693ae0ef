// Package clients wraps the external APIs the bot depends on (OpenAI,
// Telegram) behind circuit breakers and narrow interfaces.
package clients

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewCircuitBreaker builds the breaker every outbound client goes through:
// trip after 3 consecutive failures, allow a single probe call after 30
// seconds open.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}
