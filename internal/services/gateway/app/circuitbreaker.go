package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var breakerChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "farmops_gateway_breaker_state_changes_total",
	Help: "Circuit breaker state transitions, by upstream and new state.",
}, []string{"upstream", "to"})

// newBreaker builds a per-upstream circuit breaker: trip after N
// consecutive failures, stay open for OpenFor, clear counts every
// Interval while closed.
func newBreaker(name string, cfg Config, log *zap.SugaredLogger) *gobreaker.CircuitBreaker {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}
	openFor := cfg.BreakerOpenFor
	if openFor <= 0 {
		openFor = 10 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: cfg.BreakerInterval,
		Timeout:  openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerChanges.WithLabelValues(name, to.String()).Inc()
			log.Warnf("breaker %s: %s -> %s", name, from, to)
		},
	})
}
