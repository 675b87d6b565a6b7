package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/signcast/internal/adapter/metrics"
)

const (
	defaultBreakerFailureThreshold = 5
	defaultBreakerDelay            = 30 * time.Second
)

// upstream guards one external service with a circuit breaker and records
// call metrics.
type upstream struct {
	name    string
	breaker circuitbreaker.CircuitBreaker[any]
	metrics *metrics.UpstreamMetrics
	clock   clockwork.Clock
}

func newUpstream(name string, failureThreshold uint, delay time.Duration, m *metrics.UpstreamMetrics, clock clockwork.Clock) *upstream {
	breaker := circuitbreaker.NewBuilder[any]().
		WithFailureThreshold(failureThreshold).
		WithDelay(delay).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", name,
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			m.BreakerState.WithLabelValues(name).Set(stateToFloat(e.NewState))
		}).
		Build()

	m.BreakerState.WithLabelValues(name).Set(stateToFloat(circuitbreaker.ClosedState))
	return &upstream{name: name, breaker: breaker, metrics: m, clock: clock}
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// call runs fn if the breaker admits it. Rejections wrap circuitbreaker.ErrOpen.
func call[T any](ctx context.Context, u *upstream, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if !u.breaker.TryAcquirePermit() {
		u.metrics.Calls.WithLabelValues(u.name, metrics.OutcomeRejected).Inc()
		return zero, fmt.Errorf("%s service unavailable: %w", u.name, circuitbreaker.ErrOpen)
	}

	start := u.clock.Now()
	out, err := fn(ctx)
	u.metrics.Duration.WithLabelValues(u.name).Observe(u.clock.Since(start).Seconds())

	if err != nil {
		u.breaker.RecordError(err)
		u.metrics.Calls.WithLabelValues(u.name, metrics.OutcomeError).Inc()
		return zero, err
	}

	u.breaker.RecordSuccess()
	u.metrics.Calls.WithLabelValues(u.name, metrics.OutcomeSuccess).Inc()
	return out, nil
}
