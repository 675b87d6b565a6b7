// Package retry runs short-lived operations again when they fail transiently.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

type Action int

const (
	Stop     Action = iota // permanent failure, give up now
	Retry                  // transient failure, normal backoff
	Throttle               // server asked us to slow down, longer backoff
)

type Policy struct {
	MaxAttempts      int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration // 0 means uncapped
	ThrottledBackoff time.Duration
	OnRetry          func(attempt int, err error, wait time.Duration)
	Clock            clockwork.Clock
}

type Classify func(err error) Action

// Do calls op until it succeeds, classify says stop, attempts run out or ctx ends.
func Do[T any](ctx context.Context, p Policy, classify Classify, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		return zero, errors.New("retry: MaxAttempts must be at least 1")
	}

	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	wait := p.InitialBackoff
	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}

		action := classify(err)
		if action == Stop {
			return zero, &PermanentError{Err: err}
		}
		if attempt == p.MaxAttempts {
			return zero, fmt.Errorf("gave up after %d attempts: %w", p.MaxAttempts, err)
		}

		next := wait
		if action == Throttle && p.ThrottledBackoff > next {
			next = p.ThrottledBackoff
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, next)
		}

		select {
		case <-clock.After(next):
		case <-ctx.Done():
			return zero, fmt.Errorf("cancelled while waiting to retry: %w", ctx.Err())
		}

		wait *= 2
		if p.MaxBackoff > 0 && wait > p.MaxBackoff {
			wait = p.MaxBackoff
		}
	}
}

// DoVoid is Do for operations without a result.
func DoVoid(ctx context.Context, p Policy, classify Classify, op func(context.Context) error) error {
	_, err := Do(ctx, p, classify, func(ctx context.Context) (struct{}, error) { return struct{}{}, op(ctx) })
	return err
}

type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// StatusError carries the HTTP status of a failed response so it can be classified.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// ClassifyHTTP treats 429 as throttling, other 4xx as permanent and
// everything else (5xx, network errors) as transient.
func ClassifyHTTP(err error) Action {
	if errors.Is(err, context.Canceled) {
		return Stop
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return Retry
	}

	switch {
	case statusErr.StatusCode == http.StatusTooManyRequests:
		return Throttle
	case statusErr.StatusCode >= 400 && statusErr.StatusCode < 500:
		return Stop
	default:
		return Retry
	}
}
