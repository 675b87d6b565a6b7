package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pscheid92/signcast/internal/platform/logging"
)

var (
	errUnsubscribed = errors.New("unsubscribed")
	errClosed       = errors.New("subscriber closed")
)

// EventWriter is the transport behind a subscriber channel. Implementations
// bound every write with a deadline so a dead peer surfaces as an error.
type EventWriter interface {
	WriteMessage(data []byte) error
	WriteKeepAlive() error
}

// Subscriber is one live channel registered with a Hub.
type Subscriber struct {
	ID uuid.UUID

	hub    *Hub
	writer EventWriter

	mu    sync.Mutex
	queue [][]byte
	wake  chan struct{}

	done     chan struct{}
	stopOnce sync.Once
	reason   error
}

// offer appends data to the queue and wakes Run. It never blocks and never
// drops; only a closed subscriber refuses.
func (s *Subscriber) offer(data []byte) error {
	select {
	case <-s.done:
		return errClosed
	default:
	}

	s.mu.Lock()
	s.queue = append(s.queue, data)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// drain takes everything queued so far, oldest first.
func (s *Subscriber) drain() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.queue
	s.queue = nil
	return batch
}

// pending reports the number of queued, unwritten messages.
func (s *Subscriber) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Subscriber) stop(reason error) {
	s.stopOnce.Do(func() {
		s.reason = reason
		close(s.done)
	})
}

// Done is closed once the subscriber has been told to stop.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Run writes queued messages and periodic keep-alives until ctx is cancelled,
// a write fails, or the hub ends the subscription. It always leaves the hub
// before returning. A cancelled ctx is a normal disconnect and returns nil.
func (s *Subscriber) Run(ctx context.Context) error {
	ticker := s.hub.clock.NewTicker(s.hub.keepAlive)
	defer ticker.Stop()
	defer s.hub.Unsubscribe(s)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-s.done:
			if errors.Is(s.reason, errUnsubscribed) {
				return nil
			}
			return s.reason

		case <-s.wake:
			for _, data := range s.drain() {
				if err := s.writer.WriteMessage(data); err != nil {
					s.hub.metrics.WriteErrors.Inc()
					logging.WithSubscriber(s.ID.String()).Debug("Subscriber write failed", "error", err)
					return fmt.Errorf("write message: %w", err)
				}
				s.hub.metrics.Deliveries.Inc()
			}

		case <-ticker.Chan():
			if err := s.writer.WriteKeepAlive(); err != nil {
				s.hub.metrics.WriteErrors.Inc()
				logging.WithSubscriber(s.ID.String()).Debug("Subscriber keep-alive failed", "error", err)
				return fmt.Errorf("write keep-alive: %w", err)
			}
			s.hub.metrics.KeepAlives.Inc()
		}
	}
}
