package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/signcast/internal/adapter/metrics"
	"github.com/pscheid92/signcast/internal/domain"
)

const DefaultKeepAliveInterval = 30 * time.Second

type Options struct {
	KeepAliveInterval time.Duration
	// MaxSubscribers caps concurrent subscribers; 0 means unlimited.
	MaxSubscribers int
	Clock          clockwork.Clock
	Metrics        *metrics.StreamMetrics
}

// Hub fans published text out to every live subscriber.
type Hub struct {
	mu            sync.Mutex
	latest        string
	latestPayload []byte
	subscribers   map[*Subscriber]struct{}
	stopped       bool

	clock          clockwork.Clock
	keepAlive      time.Duration
	maxSubscribers int
	metrics        *metrics.StreamMetrics
}

func NewHub(opts Options) *Hub {
	if opts.KeepAliveInterval <= 0 {
		opts.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewStreamMetrics(prometheus.NewRegistry())
	}

	return &Hub{
		subscribers:    make(map[*Subscriber]struct{}),
		clock:          opts.Clock,
		keepAlive:      opts.KeepAliveInterval,
		maxSubscribers: opts.MaxSubscribers,
		metrics:        opts.Metrics,
	}
}

// Publish records text as the latest value and queues it for every
// subscriber. It fails only on empty text. Subscribers that have already
// closed are evicted along the way. After Stop the text is still recorded,
// there is just nobody left to deliver it to.
func (h *Hub) Publish(ctx context.Context, text string) error {
	if text == "" {
		return domain.ErrEmptyText
	}

	payload, err := json.Marshal(domain.Message{Text: text})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = text
	h.latestPayload = payload
	h.metrics.MessagesPublished.Inc()

	for s := range h.subscribers {
		if err := s.offer(payload); err == nil {
			continue
		}
		delete(h.subscribers, s)
		h.metrics.ActiveSubscribers.Dec()
		h.metrics.Evictions.WithLabelValues(metrics.EvictClosed).Inc()
		slog.DebugContext(ctx, "Evicted closed subscriber", "subscriber_id", s.ID.String())
	}

	slog.DebugContext(ctx, "Text published", "subscribers", len(h.subscribers))
	return nil
}

// Subscribe registers a new channel for w. If a text has been published the
// channel starts with a replay of it, queued before the channel joins the set
// so it precedes every later publish.
func (h *Hub) Subscribe(w EventWriter) (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil, domain.ErrHubStopped
	}
	if h.maxSubscribers > 0 && len(h.subscribers) >= h.maxSubscribers {
		slog.Warn("Rejecting subscriber: max subscribers reached", "max_subscribers", h.maxSubscribers)
		return nil, domain.ErrTooManySubscribers
	}

	s := &Subscriber{
		ID:     uuid.New(),
		hub:    h,
		writer: w,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if h.latestPayload != nil {
		_ = s.offer(h.latestPayload)
	}

	h.subscribers[s] = struct{}{}
	h.metrics.ActiveSubscribers.Inc()

	slog.Debug("Subscriber registered", "subscriber_id", s.ID.String(), "total_subscribers", len(h.subscribers))
	return s, nil
}

// Unsubscribe removes s from the hub. Safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		h.metrics.ActiveSubscribers.Dec()
		slog.Debug("Subscriber unregistered", "subscriber_id", s.ID.String(), "remaining_subscribers", len(h.subscribers))
	}
	h.mu.Unlock()

	s.stop(errUnsubscribed)
}

// Latest returns the most recently published text, or "" if none.
func (h *Hub) Latest() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Stopped reports whether Stop has been called.
func (h *Hub) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

// Stop ends every subscription and rejects further subscribes.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	h.stopped = true

	for s := range h.subscribers {
		delete(h.subscribers, s)
		h.metrics.Evictions.WithLabelValues(metrics.EvictHubStopped).Inc()
		s.stop(domain.ErrHubStopped)
	}
	h.metrics.ActiveSubscribers.Set(0)

	slog.Info("Hub stopped")
}
