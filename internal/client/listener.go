package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/signcast/internal/domain"
)

const (
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 30 * time.Second

	maxEventSize = 1 << 20
)

// Receiver consumes texts delivered by the stream.
type Receiver interface {
	ReceiveText(text string)
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(text string)

func (f ReceiverFunc) ReceiveText(text string) { f(text) }

type ListenerOptions struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// HTTPClient must not set a Timeout; the stream is long-lived.
	HTTPClient *http.Client
	Clock      clockwork.Clock
	// OnConnect is called after every successful (re)connection.
	OnConnect func()
}

// Listener subscribes to the server's event stream and hands every text to
// a Receiver. It reconnects with capped exponential backoff until its
// context ends; each reconnection starts with the server's replay of the
// latest text.
type Listener struct {
	url      string
	receiver Receiver
	opts     ListenerOptions
}

func NewListener(baseURL string, receiver Receiver, opts ListenerOptions) *Listener {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Listener{
		url:      strings.TrimRight(baseURL, "/") + PathModelOutput,
		receiver: receiver,
		opts:     opts,
	}
}

// Run listens until ctx is cancelled. It only returns ctx's end as nil;
// every other failure leads to a reconnect.
func (l *Listener) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.opts.InitialBackoff
	b.MaxInterval = l.opts.MaxBackoff

	for {
		connected, err := l.stream(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			b.Reset()
		}

		wait := b.NextBackOff()
		slog.WarnContext(ctx, "Stream disconnected, reconnecting", "url", l.url, "backoff", wait, "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-l.opts.Clock.After(wait):
		}
	}
}

// stream holds one connection open and reports whether it was established.
func (l *Listener) stream(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := l.opts.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, statusError(resp)
	}

	slog.InfoContext(ctx, "Stream connected", "url", l.url)
	if l.opts.OnConnect != nil {
		l.opts.OnConnect()
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), maxEventSize)

	var data [][]byte
	for scanner.Scan() {
		line := scanner.Bytes()

		switch {
		case len(line) == 0:
			if len(data) > 0 {
				l.dispatch(ctx, bytes.Join(data, []byte("\n")))
				data = data[:0]
			}
		case line[0] == ':':
			// comment, used for keep-alives
		default:
			field, value, _ := bytes.Cut(line, []byte(":"))
			if string(field) == "data" {
				value = bytes.TrimPrefix(value, []byte(" "))
				data = append(data, append([]byte(nil), value...))
			}
		}
	}

	err = scanner.Err()
	if err == nil {
		err = errors.New("stream closed by server")
	}
	return true, err
}

func (l *Listener) dispatch(ctx context.Context, payload []byte) {
	var msg domain.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		slog.WarnContext(ctx, "Skipping malformed event", "error", err)
		return
	}
	if msg.Text == "" {
		return
	}
	l.receiver.ReceiveText(msg.Text)
}

