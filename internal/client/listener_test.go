package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listenerTestTimeout = 5 * time.Second

type textRecorder struct {
	texts chan string
}

func newTextRecorder() *textRecorder {
	return &textRecorder{texts: make(chan string, 16)}
}

func (r *textRecorder) ReceiveText(text string) { r.texts <- text }

func (r *textRecorder) next(t *testing.T) string {
	t.Helper()
	select {
	case text := <-r.texts:
		return text
	case <-time.After(listenerTestTimeout):
		t.Fatal("timed out waiting for text")
		return ""
	}
}

func sseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	w.(http.Flusher).Flush()
}

// runListener starts l and returns a channel yielding Run's result.
func runListener(t *testing.T, l *Listener) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return cancel, done
}

func TestListener_DeliversTexts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathModelOutput, r.URL.Path)
		sseHeaders(w)
		_, _ = fmt.Fprint(w, "data: {\"text\":\"HELLO\"}\n\n")
		_, _ = fmt.Fprint(w, ": keepalive\n\n")
		_, _ = fmt.Fprint(w, "data: not json\n\n")
		_, _ = fmt.Fprint(w, "data: {\"text\":\"\"}\n\n")
		_, _ = fmt.Fprint(w, "event: message\nid: 7\ndata: {\"text\":\"WORLD\"}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(ts.Close)

	rec := newTextRecorder()
	l := NewListener(ts.URL, rec, ListenerOptions{})
	cancel, done := runListener(t, l)

	assert.Equal(t, "HELLO", rec.next(t))
	assert.Equal(t, "WORLD", rec.next(t))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(listenerTestTimeout):
		t.Fatal("listener did not stop")
	}
}

func TestListener_MultiLineData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sseHeaders(w)
		_, _ = fmt.Fprint(w, "data: {\"text\":\ndata: \"SPLIT\"}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(ts.Close)

	rec := newTextRecorder()
	_, _ = runListener(t, NewListener(ts.URL, rec, ListenerOptions{}))

	assert.Equal(t, "SPLIT", rec.next(t))
}

func TestListener_ReconnectsAfterServerClose(t *testing.T) {
	var connections atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := connections.Add(1)
		sseHeaders(w)
		_, _ = fmt.Fprintf(w, "data: {\"text\":\"conn-%d\"}\n\n", n)
		w.(http.Flusher).Flush()
		if n > 1 {
			<-r.Context().Done()
		}
	}))
	t.Cleanup(ts.Close)

	clock := clockwork.NewFakeClock()
	var connects atomic.Int32
	rec := newTextRecorder()
	l := NewListener(ts.URL, rec, ListenerOptions{
		Clock:     clock,
		OnConnect: func() { connects.Add(1) },
	})
	_, _ = runListener(t, l)

	assert.Equal(t, "conn-1", rec.next(t))

	ctx, cancel := context.WithTimeout(context.Background(), listenerTestTimeout)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	assert.Equal(t, "conn-2", rec.next(t))
	assert.Equal(t, int32(2), connects.Load())
}

func TestListener_BacksOffWhileServerUnavailable(t *testing.T) {
	var mu sync.Mutex
	failures := 2
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fail := failures > 0
		failures--
		mu.Unlock()

		if fail {
			http.Error(w, `{"error":"Server is shutting down"}`, http.StatusServiceUnavailable)
			return
		}
		sseHeaders(w)
		_, _ = fmt.Fprint(w, "data: {\"text\":\"BACK\"}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(ts.Close)

	clock := clockwork.NewFakeClock()
	rec := newTextRecorder()
	_, _ = runListener(t, NewListener(ts.URL, rec, ListenerOptions{Clock: clock}))

	ctx, cancel := context.WithTimeout(context.Background(), listenerTestTimeout)
	defer cancel()
	for range 2 {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(DefaultMaxBackoff)
	}

	assert.Equal(t, "BACK", rec.next(t))
}

func TestListener_StopsWhileWaiting(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	clock := clockwork.NewFakeClock()
	cancel, done := runListener(t, NewListener(ts.URL, newTextRecorder(), ListenerOptions{Clock: clock}))

	ctx, cancelWait := context.WithTimeout(context.Background(), listenerTestTimeout)
	defer cancelWait()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(listenerTestTimeout):
		t.Fatal("listener did not stop")
	}
}
