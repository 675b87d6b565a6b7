package pipeline

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/signcast/internal/adapter/httpserver"
	"github.com/pscheid92/signcast/internal/adapter/metrics"
	rediscache "github.com/pscheid92/signcast/internal/adapter/redis"
	"github.com/pscheid92/signcast/internal/adapter/stub"
	"github.com/pscheid92/signcast/internal/app"
	"github.com/pscheid92/signcast/internal/broadcast"
	"github.com/pscheid92/signcast/internal/client"
	"github.com/pscheid92/signcast/internal/domain"
	"github.com/pscheid92/signcast/internal/platform/config"
)

// upstreamRecorder sits between the server and the stub services and
// records what the server asked them for.
type upstreamRecorder struct {
	translator  domain.Translator
	synthesizer domain.Synthesizer

	mu        sync.Mutex
	targets   []string
	languages []domain.Language
}

func (r *upstreamRecorder) Translate(ctx context.Context, text, source, target string) (string, error) {
	r.mu.Lock()
	r.targets = append(r.targets, target)
	r.mu.Unlock()
	return r.translator.Translate(ctx, text, source, target)
}

func (r *upstreamRecorder) Synthesize(ctx context.Context, text string, lang domain.Language, gender domain.Gender) ([]byte, error) {
	r.mu.Lock()
	r.languages = append(r.languages, lang)
	r.mu.Unlock()
	return r.synthesizer.Synthesize(ctx, text, lang, gender)
}

func TestEndToEnd_PublishToSpeech(t *testing.T) {
	hub := broadcast.NewHub(broadcast.Options{})
	upstream := &upstreamRecorder{
		translator:  stub.NewTranslator(stub.DefaultTranslatorConfig()),
		synthesizer: stub.NewSynthesizer(stub.SynthesizerConfig{}),
	}
	reg := prometheus.NewRegistry()
	cache := rediscache.NewTranslationCache(nil, time.Minute, metrics.NewCacheMetrics(reg))
	svc := app.NewService(hub, upstream, upstream, cache, app.Options{Metrics: metrics.NewUpstreamMetrics(reg)})

	cfg := &config.Config{
		AppEnv:             "test",
		KeepAliveInterval:  30 * time.Second,
		UpstreamTimeout:    5 * time.Second,
		PublishRateLimit:   100,
		PublishRateBurst:   100,
		CORSAllowedOrigins: "*",
	}
	srv := httpserver.NewServer(cfg, svc, hub, reg, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(hub.Stop)

	api := client.NewAPIClient(ts.URL, nil)
	player := &recordingPlayer{}
	p := New(api, api, player, Options{Language: "hi-IN", DebounceDelay: 10 * time.Millisecond})
	t.Cleanup(p.Close)

	connected := make(chan struct{})
	var once sync.Once
	listener := client.NewListener(ts.URL, p, client.ListenerOptions{
		OnConnect: func() { once.Do(func() { close(connected) }) },
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = listener.Run(ctx) }()

	select {
	case <-connected:
	case <-time.After(waitFor):
		t.Fatal("listener did not connect")
	}

	require.NoError(t, api.Publish(ctx, "hello"))

	require.Eventually(t, func() bool { return len(player.Played()) == 1 }, waitFor, tick)

	decoded, ok := stub.DecodeAudio(player.Played()[0])
	require.True(t, ok)
	assert.Equal(t, "hi-IN|FEMALE|नमस्ते", decoded)

	upstream.mu.Lock()
	defer upstream.mu.Unlock()
	assert.Equal(t, []string{"hi"}, upstream.targets)
	assert.Equal(t, []domain.Language{"hi-IN"}, upstream.languages)

	s := p.Snapshot()
	assert.Equal(t, "hello", s.InputText)
	assert.Equal(t, "नमस्ते", s.TranslatedText)
}
