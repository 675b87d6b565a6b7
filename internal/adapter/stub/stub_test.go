package stub

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/signcast/internal/domain"
)

func TestTranslator_Dictionary(t *testing.T) {
	tr := NewTranslator(TranslatorConfig{Dictionary: DefaultTranslatorConfig().Dictionary})

	out, err := tr.Translate(context.Background(), "hello", "en", "hi")
	require.NoError(t, err)
	assert.Equal(t, "नमस्ते", out)
}

func TestTranslator_FallbackPrefix(t *testing.T) {
	tr := NewTranslator(TranslatorConfig{})

	out, err := tr.Translate(context.Background(), "good morning", "en", "te")
	require.NoError(t, err)
	assert.Equal(t, "[te] good morning", out)
}

func TestTranslator_ProcessingDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tr := NewTranslator(TranslatorConfig{ProcessingDelay: time.Second, Clock: clock})

	done := make(chan string, 1)
	go func() {
		out, _ := tr.Translate(context.Background(), "hello", "en", "kn")
		done <- out
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	select {
	case out := <-done:
		assert.Equal(t, "[kn] hello", out)
	case <-time.After(time.Second):
		t.Fatal("translation did not complete after the delay")
	}
}

func TestTranslator_Cancelled(t *testing.T) {
	tr := NewTranslator(TranslatorConfig{ProcessingDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Translate(ctx, "hello", "en", "hi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthesizer_RoundTrip(t *testing.T) {
	s := NewSynthesizer(SynthesizerConfig{})

	audio, err := s.Synthesize(context.Background(), "नमस्ते", "hi-IN", domain.GenderFemale)
	require.NoError(t, err)

	body, ok := DecodeAudio(audio)
	require.True(t, ok)
	assert.Equal(t, "hi-IN|FEMALE|नमस्ते", body)

	_, ok = DecodeAudio([]byte("nope"))
	assert.False(t, ok)
}
