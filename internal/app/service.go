package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/pscheid92/signcast/internal/adapter/metrics"
	"github.com/pscheid92/signcast/internal/domain"
	apperrors "github.com/pscheid92/signcast/internal/platform/errors"
)

const defaultUpstreamTimeout = 15 * time.Second

// Publisher is the part of the broadcast hub the service needs.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

type Options struct {
	// UpstreamTimeout bounds every call to the translation and speech services.
	UpstreamTimeout         time.Duration
	BreakerFailureThreshold uint
	BreakerDelay            time.Duration
	Clock                   clockwork.Clock
	Metrics                 *metrics.UpstreamMetrics
}

// Service is the application layer. It is the only component that touches
// the hub and the upstream services together.
type Service struct {
	hub         Publisher
	translator  domain.Translator
	synthesizer domain.Synthesizer
	cache       domain.TranslationCache

	translateGroup singleflight.Group
	translate      *upstream
	synthesize     *upstream
	metrics        *metrics.UpstreamMetrics
	timeout        time.Duration
}

func NewService(hub Publisher, translator domain.Translator, synthesizer domain.Synthesizer, cache domain.TranslationCache, opts Options) *Service {
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = defaultUpstreamTimeout
	}
	if opts.BreakerFailureThreshold == 0 {
		opts.BreakerFailureThreshold = defaultBreakerFailureThreshold
	}
	if opts.BreakerDelay <= 0 {
		opts.BreakerDelay = defaultBreakerDelay
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewUpstreamMetrics(prometheus.NewRegistry())
	}

	return &Service{
		hub:         hub,
		translator:  translator,
		synthesizer: synthesizer,
		cache:       cache,
		translate:   newUpstream(metrics.ServiceTranslate, opts.BreakerFailureThreshold, opts.BreakerDelay, opts.Metrics, opts.Clock),
		synthesize:  newUpstream(metrics.ServiceSynthesize, opts.BreakerFailureThreshold, opts.BreakerDelay, opts.Metrics, opts.Clock),
		metrics:     opts.Metrics,
		timeout:     opts.UpstreamTimeout,
	}
}

// Publish hands text to the hub for fan-out.
func (s *Service) Publish(ctx context.Context, text string) error {
	if text == "" {
		return apperrors.ValidationError(`Missing "text" field`)
	}

	err := s.hub.Publish(ctx, text)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrEmptyText):
		return apperrors.ValidationError(`Missing "text" field`)
	default:
		return apperrors.InternalError("Failed to broadcast output", err)
	}
}

// Translate translates text from English into targetLanguage. Identical
// concurrent requests share one upstream call and successes are cached.
func (s *Service) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if text == "" || targetLanguage == "" {
		return "", apperrors.ValidationError(`Missing "text" or "targetLanguage" field`)
	}

	key := translationKey(targetLanguage, text)
	if cached, ok := s.cache.Get(ctx, key); ok {
		s.metrics.Calls.WithLabelValues(metrics.ServiceTranslate, metrics.OutcomeCached).Inc()
		return cached, nil
	}

	v, err, shared := s.translateGroup.Do(key, func() (any, error) {
		// One caller going away must not fail the others waiting on this call.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		translated, err := call(callCtx, s.translate, func(ctx context.Context) (string, error) {
			return s.translator.Translate(ctx, text, domain.SourceLanguage, targetLanguage)
		})
		if err != nil {
			return "", err
		}

		s.cache.Set(callCtx, key, translated)
		return translated, nil
	})
	if err != nil {
		slog.WarnContext(ctx, "Translation failed", "target_language", targetLanguage, "shared", shared, "error", err)
		return "", apperrors.UpstreamError("Failed to translate text", err)
	}

	return v.(string), nil
}

// Synthesize renders text as MP3 speech in languageCode. Unknown genders
// fall back to NEUTRAL.
func (s *Service) Synthesize(ctx context.Context, text, languageCode, gender string) ([]byte, error) {
	if text == "" || languageCode == "" {
		return nil, apperrors.ValidationError(`Missing "text" or "languageCode" field`)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	voice := domain.NormalizeGender(gender)
	audio, err := call(callCtx, s.synthesize, func(ctx context.Context) ([]byte, error) {
		return s.synthesizer.Synthesize(ctx, text, domain.Language(languageCode), voice)
	})
	if err != nil {
		slog.WarnContext(ctx, "Speech synthesis failed", "language_code", languageCode, "gender", string(voice), "error", err)
		return nil, apperrors.UpstreamError("Failed to synthesize speech", err)
	}

	return audio, nil
}

func translationKey(targetLanguage, text string) string {
	sum := sha256.Sum256([]byte(text))
	return targetLanguage + ":" + hex.EncodeToString(sum[:])
}
