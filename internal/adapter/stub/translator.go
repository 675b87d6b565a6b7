// Package stub provides deterministic stand-ins for the external translation
// and speech services, for local development (PROVIDER=stub) and tests.
package stub

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/signcast/internal/domain"
)

// TranslatorConfig configures the stub translator behavior.
type TranslatorConfig struct {
	// ProcessingDelay simulates upstream latency.
	ProcessingDelay time.Duration
	// Dictionary maps [targetLang][sourceText] to a canned translation.
	// Anything not listed comes back as "[lang] text".
	Dictionary map[string]map[string]string
	Clock      clockwork.Clock
}

func DefaultTranslatorConfig() TranslatorConfig {
	return TranslatorConfig{
		ProcessingDelay: 50 * time.Millisecond,
		Dictionary: map[string]map[string]string{
			"hi": {"hello": "नमस्ते", "thank you": "धन्यवाद"},
			"ta": {"hello": "வணக்கம்", "thank you": "நன்றி"},
			"ml": {"hello": "നമസ്കാരം", "thank you": "നന്ദി"},
			"te": {"hello": "నమస్కారం", "thank you": "ధన్యవాదాలు"},
			"kn": {"hello": "ನಮಸ್ಕಾರ", "thank you": "ಧನ್ಯವಾದ"},
		},
	}
}

type Translator struct {
	cfg TranslatorConfig
}

var _ domain.Translator = (*Translator)(nil)

func NewTranslator(cfg TranslatorConfig) *Translator {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Translator{cfg: cfg}
}

func (t *Translator) Translate(ctx context.Context, text, _, targetLang string) (string, error) {
	if err := wait(ctx, t.cfg.Clock, t.cfg.ProcessingDelay); err != nil {
		return "", err
	}

	if dict, ok := t.cfg.Dictionary[targetLang]; ok {
		if translated, ok := dict[text]; ok {
			return translated, nil
		}
	}
	return "[" + targetLang + "] " + text, nil
}

func wait(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
