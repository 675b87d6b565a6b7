package domain

import "context"

// Translator is the external translation service.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Synthesizer is the external speech service. It returns MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, languageCode Language, gender Gender) ([]byte, error)
}

// TranslationCache short-circuits repeated translations of the same text.
// Implementations treat backend failures as misses.
type TranslationCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}
