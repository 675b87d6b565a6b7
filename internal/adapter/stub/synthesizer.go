package stub

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/signcast/internal/domain"
)

// id3Header makes the stub audio look like an MP3 file to players that sniff it.
var id3Header = []byte{'I', 'D', '3', 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

type SynthesizerConfig struct {
	ProcessingDelay time.Duration
	Clock           clockwork.Clock
}

// Synthesizer returns a tiny deterministic payload instead of real speech.
// The payload embeds the request, so tests can tell what was synthesized.
type Synthesizer struct {
	cfg SynthesizerConfig
}

var _ domain.Synthesizer = (*Synthesizer)(nil)

func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Synthesizer{cfg: cfg}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string, languageCode domain.Language, gender domain.Gender) ([]byte, error) {
	if err := wait(ctx, s.cfg.Clock, s.cfg.ProcessingDelay); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("%s|%s|%s", languageCode, gender, text)
	return append(append([]byte(nil), id3Header...), body...), nil
}

// DecodeAudio reverses the stub payload, for assertions in tests.
func DecodeAudio(audio []byte) (string, bool) {
	if len(audio) < len(id3Header) || string(audio[:3]) != "ID3" {
		return "", false
	}
	return string(audio[len(id3Header):]), true
}
