package google

import (
	"context"
	"errors"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/pscheid92/signcast/internal/domain"
)

// Synthesizer calls the Cloud Text-to-Speech SynthesizeSpeech API and
// returns MP3 audio.
type Synthesizer struct {
	synthesize func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)
	close      func() error
}

var _ domain.Synthesizer = (*Synthesizer)(nil)

func NewSynthesizer(ctx context.Context, credentialsFile string) (*Synthesizer, error) {
	client, err := texttospeech.NewClient(ctx, clientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("create text-to-speech client: %w", err)
	}

	return &Synthesizer{
		synthesize: func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
			return client.SynthesizeSpeech(ctx, req)
		},
		close: client.Close,
	}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string, languageCode domain.Language, gender domain.Gender) ([]byte, error) {
	resp, err := s.synthesize(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: string(languageCode),
			SsmlGender:   ssmlGender(gender),
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	})
	if err != nil {
		return nil, err
	}

	if len(resp.GetAudioContent()) == 0 {
		return nil, errors.New("speech response had no audio")
	}
	return resp.GetAudioContent(), nil
}

func (s *Synthesizer) Close() error {
	return s.close()
}

func ssmlGender(g domain.Gender) texttospeechpb.SsmlVoiceGender {
	switch g {
	case domain.GenderMale:
		return texttospeechpb.SsmlVoiceGender_MALE
	case domain.GenderFemale:
		return texttospeechpb.SsmlVoiceGender_FEMALE
	default:
		return texttospeechpb.SsmlVoiceGender_NEUTRAL
	}
}
