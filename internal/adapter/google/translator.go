package google

import (
	"context"
	"errors"
	"fmt"

	translate "cloud.google.com/go/translate/apiv3"
	"cloud.google.com/go/translate/apiv3/translatepb"

	"github.com/pscheid92/signcast/internal/domain"
)

// Translator calls the Cloud Translation v3 TranslateText API.
type Translator struct {
	parent    string
	translate func(ctx context.Context, req *translatepb.TranslateTextRequest) (*translatepb.TranslateTextResponse, error)
	close     func() error
}

var _ domain.Translator = (*Translator)(nil)

func NewTranslator(ctx context.Context, projectID, credentialsFile string) (*Translator, error) {
	client, err := translate.NewTranslationClient(ctx, clientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("create translation client: %w", err)
	}

	return &Translator{
		parent: fmt.Sprintf("projects/%s/locations/global", projectID),
		translate: func(ctx context.Context, req *translatepb.TranslateTextRequest) (*translatepb.TranslateTextResponse, error) {
			return client.TranslateText(ctx, req)
		},
		close: client.Close,
	}, nil
}

func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	resp, err := t.translate(ctx, &translatepb.TranslateTextRequest{
		Parent:             t.parent,
		Contents:           []string{text},
		MimeType:           "text/plain",
		SourceLanguageCode: sourceLang,
		TargetLanguageCode: targetLang,
	})
	if err != nil {
		return "", err
	}

	translations := resp.GetTranslations()
	if len(translations) == 0 {
		return "", errors.New("translation response was empty")
	}
	return translations[0].GetTranslatedText(), nil
}

func (t *Translator) Close() error {
	return t.close()
}
