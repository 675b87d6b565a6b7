package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pscheid92/signcast/internal/domain"
	"github.com/pscheid92/signcast/internal/platform/correlation"
	"github.com/pscheid92/signcast/internal/platform/retry"
)

const (
	PathModelOutput = "/api/model-output"
	PathTranslate   = "/api/translate"
	PathSynthesize  = "/api/tts"

	defaultRequestTimeout = 30 * time.Second
	maxErrorBody          = 4 << 10
)

// APIClient calls the server's HTTP endpoints. It satisfies
// domain.Translator and domain.Synthesizer so a pipeline can run against a
// remote server. Non-2xx responses come back as *retry.StatusError carrying
// the server's error message.
type APIClient struct {
	baseURL string
	http    *http.Client
}

// NewAPIClient returns a client for baseURL. A nil httpClient gets a default
// client with a 30s timeout.
func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *APIClient) Publish(ctx context.Context, text string) error {
	return c.post(ctx, PathModelOutput, domain.Message{Text: text}, nil)
}

// Translate asks the server to translate text into targetLang. The server
// always translates from English, so sourceLang is not sent.
func (c *APIClient) Translate(ctx context.Context, text, _, targetLang string) (string, error) {
	req := struct {
		Text           string `json:"text"`
		TargetLanguage string `json:"targetLanguage"`
	}{text, targetLang}

	var resp struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := c.post(ctx, PathTranslate, req, &resp); err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}

func (c *APIClient) Synthesize(ctx context.Context, text string, languageCode domain.Language, gender domain.Gender) ([]byte, error) {
	req := struct {
		Text         string `json:"text"`
		LanguageCode string `json:"languageCode"`
		Gender       string `json:"gender,omitempty"`
	}{text, string(languageCode), string(gender)}

	var resp struct {
		AudioContent []byte `json:"audioContent"`
	}
	if err := c.post(ctx, PathSynthesize, req, &resp); err != nil {
		return nil, err
	}
	return resp.AudioContent, nil
}

func (c *APIClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	correlation.Inject(ctx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// statusError extracts the "error" field of a JSON error body, falling back
// to the raw body text.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &retry.StatusError{StatusCode: resp.StatusCode, Message: msg}
}
