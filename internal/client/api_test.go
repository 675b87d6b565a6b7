package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/signcast/internal/domain"
	"github.com/pscheid92/signcast/internal/platform/correlation"
	"github.com/pscheid92/signcast/internal/platform/retry"
)

var (
	_ domain.Translator  = (*APIClient)(nil)
	_ domain.Synthesizer = (*APIClient)(nil)
)

func newAPIServer(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewAPIClient(ts.URL+"/", nil)
}

func TestAPIClient_Publish(t *testing.T) {
	var gotPath, gotText, gotCorrelation string
	c := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCorrelation = r.Header.Get(correlation.Header)
		var msg domain.Message
		_ = json.NewDecoder(r.Body).Decode(&msg)
		gotText = msg.Text
		_, _ = w.Write([]byte(`{"success":true,"message":"Output received and broadcasted"}`))
	})

	ctx := correlation.WithID(context.Background(), "abc123")
	require.NoError(t, c.Publish(ctx, "HELLO"))

	assert.Equal(t, PathModelOutput, gotPath)
	assert.Equal(t, "HELLO", gotText)
	assert.Equal(t, "abc123", gotCorrelation)
}

func TestAPIClient_Translate(t *testing.T) {
	c := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, PathTranslate, r.URL.Path)
		assert.Equal(t, "hi", req["targetLanguage"])
		_, _ = w.Write([]byte(`{"translatedText":"नमस्ते"}`))
	})

	got, err := c.Translate(context.Background(), "HELLO", domain.SourceLanguage, "hi")

	require.NoError(t, err)
	assert.Equal(t, "नमस्ते", got)
}

func TestAPIClient_Synthesize(t *testing.T) {
	c := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, PathSynthesize, r.URL.Path)
		assert.Equal(t, "hi-IN", req["languageCode"])
		assert.Equal(t, "FEMALE", req["gender"])
		_, _ = w.Write([]byte(`{"audioContent":"SUQz"}`)) // base64("ID3")
	})

	audio, err := c.Synthesize(context.Background(), "नमस्ते", "hi-IN", domain.GenderFemale)

	require.NoError(t, err)
	assert.Equal(t, []byte("ID3"), audio)
}

func TestAPIClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"structured error", http.StatusInternalServerError, `{"error":"Failed to translate text: quota","type":"upstream"}`, 500, "Failed to translate text: quota"},
		{"plain text", http.StatusBadGateway, "bad gateway\n", 502, "bad gateway"},
		{"validation", http.StatusBadRequest, `{"error":"Missing \"text\" field","type":"validation"}`, 400, `Missing "text" field`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newAPIServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Translate(context.Background(), "x", "en", "hi")

			var statusErr *retry.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.wantStatus, statusErr.StatusCode)
			assert.Equal(t, tt.wantMsg, statusErr.Message)
		})
	}
}

func TestAPIClient_ClassifiesForRetry(t *testing.T) {
	c := newAPIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	err := c.Publish(context.Background(), "")

	assert.Equal(t, retry.Stop, retry.ClassifyHTTP(err))
}
