package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/signcast/internal/app"
	"github.com/pscheid92/signcast/internal/broadcast"
	"github.com/pscheid92/signcast/internal/platform/config"
	apperrors "github.com/pscheid92/signcast/internal/platform/errors"
)

func TestHandlePublish_Success(t *testing.T) {
	var got string
	srv := newTestServer(t, &mockAppService{
		publishFn: func(_ context.Context, text string) error {
			got = text
			return nil
		},
	})

	for _, path := range []string{"/api/model-output", "/publish"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(srv, http.MethodPost, path, `{"text":"HELLO"}`)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"success":true,"message":"Output received and broadcasted"}`, rec.Body.String())
			assert.Equal(t, "HELLO", got)
		})
	}
}

func TestHandlePublish_MalformedJSON(t *testing.T) {
	called := false
	srv := newTestServer(t, &mockAppService{
		publishFn: func(context.Context, string) error {
			called = true
			return nil
		},
	})

	rec := serve(srv, http.MethodPost, "/publish", `{"text":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid JSON body", resp.Error)
}

func TestHandlePublish_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing text",
			err:        apperrors.ValidationError(`Missing "text" field`),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Missing \"text\" field","type":"validation"}`,
		},
		{
			name:       "shutting down",
			err:        apperrors.UnavailableError("Server is shutting down", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"error":"Server is shutting down","type":"unavailable"}`,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal server error","type":"internal"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{
				publishFn: func(context.Context, string) error { return tt.err },
			})

			rec := serve(srv, http.MethodPost, "/api/model-output", `{"text":""}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

// With the real service and hub an empty body is a missing field, and the
// hub keeps its previous text.
func TestHandlePublish_EmptyBodyLeavesHubUntouched(t *testing.T) {
	hub := broadcast.NewHub(broadcast.Options{})
	t.Cleanup(hub.Stop)
	require.NoError(t, hub.Publish(context.Background(), "before"))

	svc := app.NewService(hub, nil, nil, nil, app.Options{})
	srv := newTestServer(t, svc, withHub(hub))

	rec := serve(srv, http.MethodPost, "/publish", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing \"text\" field","type":"validation"}`, rec.Body.String())
	assert.Equal(t, "before", hub.Latest())
}

func TestHandlePublish_RateLimited(t *testing.T) {
	srv := newTestServer(t, &mockAppService{}, withConfig(func(cfg *config.Config) {
		cfg.PublishRateLimit = 0.01
		cfg.PublishRateBurst = 1
	}))

	first := serve(srv, http.MethodPost, "/publish", `{"text":"a"}`)
	second := serve(srv, http.MethodPost, "/publish", `{"text":"b"}`)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
