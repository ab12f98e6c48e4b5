package email

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"ms-storefront/internal/config"
	"ms-storefront/internal/logger"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) *ResendSender {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := resend.NewClient("test-api-key")
	baseURL, err := url.Parse(srv.URL)
	require.NoError(t, err)
	client.BaseURL = baseURL

	return &ResendSender{Client: client, From: "news@example.com", Logger: logger.NewLoggerWithWriter(&bytes.Buffer{})}
}

func TestSendWelcome(t *testing.T) {
	var got resend.SendEmailRequest
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "email-1"})
	})

	require.NoError(t, sender.SendWelcome(context.Background(), "fan@example.com"))
	assert.Equal(t, "news@example.com", got.From)
	assert.Equal(t, []string{"fan@example.com"}, got.To)
	assert.Contains(t, got.Html, "fan@example.com")
}

func TestSendWelcome_APIError(t *testing.T) {
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]interface{}{"statusCode": 422, "name": "validation_error", "message": "bad from"})
	})

	err := sender.SendWelcome(context.Background(), "fan@example.com")
	assert.Error(t, err)
}

func TestNewSender_Disabled(t *testing.T) {
	log := logger.NewLoggerWithWriter(&bytes.Buffer{})
	assert.IsType(t, NopSender{}, NewSender(config.EmailConfig{Enabled: false, ResendAPIKey: "k"}, log))
	assert.IsType(t, NopSender{}, NewSender(config.EmailConfig{Enabled: true}, log))
	assert.IsType(t, &ResendSender{}, NewSender(config.EmailConfig{Enabled: true, ResendAPIKey: "k"}, log))
}
