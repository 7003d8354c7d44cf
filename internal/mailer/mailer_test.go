package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/client"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMailer(t *testing.T, url string) *HTTPAPIMailer {
	t.Helper()
	rc, err := client.NewRetryClient(client.Options{
		AuthMode: "none",
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)
	return NewHTTPAPIMailer(url, rc)
}

func TestHTTPAPIMailer_SendMagicLink(t *testing.T) {
	var got mailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(mailResponse{Success: true})
	}))
	defer srv.Close()

	expires := time.Now().Add(15 * time.Minute)
	err := newMailer(t, srv.URL).SendMagicLink(context.Background(), core.MagicLinkMessage{
		To:        "driver@example.com",
		Username:  "driver",
		Link:      "https://fleet.example.com/validate-magic-link?token=abc",
		ExpiresAt: expires,
	})
	require.NoError(t, err)
	assert.Equal(t, "magic_link", got.Template)
	assert.Equal(t, "driver@example.com", got.To)
	assert.Equal(t, expires.UnixMilli(), got.ExpiresAt)
}

func TestHTTPAPIMailer_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(mailResponse{Success: false, Message: "mailbox full"})
	}))
	defer srv.Close()

	err := newMailer(t, srv.URL).SendMagicLink(context.Background(), core.MagicLinkMessage{To: "x@example.com"})
	assert.ErrorIs(t, err, ErrMailAPIRejected)
	assert.Contains(t, err.Error(), "mailbox full")
}

func TestHTTPAPIMailer_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newMailer(t, srv.URL).SendMagicLink(context.Background(), core.MagicLinkMessage{To: "x@example.com"})
	assert.ErrorIs(t, err, ErrMailAPIRejected)
}

func TestLogMailer(t *testing.T) {
	m := NewLogMailer()
	assert.Equal(t, "log", m.Name())
	assert.NoError(t, m.SendMagicLink(context.Background(), core.MagicLinkMessage{To: "x@example.com"}))
}
