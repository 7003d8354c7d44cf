// Package mailer delivers sign-in links. The log backend is for development;
// http_api hands messages to the companion mail service.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	retry "github.com/appleboy/go-httpretry"
	"github.com/rs/zerolog/log"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
)

var (
	ErrMailAPIConnection = errors.New("failed to connect to mail API")
	ErrMailAPIRejected   = errors.New("mail API rejected message")
)

var (
	_ core.Mailer = (*LogMailer)(nil)
	_ core.Mailer = (*HTTPAPIMailer)(nil)
)

// LogMailer writes the link to the log instead of sending it.
type LogMailer struct{}

func NewLogMailer() *LogMailer { return &LogMailer{} }

func (m *LogMailer) SendMagicLink(_ context.Context, msg core.MagicLinkMessage) error {
	log.Info().
		Str("to", msg.To).
		Str("username", msg.Username).
		Str("link", msg.Link).
		Time("expires_at", msg.ExpiresAt).
		Msg("magic link (log mailer)")
	return nil
}

func (m *LogMailer) Name() string { return "log" }

// HTTPAPIMailer posts messages to the companion mail service.
type HTTPAPIMailer struct {
	url         string
	retryClient *retry.Client
}

func NewHTTPAPIMailer(url string, retryClient *retry.Client) *HTTPAPIMailer {
	return &HTTPAPIMailer{url: url, retryClient: retryClient}
}

type mailRequest struct {
	Template  string `json:"template"`
	To        string `json:"to"`
	Username  string `json:"username"`
	Link      string `json:"link"`
	ExpiresAt int64  `json:"expires_at"`
	Device    string `json:"device,omitempty"`
	IP        string `json:"ip,omitempty"`
}

type mailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (m *HTTPAPIMailer) SendMagicLink(ctx context.Context, msg core.MagicLinkMessage) error {
	payload, err := json.Marshal(mailRequest{
		Template:  "magic_link",
		To:        msg.To,
		Username:  msg.Username,
		Link:      msg.Link,
		ExpiresAt: msg.ExpiresAt.UnixMilli(),
		Device:    msg.Device,
		IP:        msg.IP,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := m.retryClient.Post(
		ctx,
		m.url,
		retry.WithBody("application/json", bytes.NewBuffer(payload)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMailAPIConnection, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrMailAPIRejected, resp.StatusCode)
	}

	// An empty 2xx body counts as accepted.
	var out mailResponse
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &out) == nil && !out.Success {
		return fmt.Errorf("%w: %s", ErrMailAPIRejected, out.Message)
	}
	return nil
}

func (m *HTTPAPIMailer) Name() string { return "http_api" }
