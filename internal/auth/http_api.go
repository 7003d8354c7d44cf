package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	retry "github.com/appleboy/go-httpretry"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
)

// maxVerdictBytes bounds how much of the companion response is read.
const maxVerdictBytes = 64 << 10

// HTTPAPIAuthProvider checks passwords against the companion identity service.
// The service owns the password; this side only mirrors the account locally.
// Request signing is done by the retry client's transport.
type HTTPAPIAuthProvider struct {
	endpoint string
	client   *retry.Client
}

func NewHTTPAPIAuthProvider(cfg *config.Config, retryClient *retry.Client) *HTTPAPIAuthProvider {
	return &HTTPAPIAuthProvider{endpoint: cfg.HTTPAPIURL, client: retryClient}
}

type APIAuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// APIAuthResponse is the companion verdict. UserID becomes the local
// account's external id and is mandatory on success.
type APIAuthResponse struct {
	Success  bool   `json:"success"`
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (p *HTTPAPIAuthProvider) Name() string { return "http_api" }

func (p *HTTPAPIAuthProvider) Authenticate(ctx context.Context, username, password string) (*Result, error) {
	payload, err := json.Marshal(APIAuthRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.client.Post(ctx, p.endpoint, retry.WithBody("application/json", bytes.NewReader(payload)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPAPIConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVerdictBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", ErrHTTPAPIInvalidResp)
	}

	verdict, err := parseVerdict(resp.StatusCode, body)
	if err != nil {
		return nil, err
	}
	return &Result{
		Username:   username,
		ExternalID: verdict.UserID,
		Email:      verdict.Email,
		FullName:   verdict.FullName,
		Success:    true,
	}, nil
}

// parseVerdict maps the companion reply onto the provider errors. A non-2xx
// reply that still carries a message is a rejection, anything else
// unreadable is an invalid response.
func parseVerdict(status int, body []byte) (*APIAuthResponse, error) {
	var v APIAuthResponse
	decodeErr := json.Unmarshal(body, &v)

	switch {
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		if decodeErr == nil && v.Message != "" {
			return nil, fmt.Errorf("%w: HTTP %d - %s", ErrHTTPAPIAuthFailed, status, v.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d - %s", ErrHTTPAPIInvalidResp, status, preview(body))
	case decodeErr != nil:
		return nil, fmt.Errorf("%w: %v", ErrHTTPAPIInvalidResp, decodeErr)
	case !v.Success:
		return nil, ErrHTTPAPIAuthFailed
	case v.UserID == "":
		return nil, fmt.Errorf("%w: success=true but missing user_id", ErrHTTPAPIInvalidResp)
	}
	return &v, nil
}

func preview(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
