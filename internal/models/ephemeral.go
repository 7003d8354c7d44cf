package models

import "time"

// Cached, single-use records. They live only in the ephemeral cache; each
// carries an absolute expiry in unix milliseconds so any backend can enforce
// it regardless of its own TTL handling.

// OIDCRequest is an /connect/authorize request parked until the browser logs in.
type OIDCRequest struct {
	RequestID           string `json:"request_id"`
	ClientID            string `json:"client_id"`
	RedirectURI         string `json:"redirect_uri"`
	ResponseType        string `json:"response_type"`
	Scope               string `json:"scope"`
	State               string `json:"state,omitempty"`
	Nonce               string `json:"nonce,omitempty"`
	CodeChallenge       string `json:"code_challenge,omitempty"`
	CodeChallengeMethod string `json:"code_challenge_method,omitempty"`
	ExpiresAt           int64  `json:"expires_at"`
}

func (r *OIDCRequest) IsExpired(now time.Time) bool {
	return now.UnixMilli() > r.ExpiresAt
}

// AuthorizationCodeGrant is what an authorization code redeems to.
type AuthorizationCodeGrant struct {
	UserID              string   `json:"user_id"`
	ClientID            string   `json:"client_id"`
	AuthorizationID     string   `json:"authorization_id"`
	Scopes              []string `json:"scopes"`
	RedirectURI         string   `json:"redirect_uri"`
	Nonce               string   `json:"nonce,omitempty"`
	CodeChallenge       string   `json:"code_challenge,omitempty"`
	CodeChallengeMethod string   `json:"code_challenge_method,omitempty"`
	ExpiresAt           int64    `json:"expires_at"`
}

func (g *AuthorizationCodeGrant) IsExpired(now time.Time) bool {
	return now.UnixMilli() > g.ExpiresAt
}

// QRDeviceBinding ties a direct-login QR token to the device that displayed it.
// Username is optional; when set only that user may complete the login.
type QRDeviceBinding struct {
	DeviceID   string `json:"device_id"`
	Username   string `json:"username,omitempty"`
	DeviceType string `json:"device_type"`
	ExpiresAt  int64  `json:"expires_at"`
}

func (b *QRDeviceBinding) IsExpired(now time.Time) bool {
	return now.UnixMilli() > b.ExpiresAt
}

// QRLoginResult is delivered to the polling device exactly once.
type QRLoginResult struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expires_at"`
}

func (r *QRLoginResult) IsExpired(now time.Time) bool {
	return now.UnixMilli() > r.ExpiresAt
}
