package token

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IDTokenParams holds all data needed to generate an OIDC ID Token (OIDC Core 1.0 §2).
type IDTokenParams struct {
	Subject     string
	Audience    string // client_id
	Nonce       string
	AuthTime    time.Time
	AccessToken string         // when set, at_hash is derived from it
	Claims      map[string]any // identity claims routed to the id token
}

// IssueIDToken creates a signed HS256 ID Token.
// ID tokens are not stored; they are short-lived and non-revocable.
func (i *Issuer) IssueIDToken(params IDTokenParams) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{}
	for k, v := range params.Claims {
		claims[k] = v
	}

	claims["iss"] = i.config.JWTIssuer
	claims["sub"] = params.Subject
	claims["aud"] = params.Audience
	claims["exp"] = now.Add(i.config.JWTExpiration).Unix()
	claims["iat"] = now.Unix()
	claims["jti"] = uuid.New().String()
	claims[ClaimType] = TypeID
	if !params.AuthTime.IsZero() {
		claims["auth_time"] = params.AuthTime.Unix()
	}
	if params.Nonce != "" {
		claims["nonce"] = params.Nonce
	}
	if params.AccessToken != "" {
		claims["at_hash"] = ComputeAtHash(params.AccessToken)
	}

	return i.sign(claims)
}

// ComputeAtHash computes the at_hash claim value per OIDC Core 1.0 §3.3.2.11.
// at_hash = base64url( left-most 128 bits of SHA-256( ASCII(access_token) ) )
func ComputeAtHash(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return base64.RawURLEncoding.EncodeToString(sum[:16])
}

// ScopeSet parses a space-separated scope string into a boolean lookup map.
func ScopeSet(scopes string) map[string]bool {
	set := make(map[string]bool)
	for s := range strings.FieldsSeq(scopes) {
		set[s] = true
	}
	return set
}
