package core

import (
	"context"
	"time"
)

// IssuedToken is a signed bearer token and its expiry.
type IssuedToken struct {
	TokenString string
	TokenType   string
	ExpiresAt   time.Time
	Claims      map[string]any
}

// TokenIssuer signs bearer tokens for a resolved user.
type TokenIssuer interface {
	// Issue builds the full claim set for userID from the credential store.
	// extra claims are merged in and may not override reserved ones.
	Issue(ctx context.Context, userID string, extra map[string]any) (*IssuedToken, error)
}
