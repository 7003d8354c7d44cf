package core

import "context"

// AuthResult is what a password backend knows about a user after a
// successful check. Only Username is guaranteed.
type AuthResult struct {
	Username   string
	ExternalID string
	Email      string
	FullName   string
	Success    bool
}

// AuthProvider verifies a username/password pair against a backend other
// than the local user table, such as the companion identity service.
type AuthProvider interface {
	Name() string
	Authenticate(ctx context.Context, username, password string) (*AuthResult, error)
}
