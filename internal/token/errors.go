package token

import "errors"

var (
	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrMalformedToken indicates the string is not a structurally valid JWT.
	// It is decided before any signature work.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidToken indicates the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("token expired")

	// ErrWrongTokenType indicates a valid token presented where another type is required
	ErrWrongTokenType = errors.New("unexpected token type")

	// ErrUserNotFound indicates the subject no longer resolves to an active user
	ErrUserNotFound = errors.New("token subject not found")
)
