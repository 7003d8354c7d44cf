package services

import (
	"errors"
	"fmt"
)

// Domain errors. Handlers translate these into response envelopes; anything
// not listed here is treated as an internal failure.
var (
	ErrInvalidCredentials       = errors.New("invalid username or password")
	ErrAccountNotFound          = errors.New("account not found")
	ErrInvalidOrExpiredToken    = errors.New("invalid or expired token")
	ErrNoSecondFactorConfigured = errors.New("no second factor configured")
	ErrNoCredentials            = errors.New("no webauthn credentials registered")
	ErrInvalidCode              = errors.New("invalid code")
	ErrPermissionDenied         = errors.New("permission denied")
	ErrUpstreamUnavailable      = errors.New("upstream service unavailable")
	ErrNotFound                 = errors.New("not found")
	ErrForbidden                = errors.New("forbidden")
	ErrInvalidInput             = errors.New("invalid input")
	ErrAuthProviderFailed       = errors.New("authentication provider failed")
	ErrUserSyncFailed           = errors.New("failed to sync user from identity API")
)

// ErrQRBindingInvalid is returned when a direct-login QR binding is absent,
// expired or bound to another device type.
var ErrQRBindingInvalid = fmt.Errorf("%w: qr login binding", ErrInvalidOrExpiredToken)

// OIDCError carries an RFC 6749 error code and a human-readable description.
type OIDCError struct {
	Code        string
	Description string
}

func (e *OIDCError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

// Is matches on the error code so callers can use errors.Is against the
// package-level sentinels regardless of description.
func (e *OIDCError) Is(target error) bool {
	t, ok := target.(*OIDCError)
	return ok && t.Code == e.Code
}

func oidcError(base *OIDCError, description string) *OIDCError {
	return &OIDCError{Code: base.Code, Description: description}
}

var (
	ErrOIDCInvalidRequest          = &OIDCError{Code: "invalid_request"}
	ErrOIDCInvalidClient           = &OIDCError{Code: "invalid_client"}
	ErrOIDCInvalidGrant            = &OIDCError{Code: "invalid_grant"}
	ErrOIDCInvalidToken            = &OIDCError{Code: "invalid_token"}
	ErrOIDCInvalidScope            = &OIDCError{Code: "invalid_scope"}
	ErrOIDCUnsupportedGrantType    = &OIDCError{Code: "unsupported_grant_type"}
	ErrOIDCUnsupportedResponseType = &OIDCError{Code: "unsupported_response_type"}
	ErrOIDCUnauthorizedClient      = &OIDCError{Code: "unauthorized_client"}
	ErrOIDCAccessDenied            = &OIDCError{Code: "access_denied"}
	ErrOIDCServerError             = &OIDCError{Code: "server_error"}
)
