package auth

import "errors"

var ErrInvalidCredentials = errors.New("invalid username or password")

// Companion identity service failures. Connection and invalid-response
// errors are transient; a rejection is a definitive wrong password.
var (
	ErrHTTPAPIConnection  = errors.New("failed to connect to identity API")
	ErrHTTPAPIAuthFailed  = errors.New("identity API rejected credentials")
	ErrHTTPAPIInvalidResp = errors.New("invalid response from identity API")
)
