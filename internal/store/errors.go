package store

import "errors"

var (
	ErrUsernameConflict  = errors.New("username already exists")
	ErrRecordNotFound    = errors.New("record not found")
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrAlreadyConsumed covers a single-use row that was used, expired, or
	// lost a race to a concurrent consumer. The conditional UPDATE cannot
	// tell these apart.
	ErrAlreadyConsumed = errors.New("token already used or expired")

	// ErrStaleSignCount means a WebAuthn assertion did not advance the
	// stored signature counter, which points at a cloned authenticator.
	ErrStaleSignCount = errors.New("webauthn signature counter did not increase")
)
