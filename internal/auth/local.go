package auth

import (
	"context"
	"sync"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// UserLookup is the part of the credential store a password check needs.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// decoyHash keeps unknown usernames on the same bcrypt cost as wrong passwords.
var decoyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("fleetauth-decoy"), bcrypt.DefaultCost)
	return h
})

// LocalAuthProvider checks bcrypt hashes stored in the users table.
type LocalAuthProvider struct {
	users UserLookup
}

func NewLocalAuthProvider(users UserLookup) *LocalAuthProvider {
	return &LocalAuthProvider{users: users}
}

func (p *LocalAuthProvider) Name() string { return "local" }

// Authenticate returns ErrInvalidCredentials for every failure, including
// unknown and deactivated accounts, so callers cannot enumerate users.
func (p *LocalAuthProvider) Authenticate(ctx context.Context, username, password string) (*Result, error) {
	hash := decoyHash()
	user, err := p.users.GetUserByUsername(ctx, username)
	known := err == nil && user.PasswordHash != ""
	if known {
		hash = []byte(user.PasswordHash)
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil || !known || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return &Result{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Success:  true,
	}, nil
}
