package token

import (
	"context"
	"slices"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
)

// Token type constants
const (
	TokenTypeBearer = "Bearer"

	// Values of the "typ" claim
	TypeAccess  = "access"
	TypeID      = "id"
	TypeQRLogin = "qr_login"
)

// Claim names carried by every access token
const (
	ClaimSubject     = "sub"
	ClaimName        = "name"
	ClaimLegacyID    = "legacy_id"
	ClaimRole        = "role"
	ClaimPermission  = "permission"
	ClaimPrimaryRole = "primary_role"
	ClaimScope       = "scope"
	ClaimClientID    = "client_id"
	ClaimType        = "typ"
)

// Result is an alias for core.IssuedToken.
type Result = core.IssuedToken

// ValidationResult is the decoded view of a verified access token.
type ValidationResult struct {
	UserID      string
	Username    string
	LegacyID    int64
	Roles       []string
	Permissions []string
	PrimaryRole int64
	Scopes      string
	ClientID    string
	ExpiresAt   time.Time
	Claims      map[string]any
}

// HasScope reports whether scope was granted. Tokens minted by first-party
// logins carry no scope claim and are treated as unrestricted.
func (v *ValidationResult) HasScope(scope string) bool {
	if v.Scopes == "" {
		return true
	}
	return ScopeSet(v.Scopes)[scope]
}

// HasRole reports whether the token carries the named role.
func (v *ValidationResult) HasRole(role string) bool {
	for _, r := range v.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the token carries the named permission.
func (v *ValidationResult) HasPermission(permission string) bool {
	return slices.Contains(v.Permissions, permission)
}

// IdentityStore is the read side of the credential store the issuer needs.
type IdentityStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserRoles(ctx context.Context, userID string) ([]models.Role, error)
	GetPermissionsForRoles(ctx context.Context, roleIDs []int64) ([]models.Permission, error)
}
