package models

import "time"

// Authorization statuses and types
const (
	AuthorizationStatusValid   = "valid"
	AuthorizationStatusRevoked = "revoked"
	AuthorizationTypePermanent = "permanent"
)

// OIDCAuthorization records that a subject granted a client a scope set.
// Scopes is stored in canonical form (sorted, space-separated) so that an
// identical grant can be found with an equality match.
type OIDCAuthorization struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	ClientID  string `gorm:"not null;index:idx_oidc_auth_lookup"`
	Subject   string `gorm:"not null;index:idx_oidc_auth_lookup"` // FK → User.ID
	Scopes    string `gorm:"not null;index:idx_oidc_auth_lookup"`
	Status    string `gorm:"not null;default:'valid'"`
	Type      string `gorm:"not null;default:'permanent'"`
	RevokedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *OIDCAuthorization) IsValid() bool {
	return a.Status == AuthorizationStatusValid
}

func (OIDCAuthorization) TableName() string {
	return "oidc_authorizations"
}
