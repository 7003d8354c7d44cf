package models

import "time"

// WebAuthnCredential is a registered FIDO2 authenticator. CredentialJSON is the
// full serialized library credential; SignCount is mirrored as a column so the
// replay check can be enforced with a conditional update.
type WebAuthnCredential struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	UserID         string `gorm:"not null;index"`
	CredentialID   string `gorm:"uniqueIndex;not null"` // base64url, unpadded
	Name           string
	CredentialJSON string `gorm:"type:text;not null"`
	SignCount      uint32 `gorm:"not null;default:0"`
	Active         bool   `gorm:"not null;default:true;index"`
	LastUsedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (WebAuthnCredential) TableName() string {
	return "webauthn_credentials"
}
