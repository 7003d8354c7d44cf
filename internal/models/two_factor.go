package models

import "time"

// Second factor kinds
const (
	FactorTOTP     = "totp"
	FactorWebAuthn = "webauthn"
)

// UserTwoFactorSettings records which second factors a user has turned on.
// A missing row is treated as "no second factor".
type UserTwoFactorSettings struct {
	UserID          string `gorm:"primaryKey;type:varchar(36)"`
	TOTPEnabled     bool   `gorm:"column:totp_enabled;not null;default:false"`
	WebAuthnEnabled bool   `gorm:"column:webauthn_enabled;not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (UserTwoFactorSettings) TableName() string {
	return "user_two_factor_settings"
}

// PendingTwoFactorToken binds a password-verified login to its second factor.
// Only the SHA-256 of the token is stored.
type PendingTwoFactorToken struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"`
	TokenHash  string     `gorm:"uniqueIndex;not null"`
	UserID     string     `gorm:"not null;index"`
	Factor     string     `gorm:"not null;size:16"`
	DeviceInfo string     `gorm:"size:500"`
	IPAddress  string     `gorm:"size:45"`
	ExpiresAt  time.Time  `gorm:"index"`
	Used       bool       `gorm:"not null;default:false"`
	UsedAt     *time.Time
	CreatedAt  time.Time
}

func (t *PendingTwoFactorToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (PendingTwoFactorToken) TableName() string {
	return "pending_two_factor_tokens"
}

// TOTPSecret holds a base32 TOTP seed. Rows start inactive at setup and become
// the user's single active secret after the first valid code.
type TOTPSecret struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	UserID      string `gorm:"not null;index"`
	Secret      string `gorm:"not null"`
	Active      bool   `gorm:"not null;default:false;index"`
	ActivatedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (TOTPSecret) TableName() string {
	return "totp_secrets"
}
