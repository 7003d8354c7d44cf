package models

import "time"

// MagicLinkToken is a single-use emailed sign-in token. Only its SHA-256 is stored.
type MagicLinkToken struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"`
	TokenHash  string     `gorm:"uniqueIndex;not null"`
	UserID     string     `gorm:"not null;index"`
	Email      string     `gorm:"not null"`
	DeviceInfo string     `gorm:"size:500"`
	IPAddress  string     `gorm:"size:45"`
	ExpiresAt  time.Time  `gorm:"index"`
	Used       bool       `gorm:"not null;default:false"`
	UsedAt     *time.Time
	CreatedAt  time.Time
}

func (t *MagicLinkToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (MagicLinkToken) TableName() string {
	return "magic_link_tokens"
}
