package models

import (
	"time"
)

// Auth sources
const (
	AuthSourceLocal   = "local"
	AuthSourceHTTPAPI = "http_api"
)

type User struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	LegacyID      int64  `gorm:"uniqueIndex;not null"` // Numeric id carried in tokens for older consumers
	Username      string `gorm:"uniqueIndex;not null"` // Login name
	Email         string `gorm:"index"`
	EmailVerified bool   `gorm:"not null;default:false"`
	Phone         string
	PhoneVerified bool   `gorm:"not null;default:false"`
	PasswordHash  string // Empty for users managed by the companion identity service
	FullName      string
	IsActive      bool `gorm:"not null;default:true"`

	// External authentication support
	ExternalID string `gorm:"index"`
	AuthSource string `gorm:"default:'local'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExternal returns true if user authenticates via the companion identity service
func (u *User) IsExternal() bool {
	return u.AuthSource != AuthSourceLocal && u.AuthSource != ""
}

// DisplayName prefers the full name and falls back to the login.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
