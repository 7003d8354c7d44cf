package models

import (
	"context"
	"encoding/base32"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// Base32 characters, but lowercased.
const lowerBase32Chars = "abcdefghijklmnopqrstuvwxyz234567"

// base32 encoder that uses lowered characters without padding.
var base32Lower = base32.NewEncoding(lowerBase32Chars).WithPadding(base32.NoPadding)

// Client types
const (
	ClientTypeConfidential = "confidential"
	ClientTypePublic       = "public"
)

// OAuthApplication is a registered OIDC client. Every field the authorization
// and token endpoints read is a named, typed column.
type OAuthApplication struct {
	ID           int64       `gorm:"primaryKey;autoIncrement"`
	ClientID     string      `gorm:"uniqueIndex;not null"`
	ClientSecret string      `gorm:"not null"` // bcrypt hashed secret, empty for public clients
	ClientName   string      `gorm:"not null"`
	Description  string      `gorm:"type:text"`
	Scopes       string      `gorm:"not null"` // space-separated scopes the client may request
	RedirectURIs StringArray `gorm:"type:json"`
	ClientType   string      `gorm:"not null;default:'confidential'"`
	RequirePKCE  bool        `gorm:"not null;default:false"`
	IsActive     bool        `gorm:"not null;default:true"`
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsPublic reports whether the client cannot hold a secret.
func (app *OAuthApplication) IsPublic() bool {
	return app.ClientType == ClientTypePublic
}

// AllowsRedirectURI performs exact matching against the registered URIs.
func (app *OAuthApplication) AllowsRedirectURI(uri string) bool {
	for _, registered := range app.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// GenerateClientSecret will generate the client secret and returns the plaintext and saves the hash at the database
func (app *OAuthApplication) GenerateClientSecret(ctx context.Context) (string, error) {
	rBytes, err := util.RandomBytes(32)
	if err != nil {
		return "", err
	}
	// Add a prefix to the base32, this is in order to make it easier
	// for code scanners to grab sensitive tokens.
	clientSecret := "fas_" + base32Lower.EncodeToString(rBytes)

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(clientSecret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	app.ClientSecret = string(hashedSecret)
	return clientSecret, nil
}

// ValidateClientSecret validates the given secret by the hash saved in database
func (app *OAuthApplication) ValidateClientSecret(secret []byte) bool {
	return bcrypt.CompareHashAndPassword([]byte(app.ClientSecret), secret) == nil
}

// TableName overrides the table name used by OAuthApplication to `oauth_applications`
func (OAuthApplication) TableName() string {
	return "oauth_applications"
}
