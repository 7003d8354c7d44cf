package token

import (
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// QRPayload is the verified content of a session QR code.
type QRPayload struct {
	ID        string // jti; lets the caller enforce single use
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// IssueQRLoginToken signs a short-lived payload binding a QR code to user.
// It cannot be used as a bearer token: Validate rejects its typ.
func (i *Issuer) IssueQRLoginToken(user *models.User, ttl time.Duration) (string, *QRPayload, error) {
	now := i.now()
	payload := &QRPayload{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: now.Add(ttl),
	}
	claims := jwt.MapClaims{
		"iss":        i.config.JWTIssuer,
		"exp":        payload.ExpiresAt.Unix(),
		"iat":        now.Unix(),
		"jti":        payload.ID,
		ClaimSubject: user.ID,
		ClaimName:    user.Username,
		ClaimType:    TypeQRLogin,
	}
	signed, err := i.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, payload, nil
}

// ParseQRLoginToken verifies a session QR payload.
func (i *Issuer) ParseQRLoginToken(tokenString string) (*QRPayload, error) {
	claims, err := i.parse(tokenString, TypeQRLogin)
	if err != nil {
		return nil, err
	}
	userID, _ := claims[ClaimSubject].(string)
	username, _ := claims[ClaimName].(string)
	id, _ := claims["jti"].(string)
	if userID == "" || id == "" {
		return nil, ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}
	return &QRPayload{ID: id, UserID: userID, Username: username, ExpiresAt: exp.Time}, nil
}
