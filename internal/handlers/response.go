package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// envelope is the body of every JSON API response outside /connect/token,
// /connect/userinfo and discovery.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func respondFailure(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message})
}

// errorStatus maps the domain taxonomy onto HTTP statuses and safe messages.
var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
	{services.ErrAccountNotFound, http.StatusNotFound, "Account not found"},
	{services.ErrQRBindingInvalid, http.StatusUnauthorized, "QR login expired or invalid"},
	{services.ErrInvalidOrExpiredToken, http.StatusBadRequest, "Invalid or expired token"},
	{services.ErrNoSecondFactorConfigured, http.StatusBadRequest, "No second factor configured"},
	{services.ErrNoCredentials, http.StatusBadRequest, "No WebAuthn credentials registered"},
	{services.ErrInvalidCode, http.StatusBadRequest, "Invalid code"},
	{services.ErrPermissionDenied, http.StatusForbidden, "Permission denied"},
	{services.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{services.ErrNotFound, http.StatusNotFound, "Not found"},
	{services.ErrAuthProviderFailed, http.StatusServiceUnavailable, "Authentication service unavailable"},
	{services.ErrUserSyncFailed, http.StatusServiceUnavailable, "Authentication service unavailable"},
	{services.ErrUpstreamUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// respondError converts err into an envelope. Validation errors keep their
// text; anything unrecognized is logged and reported as a bare 500.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInvalidInput) {
		respondFailure(c, http.StatusBadRequest, err.Error())
		return
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				log.Warn().Err(err).Str("path", c.FullPath()).Msg("dependency failure")
			}
			respondFailure(c, e.status, e.message)
			return
		}
	}

	log.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("unhandled error")
	_ = c.Error(err)
	respondFailure(c, http.StatusInternalServerError, "Internal server error")
}

// bindJSON decodes the body or answers 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondFailure(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

type userView struct {
	ID            string `json:"id"`
	LegacyID      int64  `json:"legacyId"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	Phone         string `json:"phone,omitempty"`
	FullName      string `json:"fullName,omitempty"`
}

func newUserView(u *models.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{
		ID:            u.ID,
		LegacyID:      u.LegacyID,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Phone:         u.Phone,
		FullName:      u.FullName,
	}
}

type tokenView struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *userView `json:"user,omitempty"`
}

func newTokenView(tok *core.IssuedToken, u *models.User) tokenView {
	return tokenView{
		Token:     tok.TokenString,
		TokenType: tok.TokenType,
		ExpiresAt: tok.ExpiresAt,
		User:      newUserView(u),
	}
}

// loginView is either a token or a second-factor challenge.
type loginView struct {
	*tokenView
	RequiresTwoFactor bool   `json:"requiresTwoFactor,omitempty"`
	TwoFactorType     string `json:"twoFactorType,omitempty"`
	TempToken         string `json:"tempToken,omitempty"`
	WebAuthnOptions   any    `json:"webAuthnOptions,omitempty"`
}

func newLoginView(r *services.LoginResult) loginView {
	if r.RequiresTwoFactor {
		v := loginView{
			RequiresTwoFactor: true,
			TwoFactorType:     r.TwoFactorType,
			TempToken:         r.TempToken,
		}
		if r.WebAuthnOptions != nil {
			v.WebAuthnOptions = r.WebAuthnOptions
		}
		return v
	}
	tv := newTokenView(r.Token, r.User)
	return loginView{tokenView: &tv}
}

type clientView struct {
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret,omitempty"`
	ClientName   string    `json:"client_name"`
	Description  string    `json:"description,omitempty"`
	Scope        string    `json:"scope"`
	RedirectURIs []string  `json:"redirect_uris"`
	ClientType   string    `json:"client_type"`
	RequirePKCE  bool      `json:"require_pkce"`
	IsActive     bool      `json:"is_active"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newClientView(app *models.OAuthApplication) clientView {
	return clientView{
		ClientID:     app.ClientID,
		ClientName:   app.ClientName,
		Description:  app.Description,
		Scope:        app.Scopes,
		RedirectURIs: app.RedirectURIs,
		ClientType:   app.ClientType,
		RequirePKCE:  app.RequirePKCE,
		IsActive:     app.IsActive,
		CreatedBy:    app.CreatedBy,
		CreatedAt:    app.CreatedAt,
		UpdatedAt:    app.UpdatedAt,
	}
}

type credentialView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	SignCount  uint32     `json:"signCount"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func newCredentialView(cred *models.WebAuthnCredential) credentialView {
	return credentialView{
		ID:         cred.CredentialID,
		Name:       cred.Name,
		SignCount:  cred.SignCount,
		LastUsedAt: cred.LastUsedAt,
		CreatedAt:  cred.CreatedAt,
	}
}
