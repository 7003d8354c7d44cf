package handlers

import (
	"net/http"
	"strings"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/middleware"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AuthHandler serves password login, logout and the caller's 2FA status.
type AuthHandler struct {
	twoFactor    *services.TwoFactorService
	auditService *services.AuditService
	config       *config.Config
}

func NewAuthHandler(
	twoFactor *services.TwoFactorService,
	auditService *services.AuditService,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{twoFactor: twoFactor, auditService: auditService, config: cfg}
}

type loginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	SkipTwoFactor bool   `json:"skipTwoFactor"`
	DeviceInfo    string `json:"deviceInfo"`
}

// Login is POST /login. A correct password yields either a token or a
// second-factor challenge carrying a temp token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	deviceInfo := req.DeviceInfo
	if deviceInfo == "" {
		deviceInfo = c.Request.UserAgent()
	}

	result, err := h.twoFactor.Login(c, services.LoginRequest{
		Username:      strings.TrimSpace(req.Username),
		Password:      req.Password,
		SkipTwoFactor: req.SkipTwoFactor,
		DeviceInfo:    deviceInfo,
		IPAddress:     c.ClientIP(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if result.RequiresTwoFactor {
		respondOK(c, "Second factor required", newLoginView(result))
		return
	}
	respondOK(c, "Login successful", newLoginView(result))
}

// Logout is POST /logout. It ends the browser session used by /connect/authorize.
// Bearer tokens are stateless and simply expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if userID, ok := session.Get(middleware.SessionUserID).(string); ok && userID != "" {
		h.auditService.Log(c, services.AuditLogEntry{
			EventType:    models.EventLogout,
			ActorUserID:  userID,
			ResourceType: models.ResourceUser,
			ResourceID:   userID,
			Action:       "Browser session ended",
			Success:      true,
		})
	}

	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("failed to clear session")
	}

	if redirect := c.Query("redirect"); redirect != "" {
		if util.IsRedirectSafe(redirect, h.config.BaseURL) {
			c.Redirect(http.StatusFound, redirect)
			return
		}
		respondFailure(c, http.StatusBadRequest, "Unsafe redirect")
		return
	}
	respondOK(c, "Logged out", nil)
}

// TwoFactorStatus is GET /twofactor/status for the bearer of the token.
func (h *AuthHandler) TwoFactorStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)
	status, err := h.twoFactor.Status(c, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", status)
}
