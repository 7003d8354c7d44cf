package handlers

import (
	"strings"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/middleware"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// TOTPHandler manages authenticator-app enrollment and the TOTP step of login.
type TOTPHandler struct {
	totp      *services.TOTPService
	twoFactor *services.TwoFactorService
}

func NewTOTPHandler(totp *services.TOTPService, twoFactor *services.TwoFactorService) *TOTPHandler {
	return &TOTPHandler{totp: totp, twoFactor: twoFactor}
}

type totpEnableRequest struct {
	Code   string `json:"code"`
	Secret string `json:"secret"`
}

type totpCodeRequest struct {
	Code string `json:"code"`
}

type totpValidateRequest struct {
	TempToken string `json:"tempToken"`
	Code      string `json:"code"`
}

// Setup is POST /totp/setup. The returned secret is inactive until Verify.
func (h *TOTPHandler) Setup(c *gin.Context) {
	setup, err := h.totp.Setup(c, middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Scan the QR code and confirm with a code", setup)
}

// Verify is POST /totp/verify: confirms the secret from Setup and enables TOTP.
func (h *TOTPHandler) Verify(c *gin.Context) {
	var req totpEnableRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Secret == "" || req.Code == "" {
		respondError(c, services.ErrInvalidCode)
		return
	}
	user := middleware.CurrentUser(c)
	if err := h.totp.Enable(c, user.ID, strings.TrimSpace(req.Code), req.Secret); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Two-factor authentication enabled", nil)
}

// Disable is POST /totp/disable. A current code is required.
func (h *TOTPHandler) Disable(c *gin.Context) {
	var req totpCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	user := middleware.CurrentUser(c)
	if err := h.totp.VerifyUserCode(c, user.ID, strings.TrimSpace(req.Code)); err != nil {
		respondError(c, err)
		return
	}
	if err := h.totp.Disable(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Two-factor authentication disabled", nil)
}

// Validate is POST /totp/validate: redeems a login temp token with a code.
func (h *TOTPHandler) Validate(c *gin.Context) {
	var req totpValidateRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.twoFactor.VerifyTOTP(c, req.TempToken, strings.TrimSpace(req.Code))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Login successful", newLoginView(result))
}
