package handlers

import (
	"net/http"
	"strings"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// MagicLinkHandler serves emailed one-time sign-in links.
type MagicLinkHandler struct {
	magicLinks *services.MagicLinkService
}

func NewMagicLinkHandler(magicLinks *services.MagicLinkService) *MagicLinkHandler {
	return &MagicLinkHandler{magicLinks: magicLinks}
}

type magicLinkSendRequest struct {
	Email      string `json:"email"`
	DeviceInfo string `json:"deviceInfo"`
}

type magicLinkRedeemRequest struct {
	Token string `json:"token" form:"token"`
}

// magicLinkSentMessage is the same whether or not the address has an account.
const magicLinkSentMessage = "If the address belongs to an account, a sign-in link has been sent"

// Send is POST /magic-link/send.
func (h *MagicLinkHandler) Send(c *gin.Context) {
	var req magicLinkSendRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		respondFailure(c, http.StatusBadRequest, "email is required")
		return
	}

	deviceInfo := req.DeviceInfo
	if deviceInfo == "" {
		deviceInfo = c.Request.UserAgent()
	}
	if err := h.magicLinks.Send(c, req.Email, deviceInfo, c.ClientIP()); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, magicLinkSentMessage, nil)
}

// Check is GET /validate-magic-link. It reports whether the link is still
// usable without consuming it, so mail scanners that prefetch links cannot
// burn them.
func (h *MagicLinkHandler) Check(c *gin.Context) {
	user, err := h.magicLinks.Validate(c, c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Link is valid", gin.H{"username": user.Username})
}

// Redeem is POST /validate-magic-link. The token may come as JSON, form or query.
func (h *MagicLinkHandler) Redeem(c *gin.Context) {
	var req magicLinkRedeemRequest
	if err := c.ShouldBind(&req); err != nil || req.Token == "" {
		req.Token = c.Query("token")
	}
	result, err := h.magicLinks.Redeem(c, req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Login successful", newLoginView(result))
}
