package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/middleware"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// WebAuthnHandler serves passkey registration, passwordless login and the
// WebAuthn step of two-factor login.
type WebAuthnHandler struct {
	webAuthn  *services.WebAuthnService
	twoFactor *services.TwoFactorService
	sessions  *services.SessionIssuer
}

func NewWebAuthnHandler(
	webAuthn *services.WebAuthnService,
	twoFactor *services.TwoFactorService,
	sessions *services.SessionIssuer,
) *WebAuthnHandler {
	return &WebAuthnHandler{webAuthn: webAuthn, twoFactor: twoFactor, sessions: sessions}
}

// Ceremony responses are passed to the library verbatim.
type registerCompleteRequest struct {
	Name       string          `json:"name"`
	Credential json.RawMessage `json:"credential"`
}

type loginOptionsRequest struct {
	Username string `json:"username"`
}

type loginCompleteRequest struct {
	Username  string          `json:"username"`
	Assertion json.RawMessage `json:"assertion"`
}

type webAuthnValidateRequest struct {
	TempToken string          `json:"tempToken"`
	Assertion json.RawMessage `json:"assertion"`
}

// RegisterOptions is POST /webauthn/register/options.
func (h *WebAuthnHandler) RegisterOptions(c *gin.Context) {
	options, err := h.webAuthn.GetCredentialCreateOptions(c, middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", options)
}

// RegisterComplete is POST /webauthn/register/complete.
func (h *WebAuthnHandler) RegisterComplete(c *gin.Context) {
	var req registerCompleteRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.Credential) == 0 {
		respondFailure(c, http.StatusBadRequest, "credential is required")
		return
	}
	cred, err := h.webAuthn.CompleteRegistration(c, middleware.CurrentUser(c), strings.TrimSpace(req.Name), req.Credential)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Security key registered", newCredentialView(cred))
}

// LoginOptions is POST /webauthn/login/options for passwordless login.
func (h *WebAuthnHandler) LoginOptions(c *gin.Context) {
	var req loginOptionsRequest
	if !bindJSON(c, &req) {
		return
	}
	options, err := h.webAuthn.GetAssertionOptions(c, strings.TrimSpace(req.Username))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", options)
}

// LoginComplete is POST /webauthn/login/complete. A verified assertion signs
// the user in without a password.
func (h *WebAuthnHandler) LoginComplete(c *gin.Context) {
	var req loginCompleteRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.webAuthn.CompleteAssertion(c, strings.TrimSpace(req.Username), req.Assertion)
	if err != nil {
		respondError(c, err)
		return
	}
	tok, err := h.sessions.Issue(c, user, services.FlowPasskey, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Login successful", newTokenView(tok, user))
}

// Validate is POST /webauthn/validate: redeems a login temp token with an assertion.
func (h *WebAuthnHandler) Validate(c *gin.Context) {
	var req webAuthnValidateRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.twoFactor.ValidateWebAuthn(c, req.TempToken, req.Assertion)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Login successful", newLoginView(result))
}

// ListCredentials is GET /webauthn/credentials.
func (h *WebAuthnHandler) ListCredentials(c *gin.Context) {
	creds, err := h.webAuthn.ListCredentials(c, middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]credentialView, 0, len(creds))
	for i := range creds {
		views = append(views, newCredentialView(&creds[i]))
	}
	respondOK(c, "", views)
}

// DeleteCredential is DELETE /webauthn/credentials/:id.
func (h *WebAuthnHandler) DeleteCredential(c *gin.Context) {
	if err := h.webAuthn.RemoveCredential(c, middleware.CurrentUser(c).ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Security key removed", nil)
}
