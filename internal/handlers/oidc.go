package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/middleware"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// OIDCHandler serves the authorization-code flow. Responses on /connect/token
// and /connect/userinfo use the RFC 6749 error shape, not the API envelope.
type OIDCHandler struct {
	oidc      *services.OIDCService
	clients   *services.ClientService
	users     middleware.UserLoader
	validator middleware.TokenValidator
}

func NewOIDCHandler(
	oidc *services.OIDCService,
	clients *services.ClientService,
	users middleware.UserLoader,
	validator middleware.TokenValidator,
) *OIDCHandler {
	return &OIDCHandler{oidc: oidc, clients: clients, users: users, validator: validator}
}

type authorizationView struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	ClientName string    `json:"client_name"`
	Scope      string    `json:"scope"`
	CreatedAt  time.Time `json:"created_at"`
}

func oauthError(c *gin.Context, status int, code, description string) {
	body := gin.H{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	c.JSON(status, body)
}

// param reads an authorize parameter from the body of a POST or the query of a GET.
func param(c *gin.Context, key string) string {
	if c.Request.Method == http.MethodPost {
		if v, ok := c.GetPostForm(key); ok {
			return v
		}
	}
	return c.Query(key)
}

func authorizeParams(c *gin.Context) services.AuthorizeParams {
	return services.AuthorizeParams{
		ClientID:            param(c, "client_id"),
		RedirectURI:         param(c, "redirect_uri"),
		ResponseType:        param(c, "response_type"),
		Scope:               param(c, "scope"),
		State:               param(c, "state"),
		Nonce:               param(c, "nonce"),
		CodeChallenge:       param(c, "code_challenge"),
		CodeChallengeMethod: param(c, "code_challenge_method"),
	}
}

// sessionUser returns the browser session's account, or nil when the session
// is empty or points at an account that is gone or disabled.
func (h *OIDCHandler) sessionUser(c *gin.Context) *models.User {
	userID, ok := sessions.Default(c).Get(middleware.SessionUserID).(string)
	if !ok || userID == "" {
		return nil
	}
	user, err := h.users.GetActiveUser(c, userID)
	if err != nil {
		return nil
	}
	return user
}

// finishAuthorize turns an authorize outcome into the right redirect or error.
func (h *OIDCHandler) finishAuthorize(c *gin.Context, result *services.AuthorizeResult, err error) {
	if err != nil {
		var redirectErr *services.AuthorizeRedirectError
		var oidcErr *services.OIDCError
		switch {
		case errors.As(err, &redirectErr):
			c.Redirect(http.StatusFound, redirectErr.Location())
		case errors.As(err, &oidcErr):
			oauthError(c, http.StatusBadRequest, oidcErr.Code, oidcErr.Description)
		default:
			respondError(c, err)
		}
		return
	}
	if result.LoginRequired() {
		c.Redirect(http.StatusFound, result.LoginURL)
		return
	}
	c.Redirect(http.StatusFound, result.RedirectURL)
}

// Authorize is GET|POST /connect/authorize.
func (h *OIDCHandler) Authorize(c *gin.Context) {
	result, err := h.oidc.Authorize(c, authorizeParams(c), h.sessionUser(c))
	h.finishAuthorize(c, result, err)
}

// LoginPage is GET /connect/login?request_id=. It describes the parked
// request for the login UI and hands out the CSRF token for the callback.
func (h *OIDCHandler) LoginPage(c *gin.Context) {
	req, err := h.oidc.PendingRequest(c, c.Query("request_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	clientName := req.ClientID
	if client, err := h.clients.Get(c, req.ClientID); err == nil {
		clientName = client.ClientName
	}
	respondOK(c, "", gin.H{
		"requestId":  req.RequestID,
		"clientId":   req.ClientID,
		"clientName": clientName,
		"scope":      req.Scope,
		"csrfToken":  middleware.GetCSRFToken(c),
	})
}

// LoginCallback is POST /connect/login. The browser presents an access token
// obtained from any first-party login flow together with the parked
// request_id. The session is bound to that account and the parked request
// resumes, ending in a redirect to the client.
func (h *OIDCHandler) LoginCallback(c *gin.Context) {
	raw := c.PostForm("token")
	if raw == "" {
		raw = middleware.BearerToken(c)
	}
	if raw == "" {
		respondFailure(c, http.StatusUnauthorized, "Login token required")
		return
	}
	result, err := h.validator.Validate(c, raw)
	if err != nil || result.ClientID != "" {
		respondFailure(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	user, err := h.users.GetActiveUser(c, result.UserID)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "Account is not active")
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserID, user.ID)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to save session")
		respondFailure(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	resumed, err := h.oidc.ResumeAuthorize(c, c.PostForm("request_id"), user)
	h.finishAuthorize(c, resumed, err)
}

// clientCredentials extracts client_secret_basic or client_secret_post
// credentials. Using both at once is rejected.
func clientCredentials(c *gin.Context) (clientID, secret string, basic bool, err error) {
	formID, formSecret := c.PostForm("client_id"), c.PostForm("client_secret")
	user, pass, ok := c.Request.BasicAuth()
	if !ok {
		return formID, formSecret, false, nil
	}
	if formSecret != "" {
		return "", "", true, errors.New("multiple client authentication methods")
	}
	// RFC 6749 §2.3.1: both parts are form-urlencoded before base64.
	if clientID, err = url.QueryUnescape(user); err != nil {
		return "", "", true, err
	}
	if secret, err = url.QueryUnescape(pass); err != nil {
		return "", "", true, err
	}
	if formID != "" && formID != clientID {
		return "", "", true, errors.New("client_id does not match")
	}
	return clientID, secret, true, nil
}

// Token is POST /connect/token.
func (h *OIDCHandler) Token(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	clientID, secret, basic, err := clientCredentials(c)
	if err != nil {
		oauthError(c, http.StatusBadRequest, services.ErrOIDCInvalidRequest.Code, err.Error())
		return
	}

	resp, err := h.oidc.Token(c, services.TokenRequest{
		GrantType:    c.PostForm("grant_type"),
		Code:         c.PostForm("code"),
		RedirectURI:  c.PostForm("redirect_uri"),
		ClientID:     clientID,
		ClientSecret: secret,
		CodeVerifier: c.PostForm("code_verifier"),
	})
	if err != nil {
		var oidcErr *services.OIDCError
		if !errors.As(err, &oidcErr) {
			log.Error().Err(err).Str("client_id", clientID).Msg("token exchange failed")
			oauthError(c, http.StatusInternalServerError, services.ErrOIDCServerError.Code, "")
			return
		}
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrOIDCInvalidClient) {
			status = http.StatusUnauthorized
			if basic {
				c.Header("WWW-Authenticate", `Basic realm="token"`)
			}
		}
		oauthError(c, status, oidcErr.Code, oidcErr.Description)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UserInfo is GET|POST /connect/userinfo.
func (h *OIDCHandler) UserInfo(c *gin.Context) {
	raw := middleware.BearerToken(c)
	if raw == "" && c.Request.Method == http.MethodPost {
		raw = c.PostForm("access_token")
	}
	if raw == "" {
		c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
		oauthError(c, http.StatusUnauthorized, services.ErrOIDCInvalidToken.Code, "Bearer token required")
		return
	}

	claims, err := h.oidc.UserInfo(c, raw)
	if err != nil {
		var oidcErr *services.OIDCError
		if errors.As(err, &oidcErr) {
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			oauthError(c, http.StatusUnauthorized, oidcErr.Code, oidcErr.Description)
			return
		}
		log.Error().Err(err).Msg("userinfo failed")
		oauthError(c, http.StatusInternalServerError, services.ErrOIDCServerError.Code, "")
		return
	}
	c.JSON(http.StatusOK, claims)
}

// Discovery is GET /.well-known/openid-configuration.
func (h *OIDCHandler) Discovery(c *gin.Context) {
	c.JSON(http.StatusOK, h.oidc.Discovery())
}

// ListAuthorizations is GET /connect/authorizations for the bearer's own grants.
func (h *OIDCHandler) ListAuthorizations(c *gin.Context) {
	auths, err := h.oidc.ListAuthorizations(c, middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]authorizationView, 0, len(auths))
	for _, a := range auths {
		views = append(views, authorizationView{
			ID:         a.ID,
			ClientID:   a.ClientID,
			ClientName: a.ClientName,
			Scope:      a.Scopes,
			CreatedAt:  a.CreatedAt,
		})
	}
	respondOK(c, "", views)
}

// RevokeAuthorization is POST /connect/authorizations/:id/revoke.
func (h *OIDCHandler) RevokeAuthorization(c *gin.Context) {
	if err := h.oidc.RevokeAuthorization(c, c.Param("id"), middleware.CurrentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Authorization revoked", nil)
}
