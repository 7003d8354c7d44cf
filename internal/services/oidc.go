package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/cache"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/token"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OIDC scopes
const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopePhone         = "phone"
	ScopeRoles         = "roles"
	ScopeOfflineAccess = "offline_access"
)

// SupportedScopes lists every scope a client may be registered for.
var SupportedScopes = []string{
	ScopeOpenID, ScopeProfile, ScopeEmail, ScopePhone, ScopeRoles, ScopeOfflineAccess,
}

// firstPartyScopes is what userinfo releases for a first-party session token,
// which carries no scope claim. Roles and phone always need an explicit grant.
var firstPartyScopes = []string{ScopeOpenID, ScopeProfile, ScopeEmail}

const (
	GrantTypeAuthorizationCode = "authorization_code"
	ResponseTypeCode           = "code"
	PKCEMethodS256             = "S256"
	PKCEMethodPlain            = "plain"
)

// AuthorizeParams are the query parameters of /connect/authorize.
type AuthorizeParams struct {
	ClientID            string
	RedirectURI         string
	ResponseType        string
	Scope               string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizeResult is either a login challenge (RequestID set) or a redirect
// carrying an authorization code.
type AuthorizeResult struct {
	RequestID   string
	LoginURL    string
	Code        string
	RedirectURL string
}

// LoginRequired reports whether the browser must sign in before a code is issued.
func (r *AuthorizeResult) LoginRequired() bool {
	return r.RequestID != ""
}

// AuthorizeRedirectError is an authorization error that is reported back to
// the client's registered redirect_uri rather than shown to the user.
type AuthorizeRedirectError struct {
	*OIDCError
	RedirectURI string
	State       string
}

func (e *AuthorizeRedirectError) Unwrap() error { return e.OIDCError }

// Location is the redirect target carrying error, error_description and state.
func (e *AuthorizeRedirectError) Location() string {
	q := url.Values{"error": {e.Code}}
	if e.Description != "" {
		q.Set("error_description", e.Description)
	}
	if e.State != "" {
		q.Set("state", e.State)
	}
	return appendQuery(e.RedirectURI, q)
}

// TokenRequest is the form body of /connect/token with client credentials
// already extracted from either the Authorization header or the body.
type TokenRequest struct {
	GrantType    string
	Code         string
	RedirectURI  string
	ClientID     string
	ClientSecret string
	CodeVerifier string
}

// TokenResponse is the RFC 6749 §5.1 success body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	IDToken     string `json:"id_token,omitempty"`
	Scope       string `json:"scope"`
}

// AuthorizationWithClient is a consent record with its client's display name.
type AuthorizationWithClient struct {
	models.OIDCAuthorization
	ClientName string `json:"client_name"`
}

// OIDCTokenIssuer signs the access and identity tokens handed to OIDC clients.
type OIDCTokenIssuer interface {
	core.TokenIssuer
	IssueIDToken(params token.IDTokenParams) (string, error)
	Validate(ctx context.Context, tokenString string) (*token.ValidationResult, error)
}

// OIDCService is the authorization-code flow of a small OpenID Connect provider.
type OIDCService struct {
	store        *store.Store
	config       *config.Config
	requests     core.Cache[models.OIDCRequest]
	codes        core.Cache[models.AuthorizationCodeGrant]
	issuer       OIDCTokenIssuer
	auditService *AuditService
	metrics      core.Recorder
	now          func() time.Time
}

func NewOIDCService(
	s *store.Store,
	cfg *config.Config,
	requests core.Cache[models.OIDCRequest],
	codes core.Cache[models.AuthorizationCodeGrant],
	issuer OIDCTokenIssuer,
	auditService *AuditService,
	m core.Recorder,
) *OIDCService {
	return &OIDCService{
		store:        s,
		config:       cfg,
		requests:     requests,
		codes:        codes,
		issuer:       issuer,
		auditService: auditService,
		metrics:      m,
		now:          time.Now,
	}
}

// canonicalScopes returns the sorted, de-duplicated scope list.
func canonicalScopes(scope string) []string {
	scopes := strings.Fields(scope)
	slices.Sort(scopes)
	return slices.Compact(scopes)
}

func appendQuery(base string, q url.Values) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// validateAuthorize checks params in the order that decides how errors are
// reported: until client and redirect_uri are trusted, errors are returned
// as plain OIDC errors; afterwards they are AuthorizeRedirectErrors.
func (s *OIDCService) validateAuthorize(
	ctx context.Context,
	p AuthorizeParams,
) (*models.OAuthApplication, []string, error) {
	if p.ClientID == "" {
		return nil, nil, oidcError(ErrOIDCInvalidRequest, "client_id is required")
	}
	client, err := s.store.GetClient(ctx, p.ClientID)
	if err != nil || !client.IsActive {
		return nil, nil, oidcError(ErrOIDCInvalidClient, "unknown client")
	}
	if p.RedirectURI == "" || !client.AllowsRedirectURI(p.RedirectURI) {
		return nil, nil, oidcError(ErrOIDCInvalidRequest, "redirect_uri is not registered for this client")
	}

	redirectErr := func(base *OIDCError, desc string) error {
		return &AuthorizeRedirectError{
			OIDCError:   oidcError(base, desc),
			RedirectURI: p.RedirectURI,
			State:       p.State,
		}
	}

	if p.ResponseType != ResponseTypeCode {
		return nil, nil, redirectErr(ErrOIDCUnsupportedResponseType, "only response_type=code is supported")
	}

	scope := p.Scope
	if strings.TrimSpace(scope) == "" {
		scope = client.Scopes
	}
	scopes := canonicalScopes(scope)
	allowed := token.ScopeSet(client.Scopes)
	for _, sc := range scopes {
		if !allowed[sc] || !slices.Contains(SupportedScopes, sc) {
			return nil, nil, redirectErr(ErrOIDCInvalidScope, "scope "+sc+" is not allowed for this client")
		}
	}

	switch p.CodeChallengeMethod {
	case "", PKCEMethodS256, PKCEMethodPlain:
	default:
		return nil, nil, redirectErr(ErrOIDCInvalidRequest, "unsupported code_challenge_method")
	}
	if p.CodeChallengeMethod != "" && p.CodeChallenge == "" {
		return nil, nil, redirectErr(ErrOIDCInvalidRequest, "code_challenge is required")
	}
	if (client.IsPublic() || client.RequirePKCE) && p.CodeChallenge == "" {
		return nil, nil, redirectErr(ErrOIDCInvalidRequest, "PKCE is required for this client")
	}

	return client, scopes, nil
}

// Authorize handles /connect/authorize. A nil user parks the request and asks
// the browser to log in; otherwise an authorization code is issued.
func (s *OIDCService) Authorize(
	ctx context.Context,
	p AuthorizeParams,
	user *models.User,
) (*AuthorizeResult, error) {
	client, scopes, err := s.validateAuthorize(ctx, p)
	if err != nil {
		s.metrics.RecordOIDCAuthorize("error")
		return nil, err
	}

	if user == nil {
		requestID := uuid.New().String()
		req := models.OIDCRequest{
			RequestID:           requestID,
			ClientID:            p.ClientID,
			RedirectURI:         p.RedirectURI,
			ResponseType:        p.ResponseType,
			Scope:               strings.Join(scopes, " "),
			State:               p.State,
			Nonce:               p.Nonce,
			CodeChallenge:       p.CodeChallenge,
			CodeChallengeMethod: p.CodeChallengeMethod,
			ExpiresAt:           s.now().Add(s.config.OIDCRequestTTL).UnixMilli(),
		}
		if err := s.requests.Set(ctx, cache.OIDCRequestKey(requestID), req, s.config.OIDCRequestTTL); err != nil {
			s.metrics.RecordOIDCAuthorize("error")
			return nil, fmt.Errorf("park authorize request: %w", err)
		}
		s.metrics.RecordOIDCAuthorize("login_required")
		return &AuthorizeResult{
			RequestID: requestID,
			LoginURL:  appendQuery(s.config.OIDCLoginURL, url.Values{"request_id": {requestID}}),
		}, nil
	}

	if !user.IsActive {
		s.metrics.RecordOIDCAuthorize("access_denied")
		return nil, &AuthorizeRedirectError{
			OIDCError:   oidcError(ErrOIDCAccessDenied, "account is disabled"),
			RedirectURI: p.RedirectURI,
			State:       p.State,
		}
	}

	return s.issueCode(ctx, client, user, scopes, p)
}

// ResumeAuthorize continues a parked request after the browser has logged in.
// The parked request is consumed.
func (s *OIDCService) ResumeAuthorize(
	ctx context.Context,
	requestID string,
	user *models.User,
) (*AuthorizeResult, error) {
	if requestID == "" || user == nil {
		return nil, ErrInvalidOrExpiredToken
	}
	req, err := s.requests.Take(ctx, cache.OIDCRequestKey(requestID))
	if err != nil {
		if !cache.IsMiss(err) {
			log.Error().Err(err).Str("request_id", requestID).Msg("failed to load parked authorize request")
		}
		return nil, ErrInvalidOrExpiredToken
	}
	if req.IsExpired(s.now()) {
		return nil, ErrInvalidOrExpiredToken
	}

	return s.Authorize(ctx, AuthorizeParams{
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		ResponseType:        req.ResponseType,
		Scope:               req.Scope,
		State:               req.State,
		Nonce:               req.Nonce,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
	}, user)
}

// PendingRequest returns a parked request without consuming it, for rendering
// the login page.
func (s *OIDCService) PendingRequest(ctx context.Context, requestID string) (*models.OIDCRequest, error) {
	req, err := s.requests.Get(ctx, cache.OIDCRequestKey(requestID))
	if err != nil || req.IsExpired(s.now()) {
		return nil, ErrInvalidOrExpiredToken
	}
	return &req, nil
}

// findOrCreateAuthorization reuses the newest valid authorization with an
// identical scope set, or records a new permanent one.
func (s *OIDCService) findOrCreateAuthorization(
	ctx context.Context,
	clientID string,
	user *models.User,
	scopes []string,
) (*models.OIDCAuthorization, error) {
	canonical := strings.Join(scopes, " ")
	auth, err := s.store.FindValidAuthorization(ctx, clientID, user.ID, canonical)
	if err == nil {
		return auth, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	auth = &models.OIDCAuthorization{
		ID:       uuid.New().String(),
		ClientID: clientID,
		Subject:  user.ID,
		Scopes:   canonical,
		Status:   models.AuthorizationStatusValid,
		Type:     models.AuthorizationTypePermanent,
	}
	if err := s.store.CreateAuthorization(ctx, auth); err != nil {
		return nil, err
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:     models.EventUserAuthorizationGranted,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceAuthorization,
		ResourceID:    auth.ID,
		Action:        "User granted authorization to application",
		Details:       models.AuditDetails{"client_id": clientID, "scopes": canonical},
		Success:       true,
	})
	return auth, nil
}

func (s *OIDCService) issueCode(
	ctx context.Context,
	client *models.OAuthApplication,
	user *models.User,
	scopes []string,
	p AuthorizeParams,
) (*AuthorizeResult, error) {
	auth, err := s.findOrCreateAuthorization(ctx, client.ClientID, user, scopes)
	if err != nil {
		s.metrics.RecordOIDCAuthorize("error")
		return nil, fmt.Errorf("record authorization: %w", err)
	}

	code, err := util.RandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate authorization code: %w", err)
	}
	grant := models.AuthorizationCodeGrant{
		UserID:              user.ID,
		ClientID:            client.ClientID,
		AuthorizationID:     auth.ID,
		Scopes:              scopes,
		RedirectURI:         p.RedirectURI,
		Nonce:               p.Nonce,
		CodeChallenge:       p.CodeChallenge,
		CodeChallengeMethod: p.CodeChallengeMethod,
		ExpiresAt:           s.now().Add(s.config.AuthCodeTTL).UnixMilli(),
	}
	if err := s.codes.Set(ctx, cache.AuthCodeKey(code), grant, s.config.AuthCodeTTL); err != nil {
		s.metrics.RecordOIDCAuthorize("error")
		return nil, fmt.Errorf("store authorization code: %w", err)
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:     models.EventAuthorizationCodeGenerated,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceAuthorization,
		ResourceID:    auth.ID,
		Action:        "Authorization code generated",
		Details: models.AuditDetails{
			"client_id":    client.ClientID,
			"scopes":       auth.Scopes,
			"pkce":         p.CodeChallenge != "",
			"redirect_uri": p.RedirectURI,
		},
		Success: true,
	})
	s.metrics.RecordOIDCAuthorize("code_issued")

	q := url.Values{"code": {code}}
	if p.State != "" {
		q.Set("state", p.State)
	}
	return &AuthorizeResult{
		Code:        code,
		RedirectURL: appendQuery(p.RedirectURI, q),
	}, nil
}

// authenticateClient applies client_secret_basic/post for confidential
// clients. Public clients authenticate through PKCE at code redemption.
func (s *OIDCService) authenticateClient(
	ctx context.Context,
	clientID, clientSecret string,
) (*models.OAuthApplication, error) {
	if clientID == "" {
		return nil, oidcError(ErrOIDCInvalidClient, "client authentication failed")
	}
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil || !client.IsActive {
		return nil, oidcError(ErrOIDCInvalidClient, "client authentication failed")
	}
	if client.IsPublic() {
		return client, nil
	}
	if !verifyClientSecret(client.ClientSecret, clientSecret) {
		return nil, oidcError(ErrOIDCInvalidClient, "client authentication failed")
	}
	return client, nil
}

// Token redeems an authorization code. The code is consumed before any of its
// bindings are checked, so a code presented with the wrong verifier or
// redirect_uri cannot be retried.
func (s *OIDCService) Token(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	resp, err := s.exchange(ctx, req)
	if err != nil {
		var oe *OIDCError
		if errors.As(err, &oe) {
			s.metrics.RecordOIDCTokenExchange(oe.Code)
		} else {
			s.metrics.RecordOIDCTokenExchange("server_error")
		}
		return nil, err
	}
	s.metrics.RecordOIDCTokenExchange("success")
	return resp, nil
}

func (s *OIDCService) exchange(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	if req.GrantType != GrantTypeAuthorizationCode {
		return nil, oidcError(ErrOIDCUnsupportedGrantType, "only authorization_code is supported")
	}
	if req.Code == "" {
		return nil, oidcError(ErrOIDCInvalidRequest, "code is required")
	}

	client, err := s.authenticateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}

	grant, err := s.codes.Take(ctx, cache.AuthCodeKey(req.Code))
	if err != nil {
		if !cache.IsMiss(err) {
			log.Error().Err(err).Msg("failed to redeem authorization code")
		}
		return nil, oidcError(ErrOIDCInvalidGrant, "authorization code is invalid or has already been used")
	}
	if grant.IsExpired(s.now()) {
		return nil, oidcError(ErrOIDCInvalidGrant, "authorization code has expired")
	}
	if grant.ClientID != client.ClientID {
		return nil, oidcError(ErrOIDCInvalidGrant, "authorization code was not issued to this client")
	}
	if grant.RedirectURI != req.RedirectURI {
		return nil, oidcError(ErrOIDCInvalidGrant, "redirect_uri does not match the authorization request")
	}
	if grant.CodeChallenge != "" {
		if !verifyPKCE(grant.CodeChallenge, grant.CodeChallengeMethod, req.CodeVerifier) {
			return nil, oidcError(ErrOIDCInvalidGrant, "code_verifier does not match")
		}
	} else if client.IsPublic() {
		return nil, oidcError(ErrOIDCInvalidGrant, "PKCE is required for this client")
	}

	auth, err := s.store.GetAuthorization(ctx, grant.AuthorizationID)
	if err != nil || !auth.IsValid() {
		return nil, oidcError(ErrOIDCInvalidGrant, "authorization has been revoked")
	}

	user, err := s.store.GetUserByID(ctx, grant.UserID)
	if err != nil || !user.IsActive {
		return nil, oidcError(ErrOIDCInvalidGrant, "user is no longer active")
	}

	roles, err := s.store.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, oidcError(ErrOIDCServerError, "failed to load roles")
	}
	identity := identityClaims(user, roles, grant.Scopes)

	scope := strings.Join(grant.Scopes, " ")
	extra := claimsFor(identity, DestinationAccessToken)
	extra[token.ClaimScope] = scope
	extra[token.ClaimClientID] = client.ClientID

	start := time.Now()
	access, err := s.issuer.Issue(ctx, user.ID, extra)
	if err != nil {
		log.Error().Err(err).Str("client_id", client.ClientID).Msg("failed to issue access token")
		return nil, oidcError(ErrOIDCServerError, "failed to issue token")
	}
	s.metrics.RecordTokenIssued("access", FlowOIDC, time.Since(start))

	resp := &TokenResponse{
		AccessToken: access.TokenString,
		TokenType:   access.TokenType,
		ExpiresIn:   int64(time.Until(access.ExpiresAt).Seconds()),
		Scope:       scope,
	}

	if slices.Contains(grant.Scopes, ScopeOpenID) {
		idToken, err := s.issuer.IssueIDToken(token.IDTokenParams{
			Subject:     user.ID,
			Audience:    client.ClientID,
			Nonce:       grant.Nonce,
			AuthTime:    s.now(),
			AccessToken: access.TokenString,
			Claims:      claimsFor(identity, DestinationIDToken),
		})
		if err != nil {
			return nil, oidcError(ErrOIDCServerError, "failed to issue id_token")
		}
		resp.IDToken = idToken
		s.metrics.RecordTokenIssued("id", FlowOIDC, time.Since(start))
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:     models.EventAuthorizationCodeExchanged,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceAuthorization,
		ResourceID:    grant.AuthorizationID,
		Action:        "Authorization code exchanged for token",
		Details:       models.AuditDetails{"client_id": client.ClientID, "scopes": scope},
		Success:       true,
	})
	return resp, nil
}

// UserInfo returns the claims an access token's scopes release.
func (s *OIDCService) UserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	result, err := s.issuer.Validate(ctx, accessToken)
	if err != nil {
		return nil, oidcError(ErrOIDCInvalidToken, "access token is invalid")
	}
	user, err := s.store.GetUserByID(ctx, result.UserID)
	if err != nil || !user.IsActive {
		return nil, oidcError(ErrOIDCInvalidToken, "subject no longer exists")
	}
	roles, err := s.store.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	var granted []string
	if result.Scopes == "" {
		granted = firstPartyScopes
	} else {
		granted = strings.Fields(result.Scopes)
	}
	return claimsFor(identityClaims(user, roles, granted), DestinationUserInfo), nil
}

// Discovery is the OpenID provider metadata document.
func (s *OIDCService) Discovery() map[string]any {
	base := strings.TrimRight(s.config.BaseURL, "/")
	return map[string]any{
		"issuer":                                s.config.JWTIssuer,
		"authorization_endpoint":                base + "/connect/authorize",
		"token_endpoint":                        base + "/connect/token",
		"userinfo_endpoint":                     base + "/connect/userinfo",
		"response_types_supported":              []string{ResponseTypeCode},
		"grant_types_supported":                 []string{GrantTypeAuthorizationCode},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"HS256"},
		"scopes_supported":                      SupportedScopes,
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post", "none"},
		"code_challenge_methods_supported":      []string{PKCEMethodS256, PKCEMethodPlain},
		"claims_supported":                      supportedClaims(),
	}
}

// ListAuthorizations returns userID's valid consent records with client names.
func (s *OIDCService) ListAuthorizations(
	ctx context.Context,
	userID string,
) ([]AuthorizationWithClient, error) {
	auths, err := s.store.ListUserAuthorizations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(auths) == 0 {
		return []AuthorizationWithClient{}, nil
	}

	clientIDs := make([]string, 0, len(auths))
	for _, a := range auths {
		if !slices.Contains(clientIDs, a.ClientID) {
			clientIDs = append(clientIDs, a.ClientID)
		}
	}
	clientMap, err := s.store.GetClientsByIDs(ctx, clientIDs)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load client names for authorizations")
	}

	result := make([]AuthorizationWithClient, 0, len(auths))
	for _, a := range auths {
		name := a.ClientID
		if c, ok := clientMap[a.ClientID]; ok && c != nil {
			name = c.ClientName
		}
		result = append(result, AuthorizationWithClient{OIDCAuthorization: a, ClientName: name})
	}
	return result, nil
}

// RevokeAuthorization revokes userID's authorization id. Codes already issued
// under it can no longer be redeemed.
func (s *OIDCService) RevokeAuthorization(ctx context.Context, id, userID string) error {
	if err := s.store.RevokeAuthorization(ctx, id, userID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventUserAuthorizationRevoked,
		ActorUserID:  userID,
		ResourceType: models.ResourceAuthorization,
		ResourceID:   id,
		Action:       "User revoked authorization for application",
		Success:      true,
	})
	return nil
}

// verifyPKCE checks code_verifier against the stored challenge (RFC 7636).
func verifyPKCE(codeChallenge, method, codeVerifier string) bool {
	if codeVerifier == "" {
		return false
	}
	var computed string
	switch method {
	case PKCEMethodS256:
		sum := sha256.Sum256([]byte(codeVerifier))
		computed = base64.RawURLEncoding.EncodeToString(sum[:])
	case PKCEMethodPlain, "":
		computed = codeVerifier
	default:
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(codeChallenge)) == 1
}

// verifyClientSecret performs bcrypt comparison of the stored hashed client secret.
func verifyClientSecret(hashedSecret, plainSecret string) bool {
	if hashedSecret == "" || plainSecret == "" {
		return false
	}
	app := models.OAuthApplication{ClientSecret: hashedSecret}
	return app.ValidateClientSecret([]byte(plainSecret))
}
