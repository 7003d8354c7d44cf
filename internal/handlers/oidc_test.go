package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testRedirectURI = "https://app.example.com/callback"

func registerTestClient(t *testing.T, env *testEnv, clientType string) *services.ClientResponse {
	t.Helper()
	resp, err := env.clients.Register(context.Background(), services.CreateClientRequest{
		ClientName:   "Dispatch Console",
		Scopes:       "openid profile email roles",
		RedirectURIs: []string{testRedirectURI},
		ClientType:   clientType,
	})
	require.NoError(t, err)
	return resp
}

// browser is a cookie-keeping client that stops at the first redirect.
func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func location(t *testing.T, resp *http.Response) *url.URL {
	t.Helper()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	return loc
}

func TestOIDC_AuthorizationCodeFlow(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	u := env.createUser(t)
	client := registerTestClient(t, env, models.ClientTypeConfidential)

	oauthCfg := &oauth2.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecretPlain,
		RedirectURL:  testRedirectURI,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   srv.URL + "/connect/authorize",
			TokenURL:  srv.URL + "/connect/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	verifier := oauth2.GenerateVerifier()
	authURL := oauthCfg.AuthCodeURL("st-1",
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("nonce", "n-1"),
	)

	b := browser(t)

	// No session: the request is parked and the browser sent to the login page.
	resp, err := b.Get(authURL)
	require.NoError(t, err)
	resp.Body.Close()
	loginLoc := location(t, resp)
	assert.Equal(t, "/connect/login", loginLoc.Path)
	requestID := loginLoc.Query().Get("request_id")
	require.NotEmpty(t, requestID)

	resp, err = b.Get(srv.URL + "/connect/login?request_id=" + url.QueryEscape(requestID))
	require.NoError(t, err)
	var page apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pageData := decodeData[map[string]string](t, page)
	assert.Equal(t, "Dispatch Console", pageData["clientName"])
	require.NotEmpty(t, pageData["csrfToken"])

	// Login callback with a first-party token from password login.
	firstParty := env.login(t, u)
	resp, err = b.PostForm(srv.URL+"/connect/login", url.Values{
		"request_id": {requestID},
		"token":      {firstParty.Token},
		"csrf_token": {pageData["csrfToken"]},
	})
	require.NoError(t, err)
	resp.Body.Close()
	callback := location(t, resp)
	assert.Equal(t, testRedirectURI, callback.Scheme+"://"+callback.Host+callback.Path)
	assert.Equal(t, "st-1", callback.Query().Get("state"))
	code := callback.Query().Get("code")
	require.NotEmpty(t, code)

	ctx := context.Background()
	tok, err := oauthCfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())
	idToken, _ := tok.Extra("id_token").(string)
	assert.NotEmpty(t, idToken)

	// Codes are single-use.
	_, err = oauthCfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	var retrieveErr *oauth2.RetrieveError
	require.True(t, errors.As(err, &retrieveErr))
	assert.Equal(t, "invalid_grant", retrieveErr.ErrorCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/connect/userinfo", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var claims map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&claims))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, u.ID, claims["sub"])
	assert.Equal(t, u.Email, claims["email"])

	// The session now carries the user, so a second authorize goes straight back with a code.
	resp, err = b.Get(oauthCfg.AuthCodeURL("st-2", oauth2.S256ChallengeOption(verifier)))
	require.NoError(t, err)
	resp.Body.Close()
	again := location(t, resp)
	assert.Equal(t, "app.example.com", again.Host)
	assert.NotEmpty(t, again.Query().Get("code"))
	assert.Equal(t, "st-2", again.Query().Get("state"))

	// Both grants reuse one consent record.
	w, list := env.doJSON(t, http.MethodGet, "/connect/authorizations", firstParty.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	auths := decodeData[[]authorizationView](t, list)
	require.Len(t, auths, 1)
	assert.Equal(t, client.ClientID, auths[0].ClientID)
	assert.Equal(t, "Dispatch Console", auths[0].ClientName)

	w, _ = env.doJSON(t, http.MethodPost, "/connect/authorizations/"+auths[0].ID+"/revoke", firstParty.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = env.doJSON(t, http.MethodPost, "/connect/authorizations/"+auths[0].ID+"/revoke", firstParty.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOIDC_LoginCallbackRequiresCSRF(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	u := env.createUser(t)
	client := registerTestClient(t, env, models.ClientTypeConfidential)
	b := browser(t)

	resp, err := b.Get(srv.URL + "/connect/authorize?" + url.Values{
		"client_id":     {client.ClientID},
		"redirect_uri":  {testRedirectURI},
		"response_type": {"code"},
		"scope":         {"openid"},
	}.Encode())
	require.NoError(t, err)
	resp.Body.Close()
	requestID := location(t, resp).Query().Get("request_id")

	resp, err = b.PostForm(srv.URL+"/connect/login", url.Values{
		"request_id": {requestID},
		"token":      {env.bearer(t, u)},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOIDC_AuthorizeErrors(t *testing.T) {
	env := newTestEnv(t)
	client := registerTestClient(t, env, models.ClientTypeConfidential)

	authorize := func(q url.Values) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/connect/authorize?"+q.Encode(), nil))
		return w
	}

	t.Run("unknown client is rendered, not redirected", func(t *testing.T) {
		w := authorize(url.Values{
			"client_id":     {"nope"},
			"redirect_uri":  {testRedirectURI},
			"response_type": {"code"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"invalid_client"`)
	})

	t.Run("unregistered redirect is rendered", func(t *testing.T) {
		w := authorize(url.Values{
			"client_id":     {client.ClientID},
			"redirect_uri":  {"https://evil.example.com/cb"},
			"response_type": {"code"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"invalid_request"`)
	})

	t.Run("bad response type goes back to the client", func(t *testing.T) {
		w := authorize(url.Values{
			"client_id":     {client.ClientID},
			"redirect_uri":  {testRedirectURI},
			"response_type": {"token"},
			"state":         {"xyz"},
		})
		require.Equal(t, http.StatusFound, w.Code)
		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "unsupported_response_type", loc.Query().Get("error"))
		assert.Equal(t, "xyz", loc.Query().Get("state"))
	})

	t.Run("unknown login request", func(t *testing.T) {
		w, _ := env.doJSON(t, http.MethodGet, "/connect/login?request_id=missing", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOIDC_TokenEndpointErrors(t *testing.T) {
	env := newTestEnv(t)
	client := registerTestClient(t, env, models.ClientTypeConfidential)

	post := func(form url.Values, basicUser, basicPass string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/connect/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if basicUser != "" {
			req.SetBasicAuth(basicUser, basicPass)
		}
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	tests := []struct {
		name      string
		form      url.Values
		user      string
		pass      string
		status    int
		errorCode string
	}{
		{
			name:      "unsupported grant",
			form:      url.Values{"grant_type": {"password"}, "client_id": {client.ClientID}, "client_secret": {client.ClientSecretPlain}},
			status:    http.StatusBadRequest,
			errorCode: "unsupported_grant_type",
		},
		{
			name:      "wrong secret",
			form:      url.Values{"grant_type": {"authorization_code"}, "code": {"x"}, "redirect_uri": {testRedirectURI}},
			user:      client.ClientID,
			pass:      "wrong",
			status:    http.StatusUnauthorized,
			errorCode: "invalid_client",
		},
		{
			name:      "unknown code",
			form:      url.Values{"grant_type": {"authorization_code"}, "code": {"x"}, "redirect_uri": {testRedirectURI}},
			user:      client.ClientID,
			pass:      client.ClientSecretPlain,
			status:    http.StatusBadRequest,
			errorCode: "invalid_grant",
		},
		{
			name:      "two authentication methods",
			form:      url.Values{"grant_type": {"authorization_code"}, "client_secret": {client.ClientSecretPlain}},
			user:      client.ClientID,
			pass:      client.ClientSecretPlain,
			status:    http.StatusBadRequest,
			errorCode: "invalid_request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(tt.form, tt.user, tt.pass)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.errorCode, body["error"])
		})
	}
}

func TestOIDC_UserInfoRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.doJSON(t, http.MethodGet, "/connect/userinfo", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "invalid_token")

	w, _ = env.doJSON(t, http.MethodGet, "/connect/userinfo", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"invalid_token"`)
}

func TestOIDC_Discovery(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/.well-known/openid-configuration", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, env.cfg.JWTIssuer, doc["issuer"])
	assert.Contains(t, doc["token_endpoint"], "/connect/token")
	assert.Contains(t, doc["grant_types_supported"], "authorization_code")
}
