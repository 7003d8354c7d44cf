package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/auth"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/cache"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/metrics"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/middleware"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/mocks"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/token"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct horse battery staple"

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:              "http://localhost:8080",
		SessionSecret:        "0123456789abcdef0123456789abcdef",
		JWTSecret:            "test-secret-key-for-jwt-signing",
		JWTExpiration:        time.Hour,
		JWTIssuer:            "http://localhost:8080",
		JWTAudience:          "fleetauth",
		AuthMode:             config.AuthModeLocal,
		UserCacheTTL:         time.Minute,
		TwoFactorTokenTTL:    10 * time.Minute,
		TOTPIssuer:           "FleetAuth",
		TOTPSkew:             1,
		WebAuthnRPID:         "localhost",
		WebAuthnRPName:       "FleetAuth",
		WebAuthnRPOrigins:    []string{"http://localhost:8080"},
		WebAuthnChallengeTTL: 5 * time.Minute,
		MagicLinkTTL:         15 * time.Minute,
		MagicLinkURL:         "http://localhost:8080/validate-magic-link",
		QRTokenTTL:           5 * time.Minute,
		QRLoginResultTTL:     2 * time.Minute,
		QRImageSize:          128,
		OIDCRequestTTL:       10 * time.Minute,
		AuthCodeTTL:          5 * time.Minute,
		OIDCLoginURL:         "http://localhost:8080/connect/login",
	}
}

// testEnv is the full handler stack over an in-memory store and memory caches.
type testEnv struct {
	cfg     *config.Config
	store   *store.Store
	issuer  *token.Issuer
	clients *services.ClientService
	mailer  *mocks.MockMailer
	router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	db, err := store.New(context.Background(), "sqlite", ":memory:", &config.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := metrics.NewNoopMetrics()
	audit := services.NewAuditService(db, false, 10)
	issuer := token.NewIssuer(cfg, db)
	users := services.NewUserService(
		db, auth.NewLocalAuthProvider(db), nil, config.AuthModeLocal, m,
		cache.NewMemoryCache[models.User](), cfg.UserCacheTTL,
	)
	sessionIssuer := services.NewSessionIssuer(issuer, audit, m)
	totpService := services.NewTOTPService(db, cfg, audit)
	webAuthn, err := services.NewWebAuthnService(
		db, cfg, cache.NewMemoryCache[webauthn.SessionData](), audit, m,
	)
	require.NoError(t, err)
	twoFactor := services.NewTwoFactorService(
		db, users, totpService, webAuthn, sessionIssuer, audit, m,
		cfg.TwoFactorTokenTTL, false,
	)

	mailer := mocks.NewMockMailer(gomock.NewController(t))
	mailer.EXPECT().Name().Return("mock").AnyTimes()
	magicLinks := services.NewMagicLinkService(
		db, mailer, sessionIssuer, audit, m, cfg.MagicLinkTTL, cfg.MagicLinkURL,
	)
	qr := services.NewQRService(
		users, issuer, sessionIssuer,
		cache.NewMemoryCache[models.QRDeviceBinding](),
		cache.NewMemoryCache[models.QRLoginResult](),
		cache.NewMemoryCache[string](),
		audit, m,
		services.QRConfig{
			BaseURL:        cfg.BaseURL,
			TokenTTL:       cfg.QRTokenTTL,
			LoginResultTTL: cfg.QRLoginResultTTL,
			ImageSize:      cfg.QRImageSize,
		},
	)
	oidc := services.NewOIDCService(
		db, cfg,
		cache.NewMemoryCache[models.OIDCRequest](),
		cache.NewMemoryCache[models.AuthorizationCodeGrant](),
		issuer, audit, m,
	)
	clients := services.NewClientService(db, audit, m)

	authHandler := NewAuthHandler(twoFactor, audit, cfg)
	totpHandler := NewTOTPHandler(totpService, twoFactor)
	webAuthnHandler := NewWebAuthnHandler(webAuthn, twoFactor, sessionIssuer)
	magicLinkHandler := NewMagicLinkHandler(magicLinks)
	qrHandler := NewQRHandler(qr)
	oidcHandler := NewOIDCHandler(oidc, clients, users, issuer)
	clientHandler := NewClientHandler(clients)
	auditHandler := NewAuditHandler(audit)

	r := gin.New()
	r.ContextWithFallback = true
	r.Use(util.IPMiddleware())
	r.Use(sessions.Sessions("fleet_session", cookie.NewStore([]byte(cfg.SessionSecret))))

	authed := middleware.RequireToken(issuer, users)
	admin := middleware.RequireAdmin()
	csrf := middleware.CSRFMiddleware()

	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.GET("/twofactor/status", authed, authHandler.TwoFactorStatus)

	r.POST("/totp/setup", authed, totpHandler.Setup)
	r.POST("/totp/verify", authed, totpHandler.Verify)
	r.POST("/totp/disable", authed, totpHandler.Disable)
	r.POST("/totp/validate", totpHandler.Validate)

	r.POST("/webauthn/register/options", authed, webAuthnHandler.RegisterOptions)
	r.POST("/webauthn/register/complete", authed, webAuthnHandler.RegisterComplete)
	r.POST("/webauthn/login/options", webAuthnHandler.LoginOptions)
	r.POST("/webauthn/login/complete", webAuthnHandler.LoginComplete)
	r.POST("/webauthn/validate", webAuthnHandler.Validate)
	r.GET("/webauthn/credentials", authed, webAuthnHandler.ListCredentials)
	r.DELETE("/webauthn/credentials/:id", authed, webAuthnHandler.DeleteCredential)

	r.POST("/magic-link/send", magicLinkHandler.Send)
	r.GET("/validate-magic-link", magicLinkHandler.Check)
	r.POST("/validate-magic-link", magicLinkHandler.Redeem)

	r.GET("/qr/direct/generate", qrHandler.GenerateDirect)
	r.POST("/qr/direct/login", authed, qrHandler.DirectLogin)
	r.GET("/qr/direct/check", qrHandler.CheckDirect)
	r.GET("/qr/generate", authed, qrHandler.Generate)
	r.POST("/qr/login", qrHandler.Login)

	r.GET("/.well-known/openid-configuration", oidcHandler.Discovery)
	r.GET("/connect/authorize", oidcHandler.Authorize)
	r.POST("/connect/authorize", oidcHandler.Authorize)
	r.GET("/connect/login", csrf, oidcHandler.LoginPage)
	r.POST("/connect/login", csrf, oidcHandler.LoginCallback)
	r.POST("/connect/token", oidcHandler.Token)
	r.GET("/connect/userinfo", oidcHandler.UserInfo)
	r.POST("/connect/userinfo", oidcHandler.UserInfo)
	r.GET("/connect/authorizations", authed, oidcHandler.ListAuthorizations)
	r.POST("/connect/authorizations/:id/revoke", authed, oidcHandler.RevokeAuthorization)

	clientAdmin := r.Group("/connect", authed, admin)
	clientAdmin.POST("/registerclient", clientHandler.Register)
	clientAdmin.PUT("/update-client/:clientId", clientHandler.Update)
	clientAdmin.DELETE("/delete-client/:clientId", clientHandler.Delete)
	clientAdmin.GET("/clients", clientHandler.List)
	clientAdmin.GET("/clients/:clientId", clientHandler.Get)
	clientAdmin.POST("/clients/:clientId/secret", clientHandler.RegenerateSecret)

	r.GET("/admin/audit", authed, admin, auditHandler.ListAuditLogs)
	r.GET("/admin/audit/stats", authed, admin, auditHandler.GetAuditLogStats)

	return &testEnv{
		cfg:     cfg,
		store:   db,
		issuer:  issuer,
		clients: clients,
		mailer:  mailer,
		router:  r,
	}
}

// createUser stores an active local account whose password is testPassword.
func (e *testEnv) createUser(t *testing.T, roles ...string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	suffix := uuid.New().String()[:8]
	u := &models.User{
		Username:     "user-" + suffix,
		Email:        "user-" + suffix + "@example.com",
		Phone:        "+15550100",
		PasswordHash: string(hash),
		FullName:     "Test User " + suffix,
		IsActive:     true,
		AuthSource:   models.AuthSourceLocal,
	}
	ctx := context.Background()
	require.NoError(t, e.store.CreateUser(ctx, u))
	for _, role := range roles {
		require.NoError(t, e.store.AssignRole(ctx, u.ID, role))
	}
	return u
}

// bearer issues a first-party access token for u.
func (e *testEnv) bearer(t *testing.T, u *models.User) string {
	t.Helper()
	res, err := e.issuer.IssueForUser(context.Background(), u, nil)
	require.NoError(t, err)
	return res.TokenString
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) doJSON(t *testing.T, method, path, bearer string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 && json.Valid(w.Body.Bytes()) {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

type loginData struct {
	Token             string `json:"token"`
	TokenType         string `json:"tokenType"`
	RequiresTwoFactor bool   `json:"requiresTwoFactor"`
	TwoFactorType     string `json:"twoFactorType"`
	TempToken         string `json:"tempToken"`
	User              struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func (e *testEnv) login(t *testing.T, u *models.User) loginData {
	t.Helper()
	w, resp := e.doJSON(t, http.MethodPost, "/login", "", gin.H{
		"username": u.Username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeData[loginData](t, resp)
}
