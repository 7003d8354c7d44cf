package services

import (
	"context"
	"testing"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/auth"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/cache"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/metrics"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/token"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct horse battery staple"

func testServiceConfig() *config.Config {
	return &config.Config{
		BaseURL:              "http://localhost:8080",
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

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), "sqlite", ":memory:", &config.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// makeTestUser creates an active local user whose password is testPassword.
func makeTestUser(t *testing.T, db *store.Store) *models.User {
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
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

// testEnv wires every service against one in-memory store and memory caches.
type testEnv struct {
	cfg       *config.Config
	store     *store.Store
	issuer    *token.Issuer
	users     *UserService
	sessions  *SessionIssuer
	totp      *TOTPService
	webAuthn  *WebAuthnService
	twoFactor *TwoFactorService
	qr        *QRService
	oidc      *OIDCService
	clients   *ClientService

	waSessions *cache.MemoryCache[webauthn.SessionData]
	bindings   *cache.MemoryCache[models.QRDeviceBinding]
	results    *cache.MemoryCache[models.QRLoginResult]
	requests   *cache.MemoryCache[models.OIDCRequest]
	codes      *cache.MemoryCache[models.AuthorizationCodeGrant]
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testServiceConfig()
	db := setupTestStore(t)
	m := metrics.NewNoopMetrics()
	audit := NewAuditService(db, false, 10)

	env := &testEnv{
		cfg:        cfg,
		store:      db,
		issuer:     token.NewIssuer(cfg, db),
		waSessions: cache.NewMemoryCache[webauthn.SessionData](),
		bindings:   cache.NewMemoryCache[models.QRDeviceBinding](),
		results:    cache.NewMemoryCache[models.QRLoginResult](),
		requests:   cache.NewMemoryCache[models.OIDCRequest](),
		codes:      cache.NewMemoryCache[models.AuthorizationCodeGrant](),
	}

	env.users = NewUserService(
		db, auth.NewLocalAuthProvider(db), nil, config.AuthModeLocal, m,
		cache.NewMemoryCache[models.User](), cfg.UserCacheTTL,
	)
	env.sessions = NewSessionIssuer(env.issuer, audit, m)
	env.totp = NewTOTPService(db, cfg, audit)

	wa, err := NewWebAuthnService(db, cfg, env.waSessions, audit, m)
	require.NoError(t, err)
	env.webAuthn = wa

	env.twoFactor = NewTwoFactorService(
		db, env.users, env.totp, env.webAuthn, env.sessions, audit, m,
		cfg.TwoFactorTokenTTL, false,
	)
	env.qr = NewQRService(
		env.users, env.issuer, env.sessions,
		env.bindings, env.results, cache.NewMemoryCache[string](),
		audit, m,
		QRConfig{
			BaseURL:        cfg.BaseURL,
			TokenTTL:       cfg.QRTokenTTL,
			LoginResultTTL: cfg.QRLoginResultTTL,
			ImageSize:      cfg.QRImageSize,
		},
	)
	env.oidc = NewOIDCService(db, cfg, env.requests, env.codes, env.issuer, audit, m)
	env.clients = NewClientService(db, audit, m)
	return env
}
