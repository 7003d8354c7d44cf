package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAllConfiguration(t *testing.T) {
	valid := func() *config.Config {
		cfg := config.Load()
		cfg.JWTSecret = "a-real-secret"
		cfg.SessionSecret = "another-real-secret"
		return cfg
	}

	require.NoError(t, validateAllConfiguration(valid()))

	cfg := valid()
	cfg.CacheType = "memcached"
	err := validateAllConfiguration(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_TYPE")

	cfg = valid()
	cfg.AuthMode = config.AuthModeHTTPAPI
	cfg.HTTPAPIURL = ""
	err = validateAllConfiguration(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_API_URL is required")
}

func TestValidateSecrets(t *testing.T) {
	dev := &config.Config{JWTSecret: defaultJWTSecret, SessionSecret: "x"}
	assert.NoError(t, validateSecrets(dev))

	prod := &config.Config{IsProduction: true, JWTSecret: "x", SessionSecret: defaultSessionSecret}
	err := validateSecrets(prod)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be changed in production")

	prod.SessionSecret = "y"
	assert.NoError(t, validateSecrets(prod))
}

func TestInitializeMetrics(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		cfg := &config.Config{MetricsEnabled: enabled}
		m := initializeMetrics(cfg)
		require.NotNil(t, m)
	}
}

func TestInitializeCachesMemory(t *testing.T) {
	cfg := &config.Config{
		CacheType:        config.CacheTypeMemory,
		CacheKeyPrefix:   "test:",
		CacheInitTimeout: time.Second,
	}

	caches, err := initializeCaches(t.Context(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, caches.users)
	assert.NotNil(t, caches.webauthn)
	assert.NotNil(t, caches.qrBindings)
	assert.NotNil(t, caches.qrResults)
	assert.NotNil(t, caches.qrSessions)
	assert.NotNil(t, caches.oidcRequests)
	assert.NotNil(t, caches.authCodes)
	assert.Nil(t, caches.metrics, "gauge cache is only opened when gauges are refreshed")
	require.NoError(t, caches.health(t.Context()))

	// Caches are independent namespaces.
	require.NoError(t, caches.qrSessions.Set(t.Context(), "k", "v", time.Minute))
	got, err := caches.qrSessions.Take(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, caches.qrResults.Set(t.Context(), "gone", models.QRLoginResult{}, -time.Second))
	assert.Equal(t, 1, caches.Sweep())

	require.NoError(t, caches.Close())
	assert.NoError(t, caches.Close(), "closing twice is a no-op")

	cfg.MetricsEnabled = true
	cfg.MetricsGaugeUpdateEnabled = true
	caches, err = initializeCaches(t.Context(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, caches.metrics)
	_ = caches.Close()
}

func TestInitializeCachesRedisUnavailable(t *testing.T) {
	cfg := &config.Config{
		CacheType:        config.CacheTypeRedis,
		CacheKeyPrefix:   "test:",
		CacheInitTimeout: 200 * time.Millisecond,
		RedisAddr:        "127.0.0.1:1",
	}
	_, err := initializeCaches(t.Context(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users cache")
}

func TestInitializeHTTPAPIAuthProvider(t *testing.T) {
	provider, err := initializeHTTPAPIAuthProvider(&config.Config{AuthMode: config.AuthModeLocal})
	require.NoError(t, err)
	assert.Nil(t, provider)

	provider, err = initializeHTTPAPIAuthProvider(&config.Config{
		AuthMode:        config.AuthModeHTTPAPI,
		HTTPAPIURL:      "http://auth.example.com/verify",
		HTTPAPIAuthMode: "none",
		HTTPAPITimeout:  time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.Equal(t, "http_api", provider.Name())
}

func TestInitializeMailer(t *testing.T) {
	m, err := initializeMailer(&config.Config{MailMode: config.MailModeLog})
	require.NoError(t, err)
	assert.Equal(t, "log", m.Name())

	m, err = initializeMailer(&config.Config{
		MailMode:        config.MailModeHTTPAPI,
		MailAPIURL:      "http://mail.example.com/send",
		MailAPIAuthMode: "none",
		MailAPITimeout:  time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "http_api", m.Name())
}

func TestSetupRateLimitingDisabled(t *testing.T) {
	limiters, err := setupRateLimiting(&config.Config{EnableRateLimit: false}, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, limiters.login)
	require.NotNil(t, limiters.twoFactor)
	require.NotNil(t, limiters.magicLink)
	require.NotNil(t, limiters.token)

	// Verify noop middlewares don't panic
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	assert.NotPanics(t, func() { limiters.login(c) })
}

func TestSetupRateLimitingMemory(t *testing.T) {
	cfg := &config.Config{
		EnableRateLimit:          true,
		RateLimitStore:           config.RateLimitStoreMemory,
		RateLimitCleanupInterval: time.Minute,
		LoginRateLimit:           5,
		TwoFactorRateLimit:       10,
		MagicLinkRateLimit:       3,
		TokenRateLimit:           20,
	}
	limiters, err := setupRateLimiting(cfg, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, limiters.login)
	require.NotNil(t, limiters.twoFactor)
	require.NotNil(t, limiters.magicLink)
	require.NotNil(t, limiters.token)

	cfg.MagicLinkRateLimit = 0
	_, err = setupRateLimiting(cfg, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "magic_link")
}

func TestHealthCheckHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	tests := []struct {
		name     string
		db       healthChecker
		cache    healthChecker
		status   int
		database string
		cacheMsg string
	}{
		{"healthy", ok, ok, http.StatusOK, "connected", "connected"},
		{"database down", down, ok, http.StatusServiceUnavailable, "disconnected", "connected"},
		{"cache down", ok, down, http.StatusServiceUnavailable, "connected", "disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", createHealthCheckHandler(tt.db, tt.cache))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.database, body["database"])
			assert.Equal(t, tt.cacheMsg, body["cache"])
		})
	}
}

// newTestApplication wires every phase except serving over an in-memory database.
func newTestApplication(t *testing.T) *Application {
	t.Helper()
	cfg := config.Load()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseDSN = ":memory:"
	cfg.CacheType = config.CacheTypeMemory
	cfg.EnableRateLimit = false
	cfg.MetricsEnabled = false
	cfg.EnableAuditLogging = false
	cfg.AuthMode = config.AuthModeLocal
	cfg.MailMode = config.MailModeLog

	app := &Application{Config: cfg}
	require.NoError(t, app.initializeInfrastructure(t.Context()))
	t.Cleanup(app.closeInfrastructure)
	require.NoError(t, app.initializeBusinessLayer())
	require.NoError(t, app.initializeHTTPLayer())
	return app
}

func TestApplicationRoutes(t *testing.T) {
	app := newTestApplication(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/.well-known/openid-configuration", http.StatusOK},
		{http.MethodGet, "/twofactor/status", http.StatusUnauthorized},
		{http.MethodGet, "/connect/clients", http.StatusUnauthorized},
		{http.MethodGet, "/admin/audit", http.StatusUnauthorized},
		{http.MethodGet, "/metrics", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			app.Router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}

	assert.Equal(t, app.Config.ServerAddr, app.Server.Addr)
}

func TestPurgeExpiredRows(t *testing.T) {
	app := newTestApplication(t)
	ctx := t.Context()
	user := &models.User{Username: "purge-user", Email: "purge@example.com", IsActive: true}
	require.NoError(t, app.DB.CreateUser(ctx, user))
	require.NoError(t, app.DB.CreatePendingTOTPSecret(ctx, user.ID, "ABANDONED"))

	purgeExpiredRows(ctx, app.DB, time.Now())
	var n int64
	require.NoError(t, app.DB.DB().Model(&models.TOTPSecret{}).Count(&n).Error)
	assert.Equal(t, int64(1), n, "a fresh setup survives the purge")

	purgeExpiredRows(ctx, app.DB, time.Now().Add(abandonedTOTPSetupAge+time.Minute))
	require.NoError(t, app.DB.DB().Model(&models.TOTPSecret{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRunPeriodically(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	var calls atomic.Int32

	done := make(chan struct{})
	go func() {
		runPeriodically(ctx, 10*time.Millisecond, func(context.Context) {
			if calls.Add(1) == 3 {
				cancel()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runPeriodically did not stop after cancel")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestCreateHTTPServer(t *testing.T) {
	srv := createHTTPServer(
		&config.Config{ServerAddr: ":8080"},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)
	require.NotNil(t, srv)
	assert.Equal(t, ":8080", srv.Addr)
}

func TestGinModeMap(t *testing.T) {
	assert.Equal(t, gin.ReleaseMode, ginModeMap[true])
	assert.Equal(t, gin.DebugMode, ginModeMap[false])
}

func TestErrorLogger(t *testing.T) {
	el := newErrorLogger(time.Hour)
	assert.True(t, el.logIfNeeded("test_op", assert.AnError))
	assert.False(t, el.logIfNeeded("test_op", assert.AnError), "second error inside the window is suppressed")
	assert.True(t, el.logIfNeeded("other_op", assert.AnError))
}
