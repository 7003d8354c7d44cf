package bootstrap

import (
	"context"
	"net/http"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/metrics"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/middleware"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const sessionCookieName = "fleet_session"

// healthChecker reports whether a dependency is reachable.
type healthChecker func(ctx context.Context) error

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	svc *serviceSet,
	recorder metrics.Recorder,
	rateLimiters rateLimitMiddlewares,
	dbHealth, cacheHealth healthChecker,
) *gin.Engine {
	setupGinMode(cfg)
	r := gin.New()
	// Handlers pass *gin.Context as the request context.
	r.ContextWithFallback = true

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.Use(util.IPMiddleware())
	setupSessionMiddleware(r, cfg)

	r.GET("/health", createHealthCheckHandler(dbHealth, cacheHealth))
	setupMetricsEndpoint(r, cfg)
	setupAllRoutes(r, h, svc, rateLimiters)

	logServerStartup(cfg)
	return r
}

// setupSessionMiddleware configures the cookie session that remembers the
// OIDC login between authorize requests.
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Info().Msg("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Info().Msg("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Info().Msg("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	h handlerSet,
	svc *serviceSet,
	rateLimiters rateLimitMiddlewares,
) {
	authed := middleware.RequireToken(svc.issuer, svc.users)
	admin := middleware.RequireAdmin()
	csrf := middleware.CSRFMiddleware()

	// Password login and second factor
	r.POST("/login", rateLimiters.login, h.auth.Login)
	r.POST("/logout", h.auth.Logout)
	r.GET("/twofactor/status", authed, h.auth.TwoFactorStatus)

	totp := r.Group("/totp")
	{
		totp.POST("/setup", authed, h.totp.Setup)
		totp.POST("/verify", authed, h.totp.Verify)
		totp.POST("/disable", authed, h.totp.Disable)
		totp.POST("/validate", rateLimiters.twoFactor, h.totp.Validate)
	}

	webauthn := r.Group("/webauthn")
	{
		webauthn.POST("/register/options", authed, h.webauthn.RegisterOptions)
		webauthn.POST("/register/complete", authed, h.webauthn.RegisterComplete)
		webauthn.POST("/login/options", rateLimiters.login, h.webauthn.LoginOptions)
		webauthn.POST("/login/complete", rateLimiters.login, h.webauthn.LoginComplete)
		webauthn.POST("/validate", rateLimiters.twoFactor, h.webauthn.Validate)
		webauthn.GET("/credentials", authed, h.webauthn.ListCredentials)
		webauthn.DELETE("/credentials/:id", authed, h.webauthn.DeleteCredential)
	}

	// Passwordless
	r.POST("/magic-link/send", rateLimiters.magicLink, h.magicLink.Send)
	r.GET("/validate-magic-link", h.magicLink.Check)
	r.POST("/validate-magic-link", rateLimiters.login, h.magicLink.Redeem)

	qr := r.Group("/qr")
	{
		qr.GET("/direct/generate", h.qr.GenerateDirect)
		qr.POST("/direct/login", authed, h.qr.DirectLogin)
		qr.GET("/direct/check", h.qr.CheckDirect)
		qr.GET("/generate", authed, h.qr.Generate)
		qr.POST("/login", rateLimiters.login, h.qr.Login)
	}

	// OpenID Connect
	r.GET("/.well-known/openid-configuration", h.oidc.Discovery)
	connect := r.Group("/connect")
	{
		connect.GET("/authorize", h.oidc.Authorize)
		connect.POST("/authorize", h.oidc.Authorize)
		connect.GET("/login", csrf, h.oidc.LoginPage)
		connect.POST("/login", csrf, h.oidc.LoginCallback)
		connect.POST("/token", rateLimiters.token, h.oidc.Token)
		connect.GET("/userinfo", h.oidc.UserInfo)
		connect.POST("/userinfo", h.oidc.UserInfo)
		connect.GET("/authorizations", authed, h.oidc.ListAuthorizations)
		connect.POST("/authorizations/:id/revoke", authed, h.oidc.RevokeAuthorization)
	}

	clientAdmin := r.Group("/connect", authed, admin)
	{
		clientAdmin.POST("/registerclient", h.client.Register)
		clientAdmin.PUT("/update-client/:clientId", h.client.Update)
		clientAdmin.DELETE("/delete-client/:clientId", h.client.Delete)
		clientAdmin.GET("/clients", h.client.List)
		clientAdmin.GET("/clients/:clientId", h.client.Get)
		clientAdmin.POST("/clients/:clientId/secret", h.client.RegenerateSecret)
	}

	auditAdmin := r.Group("/admin/audit", authed, admin)
	{
		auditAdmin.GET("", h.audit.ListAuditLogs)
		auditAdmin.GET("/stats", h.audit.GetAuditLogStats)
	}
}

// createHealthCheckHandler reports database and cache reachability
func createHealthCheckHandler(dbHealth, cacheHealth healthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":   "healthy",
			"database": "connected",
			"cache":    "connected",
		}
		if err := dbHealth(c); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["database"] = "disconnected"
		}
		if cacheHealth != nil {
			if err := cacheHealth(c); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body["cache"] = "disconnected"
			}
		}
		c.JSON(status, body)
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	gin.SetMode(ginModeMap[cfg.IsProduction])
	log.Info().Str("mode", ginModeLogMessage[cfg.IsProduction]).Msg("Gin mode")
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Info().
		Str("addr", cfg.ServerAddr).
		Str("base_url", cfg.BaseURL).
		Str("auth_mode", cfg.AuthMode).
		Str("mail_mode", cfg.MailMode).
		Msg("Identity server starting")
	log.Info().Msgf("OIDC discovery: %s/.well-known/openid-configuration", cfg.BaseURL)
	log.Info().Msg("Default user: admin (check logs for password if first run)")
}
