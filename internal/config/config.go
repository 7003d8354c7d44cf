package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Authentication mode constants
const (
	AuthModeLocal   = "local"
	AuthModeHTTPAPI = "http_api"
)

// Mail dispatch mode constants
const (
	MailModeLog     = "log"
	MailModeHTTPAPI = "http_api"
)

// Ephemeral cache backends
const (
	CacheTypeMemory     = "memory"
	CacheTypeRedis      = "redis"
	CacheTypeRedisAside = "redis-aside"
)

// Rate limit store backends
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool
	LogLevel     string

	// JWT settings
	JWTSecret     string
	JWTExpiration time.Duration
	JWTIssuer     string
	JWTAudience   string

	// Session settings
	SessionSecret string
	SessionMaxAge int // seconds

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)
	DBInitTimeout  time.Duration

	// Redis (shared by the ephemeral cache and the rate limiter)
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisConnTimeout time.Duration

	// Ephemeral cache
	CacheType        string // "memory", "redis" or "redis-aside"
	CacheKeyPrefix   string
	CacheClientTTL   time.Duration
	CacheSizePerConn int // MB
	CacheInitTimeout time.Duration
	UserCacheTTL     time.Duration // resolved user rows read through the cache

	// Authentication
	AuthMode             string // "local" or "http_api"
	DefaultAdminPassword string // Seeded admin password; random when empty

	// Companion identity-bootstrap API (AUTH_MODE=http_api)
	HTTPAPIURL                string
	HTTPAPITimeout            time.Duration
	HTTPAPIInsecureSkipVerify bool
	HTTPAPIAuthMode           string // "none", "simple" or "hmac"
	HTTPAPIAuthSecret         string
	HTTPAPIAuthHeader         string
	HTTPAPIMaxRetries         int
	HTTPAPIRetryDelay         time.Duration
	HTTPAPIMaxRetryDelay      time.Duration

	// Second factor
	TwoFactorTokenTTL  time.Duration
	TOTPIssuer         string
	TOTPSkew           uint
	TOTPSetupTTL       time.Duration
	AllowTwoFactorSkip bool // honor skipTwoFactor on /login; off outside development

	// WebAuthn
	WebAuthnRPID         string
	WebAuthnRPName       string
	WebAuthnRPOrigins    []string
	WebAuthnChallengeTTL time.Duration

	// Magic link
	MagicLinkTTL      time.Duration
	MagicLinkURL      string
	MailMode          string // "log" or "http_api"
	MailAPIURL        string
	MailAPITimeout    time.Duration
	MailAPIAuthMode   string
	MailAPIAuthSecret string
	MailAPIAuthHeader string
	MailAPIMaxRetries int

	// QR cross-device login
	QRTokenTTL       time.Duration
	QRLoginResultTTL time.Duration
	QRImageSize      int

	// OIDC
	OIDCRequestTTL time.Duration
	AuthCodeTTL    time.Duration
	OIDCLoginURL   string

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	RateLimitCleanupInterval time.Duration
	LoginRateLimit           int // requests per minute
	TwoFactorRateLimit       int
	MagicLinkRateLimit       int
	TokenRateLimit           int

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration

	// Audit
	EnableAuditLogging bool
	AuditLogRetention  time.Duration
	AuditLogBufferSize int

	// Background cleanup of expired single-use rows
	PurgeInterval time.Duration

	// Shutdown
	ServerShutdownTimeout time.Duration
	AuditShutdownTimeout  time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "fleetauth.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      baseURL,
		IsProduction: getEnv("ENVIRONMENT", "development") == "production",
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		JWTSecret:     getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),
		JWTExpiration: getEnvDuration("JWT_EXPIRATION", time.Hour),
		JWTIssuer:     getEnv("JWT_ISSUER", baseURL),
		JWTAudience:   getEnv("JWT_AUDIENCE", "fleetauth"),

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 86400),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),

		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisConnTimeout: getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),

		CacheType:        getEnv("CACHE_TYPE", CacheTypeMemory),
		CacheKeyPrefix:   getEnv("CACHE_KEY_PREFIX", "fleetauth:"),
		CacheClientTTL:   getEnvDuration("CACHE_CLIENT_TTL", 30*time.Second),
		CacheSizePerConn: getEnvInt("CACHE_SIZE_PER_CONN", 32),
		CacheInitTimeout: getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		UserCacheTTL:     getEnvDuration("USER_CACHE_TTL", 5*time.Minute),

		AuthMode:             getEnv("AUTH_MODE", AuthModeLocal),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", ""),

		HTTPAPIURL:                getEnv("HTTP_API_URL", ""),
		HTTPAPITimeout:            getEnvDuration("HTTP_API_TIMEOUT", 10*time.Second),
		HTTPAPIInsecureSkipVerify: getEnvBool("HTTP_API_INSECURE_SKIP_VERIFY", false),
		HTTPAPIAuthMode:           getEnv("HTTP_API_AUTH_MODE", "none"),
		HTTPAPIAuthSecret:         getEnv("HTTP_API_AUTH_SECRET", ""),
		HTTPAPIAuthHeader:         getEnv("HTTP_API_AUTH_HEADER", "X-API-Secret"),
		HTTPAPIMaxRetries:         getEnvInt("HTTP_API_MAX_RETRIES", 3),
		HTTPAPIRetryDelay:         getEnvDuration("HTTP_API_RETRY_DELAY", 1*time.Second),
		HTTPAPIMaxRetryDelay:      getEnvDuration("HTTP_API_MAX_RETRY_DELAY", 10*time.Second),

		TwoFactorTokenTTL:  getEnvDuration("TWO_FACTOR_TOKEN_TTL", 10*time.Minute),
		TOTPIssuer:         getEnv("TOTP_ISSUER", "FleetAuth"),
		TOTPSkew:           uint(getEnvInt("TOTP_SKEW", 1)),
		TOTPSetupTTL:       getEnvDuration("TOTP_SETUP_TTL", 10*time.Minute),
		AllowTwoFactorSkip: getEnvBool("ALLOW_TWO_FACTOR_SKIP", false),

		WebAuthnRPID:         getEnv("WEBAUTHN_RP_ID", "localhost"),
		WebAuthnRPName:       getEnv("WEBAUTHN_RP_NAME", "FleetAuth"),
		WebAuthnRPOrigins:    getEnvSlice("WEBAUTHN_RP_ORIGINS", []string{baseURL}),
		WebAuthnChallengeTTL: getEnvDuration("WEBAUTHN_CHALLENGE_TTL", 5*time.Minute),

		MagicLinkTTL:      getEnvDuration("MAGIC_LINK_TTL", 15*time.Minute),
		MagicLinkURL:      getEnv("MAGIC_LINK_URL", baseURL+"/validate-magic-link"),
		MailMode:          getEnv("MAIL_MODE", MailModeLog),
		MailAPIURL:        getEnv("MAIL_API_URL", ""),
		MailAPITimeout:    getEnvDuration("MAIL_API_TIMEOUT", 10*time.Second),
		MailAPIAuthMode:   getEnv("MAIL_API_AUTH_MODE", "none"),
		MailAPIAuthSecret: getEnv("MAIL_API_AUTH_SECRET", ""),
		MailAPIAuthHeader: getEnv("MAIL_API_AUTH_HEADER", "X-API-Secret"),
		MailAPIMaxRetries: getEnvInt("MAIL_API_MAX_RETRIES", 3),

		QRTokenTTL:       getEnvDuration("QR_TOKEN_TTL", 5*time.Minute),
		QRLoginResultTTL: getEnvDuration("QR_LOGIN_RESULT_TTL", 2*time.Minute),
		QRImageSize:      getEnvInt("QR_IMAGE_SIZE", 256),

		OIDCRequestTTL: getEnvDuration("OIDC_REQUEST_TTL", 10*time.Minute),
		AuthCodeTTL:    getEnvDuration("AUTH_CODE_TTL", 5*time.Minute),
		OIDCLoginURL:   getEnv("OIDC_LOGIN_URL", baseURL+"/connect/login"),

		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		LoginRateLimit:           getEnvInt("LOGIN_RATE_LIMIT", 5),
		TwoFactorRateLimit:       getEnvInt("TWO_FACTOR_RATE_LIMIT", 10),
		MagicLinkRateLimit:       getEnvInt("MAGIC_LINK_RATE_LIMIT", 3),
		TokenRateLimit:           getEnvInt("TOKEN_RATE_LIMIT", 20),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),

		EnableAuditLogging: getEnvBool("ENABLE_AUDIT_LOGGING", true),
		AuditLogRetention:  getEnvDuration("AUDIT_LOG_RETENTION", 90*24*time.Hour),
		AuditLogBufferSize: getEnvInt("AUDIT_LOG_BUFFER_SIZE", 1000),

		PurgeInterval: getEnvDuration("PURGE_INTERVAL", time.Hour),

		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		AuditShutdownTimeout:  getEnvDuration("AUDIT_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate checks enumerated settings and mode-dependent requirements.
func (c *Config) Validate() error {
	switch c.CacheType {
	case CacheTypeMemory, CacheTypeRedis, CacheTypeRedisAside:
	default:
		return fmt.Errorf(
			"invalid CACHE_TYPE value: %q (must be %q, %q or %q)",
			c.CacheType, CacheTypeMemory, CacheTypeRedis, CacheTypeRedisAside,
		)
	}

	if c.EnableRateLimit {
		switch c.RateLimitStore {
		case RateLimitStoreMemory, RateLimitStoreRedis:
		default:
			return fmt.Errorf(
				"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
				c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
			)
		}
	}

	switch c.AuthMode {
	case AuthModeLocal:
	case AuthModeHTTPAPI:
		if c.HTTPAPIURL == "" {
			return errors.New("HTTP_API_URL is required when AUTH_MODE=http_api")
		}
	default:
		return fmt.Errorf("invalid AUTH_MODE: %s (must be: local, http_api)", c.AuthMode)
	}

	switch c.MailMode {
	case MailModeLog:
	case MailModeHTTPAPI:
		if c.MailAPIURL == "" {
			return errors.New("MAIL_API_URL is required when MAIL_MODE=http_api")
		}
	default:
		return fmt.Errorf("invalid MAIL_MODE: %s (must be: log, http_api)", c.MailMode)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.TwoFactorTokenTTL <= 0 || c.AuthCodeTTL <= 0 || c.OIDCRequestTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if len(c.WebAuthnRPOrigins) == 0 {
		return errors.New("WEBAUTHN_RP_ORIGINS must list at least one origin")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if parts := splitAndTrim(value, ","); len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
