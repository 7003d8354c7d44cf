package metrics

import (
	"sync"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics interface the services depend on.
type Recorder = core.Recorder

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Authentication Metrics
	AuthAttemptsTotal       *prometheus.CounterVec
	AuthLoginTotal          *prometheus.CounterVec
	AuthLoginDuration       *prometheus.HistogramVec
	AuthExternalAPIDuration *prometheus.HistogramVec

	// Second factor
	TwoFactorChallengesTotal    *prometheus.CounterVec
	TwoFactorVerificationsTotal *prometheus.CounterVec
	TwoFactorEnrolled           *prometheus.GaugeVec

	// Passwordless flows
	MagicLinkTotal *prometheus.CounterVec
	QRLoginTotal   *prometheus.CounterVec

	// Token Metrics
	TokensIssuedTotal       *prometheus.CounterVec
	TokenValidationTotal    *prometheus.CounterVec
	TokenGenerationDuration *prometheus.HistogramVec

	// OIDC
	OIDCAuthorizeTotal     *prometheus.CounterVec
	OIDCTokenExchangeTotal *prometheus.CounterVec
	OIDCClientsActive      prometheus.Gauge

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		AuthAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of password authentication attempts",
			},
			[]string{"method", "result"}, // method: local, http_api
		),
		AuthLoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of completed logins by credential method",
			},
			[]string{"method", "result"}, // password, totp, webauthn, magic_link, qr, oidc
		),
		AuthLoginDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_login_duration_seconds",
				Help:    "Time taken to verify a password",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		AuthExternalAPIDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_external_api_duration_seconds",
				Help:    "Time taken for companion identity service calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		TwoFactorChallengesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_two_factor_challenges_total",
				Help: "Total number of second-factor challenges issued",
			},
			[]string{"factor"},
		),
		TwoFactorVerificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_two_factor_verifications_total",
				Help: "Total number of second-factor verifications",
			},
			[]string{"factor", "result"},
		),
		TwoFactorEnrolled: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "auth_two_factor_enrolled",
				Help: "Current number of users or credentials enrolled per factor",
			},
			[]string{"factor"},
		),

		MagicLinkTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_magic_link_total",
				Help: "Magic link events",
			},
			[]string{"stage", "result"}, // stage: send, redeem
		),
		QRLoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_qr_login_total",
				Help: "Cross-device QR login events",
			},
			[]string{"stage", "result"}, // stage: generate, scan, check
		),

		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokens_issued_total",
				Help: "Total number of tokens issued",
			},
			[]string{"token_type", "flow"},
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_validation_total",
				Help: "Total number of bearer token validations",
			},
			[]string{"result"}, // valid, invalid, expired, malformed
		),
		TokenGenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "token_generation_duration_seconds",
				Help:    "Time taken to build and sign a token",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"token_type"},
		),

		OIDCAuthorizeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oidc_authorize_total",
				Help: "Authorization endpoint outcomes",
			},
			[]string{"result"}, // code_issued, login_required, error
		),
		OIDCTokenExchangeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oidc_token_exchange_total",
				Help: "Token endpoint outcomes",
			},
			[]string{"result"},
		),
		OIDCClientsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "oidc_clients_active",
				Help: "Current number of active OIDC client registrations",
			},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"}, // count_clients, count_totp_users, count_webauthn_credentials
		),
	}
}
