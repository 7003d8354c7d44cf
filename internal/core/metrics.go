package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Authentication
	RecordAuthAttempt(method string, success bool, duration time.Duration)
	RecordLogin(method string, success bool)
	RecordExternalAPICall(provider string, duration time.Duration)

	// Second factor
	RecordTwoFactorChallenge(factor string)
	RecordTwoFactorVerification(factor string, success bool)

	// Single-use flows
	RecordMagicLink(stage, result string)
	RecordQRLogin(stage, result string)

	// Token Operations
	RecordTokenIssued(tokenType, flow string, generationTime time.Duration)
	RecordTokenValidation(result string)

	// OIDC
	RecordOIDCAuthorize(result string)
	RecordOIDCTokenExchange(result string)

	// Gauge Setters (for periodic updates)
	SetActiveOIDCClients(count int)
	SetTwoFactorEnrollment(factor string, count int)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// MetricsStore defines the DB operations needed by the gauge updater.
type MetricsStore interface {
	CountActiveClients() (int64, error)
	CountTOTPEnabledUsers() (int64, error)
	CountActiveWebAuthnCredentials() (int64, error)
}
