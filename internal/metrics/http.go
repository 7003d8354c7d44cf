package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m Recorder) gin.HandlerFunc {
	// If NoopMetrics, return a lightweight middleware that does nothing
	if _, ok := m.(*NoopMetrics); ok {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	// Type assert to concrete Metrics for Prometheus access
	metrics, ok := m.(*Metrics)
	if !ok {
		// Fallback if unknown implementation
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		// Increment in-flight counter
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		// Process request
		c.Next()

		// Record metrics after request completes
		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := normalizePath(c.FullPath()) // Use route pattern, not actual path
		status := strconv.Itoa(c.Writer.Status())

		// Record request count
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()

		// Record request duration
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// normalizePath converts the actual request path to route pattern
// Returns the route pattern (e.g., "/users/:id") or the path itself if no match
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

func outcome(success bool) string {
	if success {
		return resultSuccess
	}
	return resultFailure
}

// RecordAuthAttempt records a password verification against a provider
func (m *Metrics) RecordAuthAttempt(method string, success bool, duration time.Duration) {
	m.AuthAttemptsTotal.WithLabelValues(method, outcome(success)).Inc()
	m.AuthLoginDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordLogin records a completed (or failed) login by credential method
func (m *Metrics) RecordLogin(method string, success bool) {
	m.AuthLoginTotal.WithLabelValues(method, outcome(success)).Inc()
}

// RecordExternalAPICall records external API call duration
func (m *Metrics) RecordExternalAPICall(provider string, duration time.Duration) {
	m.AuthExternalAPIDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordTwoFactorChallenge(factor string) {
	m.TwoFactorChallengesTotal.WithLabelValues(factor).Inc()
}

func (m *Metrics) RecordTwoFactorVerification(factor string, success bool) {
	m.TwoFactorVerificationsTotal.WithLabelValues(factor, outcome(success)).Inc()
}

func (m *Metrics) RecordMagicLink(stage, result string) {
	m.MagicLinkTotal.WithLabelValues(stage, result).Inc()
}

func (m *Metrics) RecordQRLogin(stage, result string) {
	m.QRLoginTotal.WithLabelValues(stage, result).Inc()
}

// RecordTokenIssued records token issuance
func (m *Metrics) RecordTokenIssued(tokenType, flow string, generationTime time.Duration) {
	m.TokensIssuedTotal.WithLabelValues(tokenType, flow).Inc()
	m.TokenGenerationDuration.WithLabelValues(tokenType).Observe(generationTime.Seconds())
}

// RecordTokenValidation records token validation
func (m *Metrics) RecordTokenValidation(result string) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordOIDCAuthorize(result string) {
	m.OIDCAuthorizeTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordOIDCTokenExchange(result string) {
	m.OIDCTokenExchangeTotal.WithLabelValues(result).Inc()
}

// SetActiveOIDCClients sets the active client gauge (periodic update)
func (m *Metrics) SetActiveOIDCClients(count int) {
	m.OIDCClientsActive.Set(float64(count))
}

// SetTwoFactorEnrollment sets the enrollment gauge for a factor (periodic update)
func (m *Metrics) SetTwoFactorEnrollment(factor string, count int) {
	m.TwoFactorEnrolled.WithLabelValues(factor).Set(float64(count))
}

// RecordDatabaseQueryError records a database query error during metric collection
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
