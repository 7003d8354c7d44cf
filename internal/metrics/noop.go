package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordAuthAttempt(method string, success bool, duration time.Duration) {}
func (n *NoopMetrics) RecordLogin(method string, success bool)                               {}
func (n *NoopMetrics) RecordExternalAPICall(provider string, duration time.Duration)         {}

func (n *NoopMetrics) RecordTwoFactorChallenge(factor string)                  {}
func (n *NoopMetrics) RecordTwoFactorVerification(factor string, success bool) {}
func (n *NoopMetrics) RecordMagicLink(stage, result string)                    {}
func (n *NoopMetrics) RecordQRLogin(stage, result string)                      {}
func (n *NoopMetrics) RecordTokenValidation(result string)                     {}
func (n *NoopMetrics) RecordOIDCAuthorize(result string)                       {}
func (n *NoopMetrics) RecordOIDCTokenExchange(result string)                   {}
func (n *NoopMetrics) SetActiveOIDCClients(count int)                          {}
func (n *NoopMetrics) SetTwoFactorEnrollment(factor string, count int)         {}
func (n *NoopMetrics) RecordDatabaseQueryError(operation string)               {}

func (n *NoopMetrics) RecordTokenIssued(
	tokenType, flow string,
	generationTime time.Duration,
) {
}
