package services

import (
	"context"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"github.com/rs/zerolog/log"
)

// Login flows, used as metric labels and audit details.
const (
	FlowPassword  = "password"
	FlowTOTP      = "totp"
	FlowWebAuthn  = "webauthn"
	FlowPasskey   = "passkey"
	FlowMagicLink = "magic_link"
	FlowQRSession = "qr_session"
	FlowQRDirect  = "qr_direct"
	FlowOIDC      = "oidc"
)

// SessionIssuer is the last step of every login flow: it signs the bearer
// token for a user whose credentials are fully verified.
type SessionIssuer struct {
	issuer       core.TokenIssuer
	auditService *AuditService
	metrics      core.Recorder
}

func NewSessionIssuer(issuer core.TokenIssuer, auditService *AuditService, m core.Recorder) *SessionIssuer {
	return &SessionIssuer{issuer: issuer, auditService: auditService, metrics: m}
}

// Issue signs an access token for user and records the login.
func (s *SessionIssuer) Issue(
	ctx context.Context,
	user *models.User,
	flow string,
	extra map[string]any,
) (*core.IssuedToken, error) {
	start := time.Now()
	tok, err := s.issuer.Issue(ctx, user.ID, extra)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Str("flow", flow).Msg("failed to issue access token")
		s.metrics.RecordLogin(flow, false)
		return nil, err
	}
	s.metrics.RecordTokenIssued("access", flow, time.Since(start))
	s.metrics.RecordLogin(flow, true)

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:     models.EventAuthenticationSuccess,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceUser,
		ResourceID:    user.ID,
		ResourceName:  user.Username,
		Action:        "User signed in",
		Details:       models.AuditDetails{"flow": flow},
		Success:       true,
	})
	return tok, nil
}
