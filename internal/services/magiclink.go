package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"github.com/rs/zerolog/log"
)

// MagicLinkService issues and redeems single-use emailed sign-in links.
type MagicLinkService struct {
	store        *store.Store
	mailer       core.Mailer
	sessions     *SessionIssuer
	auditService *AuditService
	metrics      core.Recorder
	ttl          time.Duration
	linkURL      string
	now          func() time.Time
}

func NewMagicLinkService(
	s *store.Store,
	mailer core.Mailer,
	sessions *SessionIssuer,
	auditService *AuditService,
	m core.Recorder,
	ttl time.Duration,
	linkURL string,
) *MagicLinkService {
	return &MagicLinkService{
		store:        s,
		mailer:       mailer,
		sessions:     sessions,
		auditService: auditService,
		metrics:      m,
		ttl:          ttl,
		linkURL:      linkURL,
		now:          time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MagicLinkService) buildLink(token string) string {
	sep := "?"
	if strings.Contains(s.linkURL, "?") {
		sep = "&"
	}
	return s.linkURL + sep + "token=" + url.QueryEscape(token)
}

// Send emails a sign-in link to the account registered under email. An
// unknown or inactive address is not an error, so callers cannot probe
// which addresses have accounts.
func (s *MagicLinkService) Send(ctx context.Context, email, deviceInfo, ip string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			s.metrics.RecordDatabaseQueryError("get_user_by_email")
			return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		s.metrics.RecordMagicLink("send", "unknown_email")
		log.Debug().Str("ip", ip).Msg("magic link requested for unknown email")
		return nil
	}
	if !user.IsActive {
		s.metrics.RecordMagicLink("send", "inactive_user")
		return nil
	}

	token, err := util.RandomToken(32)
	if err != nil {
		return fmt.Errorf("generate magic link token: %w", err)
	}
	expiresAt := s.now().Add(s.ttl)
	if err := s.store.CreateMagicLinkToken(ctx, &models.MagicLinkToken{
		TokenHash:  util.SHA256Hex(token),
		UserID:     user.ID,
		Email:      email,
		DeviceInfo: deviceInfo,
		IPAddress:  ip,
		ExpiresAt:  expiresAt,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	err = s.mailer.SendMagicLink(ctx, core.MagicLinkMessage{
		To:        email,
		Username:  user.Username,
		Link:      s.buildLink(token),
		ExpiresAt: expiresAt,
		Device:    deviceInfo,
		IP:        ip,
	})
	if err != nil {
		log.Error().Err(err).Str("mailer", s.mailer.Name()).Str("user_id", user.ID).Msg("failed to send magic link")
		s.metrics.RecordMagicLink("send", "mail_error")
		return ErrUpstreamUnavailable
	}

	s.metrics.RecordMagicLink("send", "sent")
	s.auditService.Log(ctx, AuditLogEntry{
		EventType:     models.EventMagicLinkSent,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceUser,
		ResourceID:    user.ID,
		Action:        "Magic link sent",
		Details:       models.AuditDetails{"device": deviceInfo},
		Success:       true,
	})
	return nil
}

// Validate resolves the user behind token without consuming it.
func (s *MagicLinkService) Validate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidOrExpiredToken
	}
	link, err := s.store.GetMagicLinkToken(ctx, util.SHA256Hex(token))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			s.metrics.RecordMagicLink("validate", "not_found")
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if link.Used || link.IsExpired(s.now()) {
		s.metrics.RecordMagicLink("validate", "expired")
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := s.store.GetUserByID(ctx, link.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidOrExpiredToken
	}
	return user, nil
}

// MarkUsed consumes token. Of concurrent callers exactly one succeeds.
func (s *MagicLinkService) MarkUsed(ctx context.Context, token string) error {
	err := s.store.ConsumeMagicLinkToken(ctx, util.SHA256Hex(token), s.now())
	if errors.Is(err, store.ErrAlreadyConsumed) {
		s.metrics.RecordMagicLink("redeem", "already_used")
		return ErrInvalidOrExpiredToken
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}

// Redeem validates and consumes token and signs the user in.
func (s *MagicLinkService) Redeem(ctx context.Context, token string) (*LoginResult, error) {
	user, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.MarkUsed(ctx, token); err != nil {
		return nil, err
	}
	s.metrics.RecordMagicLink("redeem", "success")

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:     models.EventMagicLinkRedeemed,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceUser,
		ResourceID:    user.ID,
		Action:        "Magic link redeemed",
		Success:       true,
	})

	tok, err := s.sessions.Issue(ctx, user, FlowMagicLink, nil)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, User: user}, nil
}
