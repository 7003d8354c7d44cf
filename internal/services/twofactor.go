package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/rs/zerolog/log"
)

// LoginRequest is a password login attempt.
type LoginRequest struct {
	Username      string
	Password      string
	SkipTwoFactor bool
	DeviceInfo    string
	IPAddress     string
}

// LoginResult is either a signed token or a pending second-factor challenge.
type LoginResult struct {
	Token             *core.IssuedToken
	User              *models.User
	RequiresTwoFactor bool
	TwoFactorType     string
	TempToken         string
	WebAuthnOptions   *protocol.CredentialAssertion
}

// TwoFactorStatus summarizes the factors a user has enrolled.
type TwoFactorStatus struct {
	TOTPEnabled         bool `json:"totp_enabled"`
	WebAuthnEnabled     bool `json:"webauthn_enabled"`
	WebAuthnCredentials int  `json:"webauthn_credentials"`
}

// TwoFactorService decides after a password check whether a second factor is
// required, and redeems the pending token once that factor is proven.
type TwoFactorService struct {
	store           *store.Store
	userService     *UserService
	totpService     *TOTPService
	webAuthnService *WebAuthnService
	sessions        *SessionIssuer
	auditService    *AuditService
	metrics         core.Recorder
	pendingTTL      time.Duration
	allowSkip       bool
	now             func() time.Time
}

func NewTwoFactorService(
	s *store.Store,
	userService *UserService,
	totpService *TOTPService,
	webAuthnService *WebAuthnService,
	sessions *SessionIssuer,
	auditService *AuditService,
	m core.Recorder,
	pendingTTL time.Duration,
	allowSkip bool,
) *TwoFactorService {
	return &TwoFactorService{
		store:           s,
		userService:     userService,
		totpService:     totpService,
		webAuthnService: webAuthnService,
		sessions:        sessions,
		auditService:    auditService,
		metrics:         m,
		pendingTTL:      pendingTTL,
		allowSkip:       allowSkip,
		now:             time.Now,
	}
}

// Login verifies the password and either issues a token or returns a
// second-factor challenge bound to a fresh pending token.
func (s *TwoFactorService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	start := time.Now()
	user, err := s.userService.Authenticate(ctx, req.Username, req.Password)
	s.metrics.RecordAuthAttempt(FlowPassword, err == nil, time.Since(start))
	if err != nil {
		s.metrics.RecordLogin(FlowPassword, false)
		s.auditService.Log(ctx, AuditLogEntry{
			EventType:     models.EventAuthenticationFailure,
			Severity:      models.SeverityWarning,
			ActorUsername: req.Username,
			ResourceType:  models.ResourceUser,
			ResourceName:  req.Username,
			Action:        "Password login failed",
			Success:       false,
			ErrorMessage:  err.Error(),
		})
		return nil, err
	}

	settings, err := s.store.GetTwoFactorSettings(ctx, user.ID)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		// No row yet means no factor was ever enabled. If the default row
		// cannot be written the login still proceeds without a second factor.
		if _, err := s.store.EnsureTwoFactorSettings(ctx, user.ID); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID).Msg("could not create two-factor settings, continuing without second factor")
		}
		return s.issue(ctx, user, FlowPassword)
	case err != nil:
		s.metrics.RecordDatabaseQueryError("get_two_factor_settings")
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	skip := req.SkipTwoFactor && s.allowSkip
	switch {
	case settings.TOTPEnabled && !skip:
		tempToken, err := s.createPendingToken(ctx, user, models.FactorTOTP, req)
		if err != nil {
			return nil, err
		}
		return &LoginResult{
			User:              user,
			RequiresTwoFactor: true,
			TwoFactorType:     models.FactorTOTP,
			TempToken:         tempToken,
		}, nil

	case settings.WebAuthnEnabled && !skip:
		creds, err := s.webAuthnService.ListCredentials(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		if len(creds) == 0 {
			return nil, ErrNoCredentials
		}
		tempToken, err := s.createPendingToken(ctx, user, models.FactorWebAuthn, req)
		if err != nil {
			return nil, err
		}
		options, err := s.webAuthnService.BeginTwoFactor(ctx, user, tempToken)
		if err != nil {
			return nil, err
		}
		return &LoginResult{
			User:              user,
			RequiresTwoFactor: true,
			TwoFactorType:     models.FactorWebAuthn,
			TempToken:         tempToken,
			WebAuthnOptions:   options,
		}, nil
	}

	return s.issue(ctx, user, FlowPassword)
}

func (s *TwoFactorService) createPendingToken(
	ctx context.Context,
	user *models.User,
	factor string,
	req LoginRequest,
) (string, error) {
	tempToken, err := util.RandomToken(32)
	if err != nil {
		return "", fmt.Errorf("generate temp token: %w", err)
	}
	pending := &models.PendingTwoFactorToken{
		TokenHash:  util.SHA256Hex(tempToken),
		UserID:     user.ID,
		Factor:     factor,
		DeviceInfo: req.DeviceInfo,
		IPAddress:  req.IPAddress,
		ExpiresAt:  s.now().Add(s.pendingTTL),
	}
	if err := s.store.CreatePendingTwoFactorToken(ctx, pending); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	s.metrics.RecordTwoFactorChallenge(factor)
	s.auditService.Log(ctx, AuditLogEntry{
		EventType:     models.EventTwoFactorChallenged,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceUser,
		ResourceID:    user.ID,
		Action:        "Second factor required",
		Details:       models.AuditDetails{"factor": factor},
		Success:       true,
	})
	return tempToken, nil
}

// loadPending resolves an unexpired, unused pending token for factor and its user.
func (s *TwoFactorService) loadPending(
	ctx context.Context,
	tempToken, factor string,
) (*models.PendingTwoFactorToken, *models.User, error) {
	if tempToken == "" {
		return nil, nil, ErrInvalidOrExpiredToken
	}
	pending, err := s.store.GetPendingTwoFactorToken(ctx, util.SHA256Hex(tempToken))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, nil, ErrInvalidOrExpiredToken
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if pending.Used || pending.IsExpired(s.now()) || pending.Factor != factor {
		return nil, nil, ErrInvalidOrExpiredToken
	}

	user, err := s.userService.GetActiveUser(ctx, pending.UserID)
	if err != nil {
		if errors.Is(err, ErrUpstreamUnavailable) {
			return nil, nil, err
		}
		return nil, nil, ErrInvalidOrExpiredToken
	}
	return pending, user, nil
}

// consume marks the pending token used; a concurrent redemption loses.
func (s *TwoFactorService) consume(ctx context.Context, pending *models.PendingTwoFactorToken) error {
	err := s.store.ConsumePendingTwoFactorToken(ctx, pending.TokenHash, s.now())
	if errors.Is(err, store.ErrAlreadyConsumed) {
		return ErrInvalidOrExpiredToken
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}

func (s *TwoFactorService) recordFailure(ctx context.Context, user *models.User, factor string) {
	s.metrics.RecordTwoFactorVerification(factor, false)
	s.auditService.Log(ctx, AuditLogEntry{
		EventType:     models.EventTwoFactorFailed,
		Severity:      models.SeverityWarning,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceUser,
		ResourceID:    user.ID,
		Action:        "Second factor rejected",
		Details:       models.AuditDetails{"factor": factor},
		Success:       false,
	})
}

// VerifyTOTP redeems tempToken with a TOTP code. A wrong code leaves the
// pending token usable until it expires.
func (s *TwoFactorService) VerifyTOTP(ctx context.Context, tempToken, code string) (*LoginResult, error) {
	pending, user, err := s.loadPending(ctx, tempToken, models.FactorTOTP)
	if err != nil {
		return nil, err
	}

	if err := s.totpService.VerifyUserCode(ctx, user.ID, code); err != nil {
		s.recordFailure(ctx, user, models.FactorTOTP)
		return nil, err
	}

	if err := s.consume(ctx, pending); err != nil {
		return nil, err
	}
	s.metrics.RecordTwoFactorVerification(models.FactorTOTP, true)
	s.logVerified(ctx, user, models.FactorTOTP)
	return s.issue(ctx, user, FlowTOTP)
}

// ValidateWebAuthn redeems tempToken with a WebAuthn assertion made against
// the options returned by Login.
func (s *TwoFactorService) ValidateWebAuthn(
	ctx context.Context,
	tempToken string,
	assertion []byte,
) (*LoginResult, error) {
	pending, user, err := s.loadPending(ctx, tempToken, models.FactorWebAuthn)
	if err != nil {
		return nil, err
	}

	if err := s.webAuthnService.VerifyTwoFactor(ctx, user, tempToken, assertion); err != nil {
		s.recordFailure(ctx, user, models.FactorWebAuthn)
		return nil, err
	}

	if err := s.consume(ctx, pending); err != nil {
		return nil, err
	}
	s.metrics.RecordTwoFactorVerification(models.FactorWebAuthn, true)
	s.logVerified(ctx, user, models.FactorWebAuthn)
	return s.issue(ctx, user, FlowWebAuthn)
}

func (s *TwoFactorService) logVerified(ctx context.Context, user *models.User, factor string) {
	s.auditService.Log(ctx, AuditLogEntry{
		EventType:     models.EventTwoFactorVerified,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceUser,
		ResourceID:    user.ID,
		Action:        "Second factor verified",
		Details:       models.AuditDetails{"factor": factor},
		Success:       true,
	})
}

func (s *TwoFactorService) issue(ctx context.Context, user *models.User, flow string) (*LoginResult, error) {
	tok, err := s.sessions.Issue(ctx, user, flow, nil)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, User: user}, nil
}

// Status reports userID's enrolled second factors.
func (s *TwoFactorService) Status(ctx context.Context, userID string) (*TwoFactorStatus, error) {
	settings, err := s.store.EnsureTwoFactorSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	creds, err := s.webAuthnService.ListCredentials(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return &TwoFactorStatus{
		TOTPEnabled:         settings.TOTPEnabled,
		WebAuthnEnabled:     settings.WebAuthnEnabled,
		WebAuthnCredentials: len(creds),
	}, nil
}
