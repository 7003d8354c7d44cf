package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/cache"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/rs/zerolog/log"
)

// webauthnUser adapts a stored user and its active credentials to webauthn.User.
type webauthnUser struct {
	user        *models.User
	credentials []webauthn.Credential
}

func (u *webauthnUser) WebAuthnID() []byte                         { return []byte(u.user.ID) }
func (u *webauthnUser) WebAuthnName() string                       { return u.user.Username }
func (u *webauthnUser) WebAuthnDisplayName() string                { return u.user.DisplayName() }
func (u *webauthnUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// encodeCredentialID is the stored, unpadded base64url form of a credential id.
func encodeCredentialID(id []byte) string {
	return base64.RawURLEncoding.EncodeToString(id)
}

// WebAuthnService runs FIDO2 registration and assertion ceremonies. Ceremony
// state lives in the ephemeral cache keyed by user, username or pending token.
type WebAuthnService struct {
	store        *store.Store
	webAuthn     *webauthn.WebAuthn
	sessions     core.Cache[webauthn.SessionData]
	challengeTTL time.Duration
	auditService *AuditService
	metrics      core.Recorder
	now          func() time.Time
}

func NewWebAuthnService(
	s *store.Store,
	cfg *config.Config,
	sessions core.Cache[webauthn.SessionData],
	auditService *AuditService,
	m core.Recorder,
) (*WebAuthnService, error) {
	// Enforced timeouts stamp SessionData.Expires with the challenge deadline.
	ceremony := webauthn.TimeoutConfig{
		Enforce:    true,
		Timeout:    cfg.WebAuthnChallengeTTL,
		TimeoutUVD: cfg.WebAuthnChallengeTTL,
	}
	wa, err := webauthn.New(&webauthn.Config{
		RPID:          cfg.WebAuthnRPID,
		RPDisplayName: cfg.WebAuthnRPName,
		RPOrigins:     cfg.WebAuthnRPOrigins,
		Timeouts:      webauthn.TimeoutsConfig{Login: ceremony, Registration: ceremony},
	})
	if err != nil {
		return nil, fmt.Errorf("configure webauthn: %w", err)
	}
	return &WebAuthnService{
		store:        s,
		webAuthn:     wa,
		sessions:     sessions,
		challengeTTL: cfg.WebAuthnChallengeTTL,
		auditService: auditService,
		metrics:      m,
		now:          time.Now,
	}, nil
}

func (s *WebAuthnService) loadUser(ctx context.Context, user *models.User) (*webauthnUser, error) {
	rows, err := s.store.ListWebAuthnCredentials(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	creds := make([]webauthn.Credential, 0, len(rows))
	for _, row := range rows {
		var cred webauthn.Credential
		if err := json.Unmarshal([]byte(row.CredentialJSON), &cred); err != nil {
			log.Warn().Err(err).Str("credential_id", row.CredentialID).Msg("skipping unreadable webauthn credential")
			continue
		}
		// The column is authoritative for the replay counter.
		cred.Authenticator.SignCount = row.SignCount
		creds = append(creds, cred)
	}
	return &webauthnUser{user: user, credentials: creds}, nil
}

func (s *WebAuthnService) saveSession(ctx context.Context, key string, session *webauthn.SessionData) error {
	if err := s.sessions.Set(ctx, key, *session, s.challengeTTL); err != nil {
		return fmt.Errorf("store webauthn session: %w", err)
	}
	return nil
}

// takeSession consumes a ceremony session; absent or expired is ErrInvalidOrExpiredToken.
func (s *WebAuthnService) takeSession(ctx context.Context, key string) (webauthn.SessionData, error) {
	session, err := s.sessions.Take(ctx, key)
	if err != nil {
		if cache.IsMiss(err) {
			return session, ErrInvalidOrExpiredToken
		}
		return session, err
	}
	if !session.Expires.IsZero() && s.now().After(session.Expires) {
		return session, ErrInvalidOrExpiredToken
	}
	return session, nil
}

// GetCredentialCreateOptions starts registration for user, excluding
// authenticators that are already registered.
func (s *WebAuthnService) GetCredentialCreateOptions(
	ctx context.Context,
	user *models.User,
) (*protocol.CredentialCreation, error) {
	waUser, err := s.loadUser(ctx, user)
	if err != nil {
		return nil, err
	}

	creation, session, err := s.webAuthn.BeginRegistration(
		waUser,
		webauthn.WithExclusions(webauthn.Credentials(waUser.credentials).CredentialDescriptors()),
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementPreferred),
	)
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}
	if err := s.saveSession(ctx, cache.WebAuthnRegistrationKey(user.ID), session); err != nil {
		return nil, err
	}
	return creation, nil
}

// CompleteRegistration validates the attestation in body and stores the new credential.
func (s *WebAuthnService) CompleteRegistration(
	ctx context.Context,
	user *models.User,
	name string,
	body []byte,
) (*models.WebAuthnCredential, error) {
	session, err := s.takeSession(ctx, cache.WebAuthnRegistrationKey(user.ID))
	if err != nil {
		return nil, err
	}

	parsed, err := protocol.ParseCredentialCreationResponseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	waUser, err := s.loadUser(ctx, user)
	if err != nil {
		return nil, err
	}
	credential, err := s.webAuthn.CreateCredential(waUser, session, parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	encoded, err := json.Marshal(credential)
	if err != nil {
		return nil, fmt.Errorf("encode credential: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Security key"
	}
	row := &models.WebAuthnCredential{
		UserID:         user.ID,
		CredentialID:   encodeCredentialID(credential.ID),
		Name:           name,
		CredentialJSON: string(encoded),
		SignCount:      credential.Authenticator.SignCount,
		Active:         true,
	}
	if err := s.store.CreateWebAuthnCredential(ctx, row); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventWebAuthnRegistered,
		ActorUserID:  user.ID,
		ResourceType: models.ResourceCredential,
		ResourceID:   row.CredentialID,
		ResourceName: row.Name,
		Action:       "WebAuthn credential registered",
		Success:      true,
	})
	return row, nil
}

func (s *WebAuthnService) beginAssertion(
	ctx context.Context,
	user *models.User,
	key string,
) (*protocol.CredentialAssertion, error) {
	waUser, err := s.loadUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(waUser.credentials) == 0 {
		return nil, ErrNoCredentials
	}

	assertion, session, err := s.webAuthn.BeginLogin(waUser)
	if err != nil {
		return nil, fmt.Errorf("begin login: %w", err)
	}
	if err := s.saveSession(ctx, key, session); err != nil {
		return nil, err
	}
	return assertion, nil
}

// finishAssertion verifies body against session and advances the stored
// signature counter. A counter that did not increase is rejected.
func (s *WebAuthnService) finishAssertion(
	ctx context.Context,
	user *models.User,
	session webauthn.SessionData,
	body []byte,
) error {
	parsed, err := protocol.ParseCredentialRequestResponseBytes(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	waUser, err := s.loadUser(ctx, user)
	if err != nil {
		return err
	}
	credential, err := s.webAuthn.ValidateLogin(waUser, session, parsed)
	if err != nil {
		log.Debug().Err(err).Str("user_id", user.ID).Msg("webauthn assertion rejected")
		return ErrInvalidCode
	}

	credentialID := encodeCredentialID(credential.ID)
	if credential.Authenticator.CloneWarning {
		s.reportReplay(ctx, user, credentialID)
		return ErrInvalidCode
	}

	encoded, err := json.Marshal(credential)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	err = s.store.UpdateWebAuthnSignCount(
		ctx,
		credentialID,
		credential.Authenticator.SignCount,
		string(encoded),
		s.now(),
	)
	if errors.Is(err, store.ErrStaleSignCount) {
		s.reportReplay(ctx, user, credentialID)
		return ErrInvalidCode
	}
	return err
}

func (s *WebAuthnService) reportReplay(ctx context.Context, user *models.User, credentialID string) {
	log.Warn().Str("user_id", user.ID).Str("credential_id", credentialID).Msg("webauthn signature counter did not increase")
	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventWebAuthnReplay,
		Severity:     models.SeverityCritical,
		ActorUserID:  user.ID,
		ResourceType: models.ResourceCredential,
		ResourceID:   credentialID,
		Action:       "WebAuthn assertion rejected: signature counter replay",
		Success:      false,
	})
}

// GetAssertionOptions starts a passwordless login for username.
func (s *WebAuthnService) GetAssertionOptions(
	ctx context.Context,
	username string,
) (*protocol.CredentialAssertion, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil || !user.IsActive {
		return nil, ErrAccountNotFound
	}
	return s.beginAssertion(ctx, user, cache.WebAuthnLoginKey(user.Username))
}

// CompleteAssertion finishes a passwordless login and returns the resolved user.
func (s *WebAuthnService) CompleteAssertion(
	ctx context.Context,
	username string,
	body []byte,
) (*models.User, error) {
	session, err := s.takeSession(ctx, cache.WebAuthnLoginKey(username))
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil || !user.IsActive {
		return nil, ErrAccountNotFound
	}

	err = s.finishAssertion(ctx, user, session, body)
	s.metrics.RecordTwoFactorVerification(models.FactorWebAuthn, err == nil)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// BeginTwoFactor issues assertion options bound to a pending second-factor token.
func (s *WebAuthnService) BeginTwoFactor(
	ctx context.Context,
	user *models.User,
	tempToken string,
) (*protocol.CredentialAssertion, error) {
	return s.beginAssertion(ctx, user, cache.WebAuthnTwoFactorKey(tempToken))
}

// VerifyTwoFactor checks an assertion made against the options from BeginTwoFactor.
// The ceremony session is single use: a failed assertion leaves the pending
// token intact but the user has to start the login again for fresh options.
func (s *WebAuthnService) VerifyTwoFactor(
	ctx context.Context,
	user *models.User,
	tempToken string,
	body []byte,
) error {
	session, err := s.takeSession(ctx, cache.WebAuthnTwoFactorKey(tempToken))
	if err != nil {
		return err
	}
	return s.finishAssertion(ctx, user, session, body)
}

// ListCredentials returns the user's active credentials.
func (s *WebAuthnService) ListCredentials(
	ctx context.Context,
	userID string,
) ([]models.WebAuthnCredential, error) {
	return s.store.ListWebAuthnCredentials(ctx, userID)
}

// RemoveCredential deactivates a credential owned by userID.
func (s *WebAuthnService) RemoveCredential(ctx context.Context, userID, credentialID string) error {
	cred, err := s.store.GetWebAuthnCredential(ctx, credentialID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if cred.UserID != userID {
		return ErrForbidden
	}
	if err := s.store.DeactivateWebAuthnCredential(ctx, userID, credentialID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventWebAuthnRemoved,
		Severity:     models.SeverityWarning,
		ActorUserID:  userID,
		ResourceType: models.ResourceCredential,
		ResourceID:   credentialID,
		ResourceName: cred.Name,
		Action:       "WebAuthn credential removed",
		Success:      true,
	})
	return nil
}
