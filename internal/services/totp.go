package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpPeriod = 30

// TOTPSetup is returned by Setup. The secret is not active until Enable
// sees a valid code for it.
type TOTPSetup struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioningUri"`
	QRCode          string `json:"qrCode"` // data URL, image/png
}

// TOTPService provisions and checks RFC 6238 codes.
type TOTPService struct {
	store        *store.Store
	config       *config.Config
	auditService *AuditService
	now          func() time.Time
}

func NewTOTPService(s *store.Store, cfg *config.Config, auditService *AuditService) *TOTPService {
	return &TOTPService{
		store:        s,
		config:       cfg,
		auditService: auditService,
		now:          time.Now,
	}
}

func (s *TOTPService) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      s.config.TOTPSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Setup generates a fresh secret and provisioning URI for user.
func (s *TOTPService) Setup(ctx context.Context, user *models.User) (*TOTPSetup, error) {
	label := user.Email
	if label == "" {
		label = user.Username
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.config.TOTPIssuer,
		AccountName: label,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	if err := s.store.CreatePendingTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		return nil, fmt.Errorf("store pending secret: %w", err)
	}

	image, err := renderQRDataURL(key.URL(), s.config.QRImageSize)
	if err != nil {
		return nil, fmt.Errorf("render provisioning qr: %w", err)
	}

	return &TOTPSetup{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCode:          image,
	}, nil
}

// VerifyCode checks code against secret at the current time. It has no side effects.
func (s *TOTPService) VerifyCode(secret, code string) bool {
	return s.VerifyCodeAt(secret, code, s.now())
}

// VerifyCodeAt checks code against secret at t, accepting the configured skew
// of adjacent 30 second steps.
func (s *TOTPService) VerifyCodeAt(secret, code string, t time.Time) bool {
	code = strings.TrimSpace(code)
	if secret == "" || len(code) != 6 {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, t.UTC(), s.validateOpts())
	return err == nil && ok
}

// Enable verifies code against secret and makes secret the user's sole active secret.
func (s *TOTPService) Enable(ctx context.Context, userID, code, secret string) error {
	if !s.VerifyCode(secret, code) {
		s.auditService.Log(ctx, AuditLogEntry{
			EventType:    models.EventTwoFactorFailed,
			Severity:     models.SeverityWarning,
			ActorUserID:  userID,
			ResourceType: models.ResourceCredential,
			ResourceID:   userID,
			Action:       "TOTP enable rejected: invalid code",
			Success:      false,
		})
		return ErrInvalidCode
	}

	if err := s.store.ActivateTOTPSecret(ctx, userID, secret); err != nil {
		return fmt.Errorf("activate totp: %w", err)
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventTOTPEnabled,
		ActorUserID:  userID,
		ResourceType: models.ResourceCredential,
		ResourceID:   userID,
		Action:       "TOTP enabled",
		Success:      true,
	})
	return nil
}

// Disable turns TOTP off for userID.
func (s *TOTPService) Disable(ctx context.Context, userID string) error {
	if err := s.store.DisableTOTP(ctx, userID); err != nil {
		return fmt.Errorf("disable totp: %w", err)
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventTOTPDisabled,
		Severity:     models.SeverityWarning,
		ActorUserID:  userID,
		ResourceType: models.ResourceCredential,
		ResourceID:   userID,
		Action:       "TOTP disabled",
		Success:      true,
	})
	return nil
}

// VerifyUserCode checks code against userID's active secret.
func (s *TOTPService) VerifyUserCode(ctx context.Context, userID, code string) error {
	secret, err := s.store.GetActiveTOTPSecret(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrNoSecondFactorConfigured
		}
		return err
	}
	if !s.VerifyCode(secret.Secret, code) {
		return ErrInvalidCode
	}
	return nil
}
