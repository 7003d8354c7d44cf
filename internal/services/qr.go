package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/cache"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/token"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
)

// renderQRDataURL encodes content as a PNG QR code data URL.
func renderQRDataURL(content string, size int) (string, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// QRTokenSigner signs and verifies session QR payloads.
type QRTokenSigner interface {
	IssueQRLoginToken(user *models.User, ttl time.Duration) (string, *token.QRPayload, error)
	ParseQRLoginToken(tokenString string) (*token.QRPayload, error)
}

// SessionQR is a QR code a signed-in user shows to sign another device in.
type SessionQR struct {
	Token     string    `json:"token"`
	QRCode    string    `json:"qrCode"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DirectLoginQR is shown by a device that is not signed in yet. DeviceID is
// what that device polls with; Token is what the scanning device submits.
type DirectLoginQR struct {
	DeviceID  string    `json:"deviceId"`
	Token     string    `json:"token"`
	RawData   string    `json:"rawData"`
	QRCode    string    `json:"qrCode"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// QRConfig holds the coordinator's timing and rendering settings.
type QRConfig struct {
	BaseURL        string
	TokenTTL       time.Duration
	LoginResultTTL time.Duration
	ImageSize      int
}

// QRService coordinates cross-device login. Every hand-off between the two
// devices is a single-use cache entry consumed with Take.
type QRService struct {
	users        *UserService
	signer       QRTokenSigner
	sessions     *SessionIssuer
	bindings     core.Cache[models.QRDeviceBinding]
	results      core.Cache[models.QRLoginResult]
	sessionMarks core.Cache[string]
	auditService *AuditService
	metrics      core.Recorder
	config       QRConfig
	now          func() time.Time
}

func NewQRService(
	users *UserService,
	signer QRTokenSigner,
	sessions *SessionIssuer,
	bindings core.Cache[models.QRDeviceBinding],
	results core.Cache[models.QRLoginResult],
	sessionMarks core.Cache[string],
	auditService *AuditService,
	m core.Recorder,
	cfg QRConfig,
) *QRService {
	return &QRService{
		users:        users,
		signer:       signer,
		sessions:     sessions,
		bindings:     bindings,
		results:      results,
		sessionMarks: sessionMarks,
		auditService: auditService,
		metrics:      m,
		config:       cfg,
		now:          time.Now,
	}
}

// GenerateQRCode creates a signed, single-use QR payload bound to user.
func (s *QRService) GenerateQRCode(ctx context.Context, user *models.User) (*SessionQR, error) {
	signed, payload, err := s.signer.IssueQRLoginToken(user, s.config.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign qr payload: %w", err)
	}
	if err := s.sessionMarks.Set(ctx, cache.QRSessionKey(payload.ID), user.ID, s.config.TokenTTL); err != nil {
		return nil, fmt.Errorf("store qr session: %w", err)
	}

	image, err := renderQRDataURL(signed, s.config.ImageSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	s.metrics.RecordQRLogin("session_generate", "success")
	return &SessionQR{Token: signed, QRCode: image, ExpiresAt: payload.ExpiresAt}, nil
}

// AuthenticateDirectQR redeems a session QR payload for username.
func (s *QRService) AuthenticateDirectQR(
	ctx context.Context,
	username, qrToken string,
) (*LoginResult, error) {
	payload, err := s.signer.ParseQRLoginToken(qrToken)
	if err != nil {
		s.metrics.RecordQRLogin("session_login", "invalid")
		return nil, ErrInvalidOrExpiredToken
	}
	if !strings.EqualFold(payload.Username, username) {
		s.metrics.RecordQRLogin("session_login", "user_mismatch")
		return nil, ErrInvalidOrExpiredToken
	}

	boundUserID, err := s.sessionMarks.Take(ctx, cache.QRSessionKey(payload.ID))
	if err != nil || boundUserID != payload.UserID {
		s.metrics.RecordQRLogin("session_login", "consumed")
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := s.users.GetActiveUser(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, ErrUpstreamUnavailable) {
			return nil, err
		}
		return nil, ErrInvalidOrExpiredToken
	}

	tok, err := s.sessions.Issue(ctx, user, FlowQRSession, nil)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordQRLogin("session_login", "success")
	s.logCompleted(ctx, user, "", FlowQRSession)
	return &LoginResult{Token: tok, User: user}, nil
}

// GenerateDirectLoginQRCode starts a direct login for an unauthenticated
// device. username, when set, restricts which account may complete it.
func (s *QRService) GenerateDirectLoginQRCode(
	ctx context.Context,
	username, deviceType string,
) (*DirectLoginQR, error) {
	deviceType = strings.TrimSpace(deviceType)
	if deviceType == "" {
		return nil, ErrInvalidInput
	}

	loginToken, err := util.RandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate qr token: %w", err)
	}
	expiresAt := s.now().Add(s.config.TokenTTL)
	binding := models.QRDeviceBinding{
		DeviceID:   uuid.New().String(),
		Username:   strings.TrimSpace(username),
		DeviceType: deviceType,
		ExpiresAt:  expiresAt.UnixMilli(),
	}
	if err := s.bindings.Set(ctx, cache.QRBindingKey(loginToken), binding, s.config.TokenTTL); err != nil {
		return nil, fmt.Errorf("store qr binding: %w", err)
	}

	rawData := strings.TrimRight(s.config.BaseURL, "/") + "/qr/direct/login?" + url.Values{
		"token":      {loginToken},
		"deviceType": {deviceType},
	}.Encode()
	image, err := renderQRDataURL(rawData, s.config.ImageSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}

	s.metrics.RecordQRLogin("direct_generate", "success")
	return &DirectLoginQR{
		DeviceID:  binding.DeviceID,
		Token:     loginToken,
		RawData:   rawData,
		QRCode:    image,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateDirectLoginToken checks a scanned token without consuming it. An
// absent, expired or device-mismatched binding is ErrQRBindingInvalid.
func (s *QRService) ValidateDirectLoginToken(
	ctx context.Context,
	loginToken, deviceType string,
) (*models.QRDeviceBinding, error) {
	if loginToken == "" {
		return nil, ErrQRBindingInvalid
	}
	binding, err := s.bindings.Get(ctx, cache.QRBindingKey(loginToken))
	if err != nil {
		if !cache.IsMiss(err) {
			log.Error().Err(err).Msg("failed to read qr binding")
		}
		s.metrics.RecordQRLogin("direct_validate", "not_found")
		return nil, ErrQRBindingInvalid
	}
	if binding.IsExpired(s.now()) {
		s.metrics.RecordQRLogin("direct_validate", "expired")
		return nil, ErrQRBindingInvalid
	}
	if deviceType != "" && !strings.EqualFold(binding.DeviceType, deviceType) {
		s.metrics.RecordQRLogin("direct_validate", "device_mismatch")
		return nil, ErrQRBindingInvalid
	}
	return &binding, nil
}

// CompleteDirectLogin is called by the scanning device on behalf of its
// signed-in user. It mints a token for that user and parks it for the
// displaying device to collect. The binding is only consumed once every
// check has passed, so a rejected scan leaves it usable by its owner.
func (s *QRService) CompleteDirectLogin(
	ctx context.Context,
	scanner *models.User,
	loginToken, deviceType string,
) (*models.QRDeviceBinding, error) {
	binding, err := s.ValidateDirectLoginToken(ctx, loginToken, deviceType)
	if err != nil {
		return nil, err
	}
	if binding.Username != "" && !strings.EqualFold(binding.Username, scanner.Username) {
		s.metrics.RecordQRLogin("direct_complete", "user_mismatch")
		return nil, ErrForbidden
	}

	// Two scanners can pass validation together; only the Take winner proceeds.
	key := cache.QRBindingKey(loginToken)
	claimed, err := s.bindings.Take(ctx, key)
	if err != nil || claimed.DeviceID != binding.DeviceID {
		s.metrics.RecordQRLogin("direct_complete", "lost_race")
		return nil, ErrQRBindingInvalid
	}

	if err := s.deliverDirectLogin(ctx, scanner, claimed.DeviceID); err != nil {
		s.restoreBinding(ctx, key, claimed)
		return nil, err
	}

	s.metrics.RecordQRLogin("direct_complete", "success")
	s.logCompleted(ctx, scanner, claimed.DeviceID, FlowQRDirect)
	return &claimed, nil
}

func (s *QRService) deliverDirectLogin(ctx context.Context, user *models.User, deviceID string) error {
	tok, err := s.sessions.Issue(ctx, user, FlowQRDirect, nil)
	if err != nil {
		return err
	}
	return s.NotifyDeviceLoginSuccess(ctx, deviceID, user, tok.TokenString)
}

// restoreBinding puts a claimed binding back for whatever lifetime it had left.
func (s *QRService) restoreBinding(ctx context.Context, key string, binding models.QRDeviceBinding) {
	ttl := time.UnixMilli(binding.ExpiresAt).Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.bindings.Set(ctx, key, binding, ttl); err != nil {
		log.Error().Err(err).Str("device_id", binding.DeviceID).Msg("failed to restore qr binding")
	}
}

// NotifyDeviceLoginSuccess parks tokenString for deviceID until it is polled
// once or the result TTL elapses.
func (s *QRService) NotifyDeviceLoginSuccess(
	ctx context.Context,
	deviceID string,
	user *models.User,
	tokenString string,
) error {
	result := models.QRLoginResult{
		Token:     tokenString,
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: s.now().Add(s.config.LoginResultTTL).UnixMilli(),
	}
	if err := s.results.Set(ctx, cache.LoginSuccessKey(deviceID), result, s.config.LoginResultTTL); err != nil {
		return fmt.Errorf("store qr login result: %w", err)
	}
	return nil
}

// CheckDirectLoginStatus returns the parked login for deviceID at most once.
// A missing entry means "no login yet", not an error.
func (s *QRService) CheckDirectLoginStatus(
	ctx context.Context,
	deviceID string,
) (*models.QRLoginResult, bool, error) {
	if deviceID == "" {
		return nil, false, ErrInvalidInput
	}
	result, err := s.results.Take(ctx, cache.LoginSuccessKey(deviceID))
	if err != nil {
		if cache.IsMiss(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if result.IsExpired(s.now()) {
		return nil, false, nil
	}
	s.metrics.RecordQRLogin("direct_poll", "delivered")
	return &result, true, nil
}

func (s *QRService) logCompleted(ctx context.Context, user *models.User, deviceID, flow string) {
	s.auditService.Log(ctx, AuditLogEntry{
		EventType:     models.EventQRLoginCompleted,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceDevice,
		ResourceID:    deviceID,
		Action:        "QR login completed",
		Details:       models.AuditDetails{"flow": flow, "device_id": deviceID},
		Success:       true,
	})
}
