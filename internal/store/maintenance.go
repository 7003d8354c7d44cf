package store

import (
	"context"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
)

// DeleteExpiredPendingTokens removes pending 2FA tokens that are used or past expiry.
func (s *Store) DeleteExpiredPendingTokens(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ? OR used = ?", now, true).
		Delete(&models.PendingTwoFactorToken{})
	return res.RowsAffected, res.Error
}

// DeleteExpiredMagicLinks removes magic links that are used or past expiry.
func (s *Store) DeleteExpiredMagicLinks(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ? OR used = ?", now, true).
		Delete(&models.MagicLinkToken{})
	return res.RowsAffected, res.Error
}

// DeleteAbandonedTOTPSecrets removes never-activated secrets created before
// cutoff. Setup writes one row per attempt and only confirmation cleans up.
func (s *Store) DeleteAbandonedTOTPSecrets(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("active = ? AND activated_at IS NULL AND created_at < ?", false, cutoff).
		Delete(&models.TOTPSecret{})
	return res.RowsAffected, res.Error
}

// Gauge sources

func (s *Store) CountActiveClients() (int64, error) {
	var n int64
	err := s.db.Model(&models.OAuthApplication{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

func (s *Store) CountTOTPEnabledUsers() (int64, error) {
	var n int64
	err := s.db.Model(&models.UserTwoFactorSettings{}).
		Where("totp_enabled = ?", true).
		Count(&n).Error
	return n, err
}

func (s *Store) CountActiveWebAuthnCredentials() (int64, error) {
	var n int64
	err := s.db.Model(&models.WebAuthnCredential{}).Where("active = ?", true).Count(&n).Error
	return n, err
}
