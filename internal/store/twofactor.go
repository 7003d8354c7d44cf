package store

import (
	"context"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"gorm.io/gorm"
)

// GetTwoFactorSettings returns ErrRecordNotFound when the user has no row yet.
func (s *Store) GetTwoFactorSettings(
	ctx context.Context,
	userID string,
) (*models.UserTwoFactorSettings, error) {
	var settings models.UserTwoFactorSettings
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&settings).Error; err != nil {
		return nil, notFound(err)
	}
	return &settings, nil
}

// EnsureTwoFactorSettings returns the user's settings, creating the
// all-disabled default row if none exists.
func (s *Store) EnsureTwoFactorSettings(
	ctx context.Context,
	userID string,
) (*models.UserTwoFactorSettings, error) {
	settings := models.UserTwoFactorSettings{UserID: userID}
	if err := s.db.WithContext(ctx).
		Where(models.UserTwoFactorSettings{UserID: userID}).
		FirstOrCreate(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func setFactorFlag(tx *gorm.DB, userID, column string, enabled bool) error {
	settings := models.UserTwoFactorSettings{UserID: userID}
	if err := tx.Where(models.UserTwoFactorSettings{UserID: userID}).
		FirstOrCreate(&settings).Error; err != nil {
		return err
	}
	return tx.Model(&settings).Update(column, enabled).Error
}

// CreatePendingTOTPSecret stores a not-yet-active secret produced by setup.
func (s *Store) CreatePendingTOTPSecret(ctx context.Context, userID, secret string) error {
	return s.db.WithContext(ctx).Create(&models.TOTPSecret{
		UserID: userID,
		Secret: secret,
		Active: false,
	}).Error
}

// GetActiveTOTPSecret returns the user's single active secret.
func (s *Store) GetActiveTOTPSecret(ctx context.Context, userID string) (*models.TOTPSecret, error) {
	var secret models.TOTPSecret
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("activated_at DESC").
		First(&secret).Error; err != nil {
		return nil, notFound(err)
	}
	return &secret, nil
}

// ActivateTOTPSecret makes secret the user's only active secret and turns TOTP on.
// A matching pending row from setup is promoted; otherwise a new row is written.
func (s *Store) ActivateTOTPSecret(ctx context.Context, userID, secret string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TOTPSecret{}).
			Where("user_id = ? AND active = ?", userID, true).
			Update("active", false).Error; err != nil {
			return err
		}

		res := tx.Model(&models.TOTPSecret{}).
			Where("user_id = ? AND secret = ? AND activated_at IS NULL", userID, secret).
			Updates(map[string]any{"active": true, "activated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.TOTPSecret{
				UserID:      userID,
				Secret:      secret,
				Active:      true,
				ActivatedAt: &now,
			}).Error; err != nil {
				return err
			}
		}

		// Drop leftover setup rows.
		if err := tx.Where("user_id = ? AND activated_at IS NULL", userID).
			Delete(&models.TOTPSecret{}).Error; err != nil {
			return err
		}

		return setFactorFlag(tx, userID, "totp_enabled", true)
	})
}

// DisableTOTP deactivates every secret of the user and turns TOTP off.
func (s *Store) DisableTOTP(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TOTPSecret{}).
			Where("user_id = ? AND active = ?", userID, true).
			Update("active", false).Error; err != nil {
			return err
		}
		return setFactorFlag(tx, userID, "totp_enabled", false)
	})
}

func (s *Store) CreatePendingTwoFactorToken(
	ctx context.Context,
	token *models.PendingTwoFactorToken,
) error {
	return s.db.WithContext(ctx).Create(token).Error
}

// GetPendingTwoFactorToken looks a token up by hash without consuming it.
func (s *Store) GetPendingTwoFactorToken(
	ctx context.Context,
	tokenHash string,
) (*models.PendingTwoFactorToken, error) {
	var token models.PendingTwoFactorToken
	if err := s.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

// ConsumePendingTwoFactorToken marks the token used. Exactly one caller can
// win; every other caller gets ErrAlreadyConsumed.
func (s *Store) ConsumePendingTwoFactorToken(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) error {
	res := s.db.WithContext(ctx).
		Model(&models.PendingTwoFactorToken{}).
		Where("token_hash = ? AND used = ? AND expires_at > ?", tokenHash, false, now).
		Updates(map[string]any{"used": true, "used_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyConsumed
	}
	return nil
}
