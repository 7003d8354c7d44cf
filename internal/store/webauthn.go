package store

import (
	"context"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"gorm.io/gorm"
)

// CreateWebAuthnCredential stores a new credential and turns WebAuthn on for the user.
func (s *Store) CreateWebAuthnCredential(ctx context.Context, cred *models.WebAuthnCredential) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cred).Error; err != nil {
			return err
		}
		return setFactorFlag(tx, cred.UserID, "webauthn_enabled", true)
	})
}

// ListWebAuthnCredentials returns the user's active credentials, oldest first.
func (s *Store) ListWebAuthnCredentials(
	ctx context.Context,
	userID string,
) ([]models.WebAuthnCredential, error) {
	var creds []models.WebAuthnCredential
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("created_at").
		Find(&creds).Error
	return creds, err
}

func (s *Store) GetWebAuthnCredential(
	ctx context.Context,
	credentialID string,
) (*models.WebAuthnCredential, error) {
	var cred models.WebAuthnCredential
	if err := s.db.WithContext(ctx).
		Where("credential_id = ?", credentialID).
		First(&cred).Error; err != nil {
		return nil, notFound(err)
	}
	return &cred, nil
}

// UpdateWebAuthnSignCount records a successful assertion. The write only lands
// if the stored counter is still below newCount, so concurrent or replayed
// assertions carrying the same counter cannot both succeed. Authenticators that
// never implement a counter report zero forever; that case is accepted as long
// as the stored value is also zero.
func (s *Store) UpdateWebAuthnSignCount(
	ctx context.Context,
	credentialID string,
	newCount uint32,
	credentialJSON string,
	now time.Time,
) error {
	q := s.db.WithContext(ctx).
		Model(&models.WebAuthnCredential{}).
		Where("credential_id = ? AND active = ?", credentialID, true)
	if newCount == 0 {
		q = q.Where("sign_count = 0")
	} else {
		q = q.Where("sign_count < ?", newCount)
	}

	res := q.Updates(map[string]any{
		"sign_count":      newCount,
		"credential_json": credentialJSON,
		"last_used_at":    now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleSignCount
	}
	return nil
}

// DeactivateWebAuthnCredential soft-deletes a credential owned by userID.
// WebAuthn is switched off for the user once no active credential remains.
func (s *Store) DeactivateWebAuthnCredential(ctx context.Context, userID, credentialID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.WebAuthnCredential{}).
			Where("credential_id = ? AND user_id = ? AND active = ?", credentialID, userID, true).
			Update("active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}

		var remaining int64
		if err := tx.Model(&models.WebAuthnCredential{}).
			Where("user_id = ? AND active = ?", userID, true).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			return setFactorFlag(tx, userID, "webauthn_enabled", false)
		}
		return nil
	})
}
