package store

import (
	"context"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
)

// FindValidAuthorization returns the most recent valid authorization for the
// exact (client, subject, canonical scope string) triple.
func (s *Store) FindValidAuthorization(
	ctx context.Context,
	clientID, subject, scopes string,
) (*models.OIDCAuthorization, error) {
	var auth models.OIDCAuthorization
	if err := s.db.WithContext(ctx).
		Where("client_id = ? AND subject = ? AND scopes = ? AND status = ?",
			clientID, subject, scopes, models.AuthorizationStatusValid).
		Order("created_at DESC").
		First(&auth).Error; err != nil {
		return nil, notFound(err)
	}
	return &auth, nil
}

func (s *Store) CreateAuthorization(ctx context.Context, auth *models.OIDCAuthorization) error {
	return s.db.WithContext(ctx).Create(auth).Error
}

func (s *Store) GetAuthorization(ctx context.Context, id string) (*models.OIDCAuthorization, error) {
	var auth models.OIDCAuthorization
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&auth).Error; err != nil {
		return nil, notFound(err)
	}
	return &auth, nil
}

// ListUserAuthorizations returns the subject's valid authorizations, newest first.
func (s *Store) ListUserAuthorizations(
	ctx context.Context,
	subject string,
) ([]models.OIDCAuthorization, error) {
	var auths []models.OIDCAuthorization
	err := s.db.WithContext(ctx).
		Where("subject = ? AND status = ?", subject, models.AuthorizationStatusValid).
		Order("created_at DESC").
		Find(&auths).Error
	return auths, err
}

// RevokeAuthorization revokes a valid authorization owned by subject.
func (s *Store) RevokeAuthorization(ctx context.Context, id, subject string) error {
	res := s.db.WithContext(ctx).
		Model(&models.OIDCAuthorization{}).
		Where("id = ? AND subject = ? AND status = ?", id, subject, models.AuthorizationStatusValid).
		Updates(map[string]any{
			"status":     models.AuthorizationStatusRevoked,
			"revoked_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
