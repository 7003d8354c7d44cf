package store

import (
	"context"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
)

func (s *Store) CreateMagicLinkToken(ctx context.Context, token *models.MagicLinkToken) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *Store) GetMagicLinkToken(
	ctx context.Context,
	tokenHash string,
) (*models.MagicLinkToken, error) {
	var token models.MagicLinkToken
	if err := s.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

// ConsumeMagicLinkToken marks the link used; only one concurrent caller succeeds.
func (s *Store) ConsumeMagicLinkToken(ctx context.Context, tokenHash string, now time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.MagicLinkToken{}).
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
