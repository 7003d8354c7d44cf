package store

import (
	"context"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"gorm.io/gorm"
)

func (s *Store) GetClient(ctx context.Context, clientID string) (*models.OAuthApplication, error) {
	var client models.OAuthApplication
	if err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		First(&client).Error; err != nil {
		return nil, notFound(err)
	}
	return &client, nil
}

func (s *Store) ListClients(ctx context.Context) ([]models.OAuthApplication, error) {
	var clients []models.OAuthApplication
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&clients).Error
	return clients, err
}

// GetClientsByIDs batch-loads clients keyed by client id.
func (s *Store) GetClientsByIDs(
	ctx context.Context,
	clientIDs []string,
) (map[string]*models.OAuthApplication, error) {
	result := make(map[string]*models.OAuthApplication, len(clientIDs))
	if len(clientIDs) == 0 {
		return result, nil
	}
	var clients []models.OAuthApplication
	if err := s.db.WithContext(ctx).
		Where("client_id IN ?", clientIDs).
		Find(&clients).Error; err != nil {
		return nil, err
	}
	for i := range clients {
		result[clients[i].ClientID] = &clients[i]
	}
	return result, nil
}

func (s *Store) CreateClient(ctx context.Context, client *models.OAuthApplication) error {
	return s.db.WithContext(ctx).Create(client).Error
}

func (s *Store) UpdateClient(ctx context.Context, client *models.OAuthApplication) error {
	return s.db.WithContext(ctx).Save(client).Error
}

// DeleteClient removes the registration and revokes every authorization
// granted to it.
func (s *Store) DeleteClient(ctx context.Context, clientID string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("client_id = ?", clientID).Delete(&models.OAuthApplication{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return tx.Model(&models.OIDCAuthorization{}).
			Where("client_id = ? AND status = ?", clientID, models.AuthorizationStatusValid).
			Updates(map[string]any{
				"status":     models.AuthorizationStatusRevoked,
				"revoked_at": now,
			}).Error
	})
}
