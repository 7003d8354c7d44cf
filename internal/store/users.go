package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByExternalID finds a user by their external ID and auth source
func (s *Store) GetUserByExternalID(
	ctx context.Context,
	externalID, authSource string,
) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("external_id = ? AND auth_source = ?", externalID, authSource).
		First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUser inserts a user, assigning the next legacy id and the default role.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createUserTx(tx, user)
	})
}

func createUserTx(tx *gorm.DB, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.AuthSource == "" {
		user.AuthSource = models.AuthSourceLocal
	}
	if user.LegacyID == 0 {
		var maxID int64
		if err := tx.Model(&models.User{}).
			Select("COALESCE(MAX(legacy_id), 0)").
			Scan(&maxID).Error; err != nil {
			return err
		}
		user.LegacyID = maxID + 1
	}
	if err := tx.Create(user).Error; err != nil {
		return err
	}

	var role models.Role
	if err := tx.Where("name = ?", DefaultRoleName).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

// UpsertExternalUser creates or updates a user from external authentication
func (s *Store) UpsertExternalUser(
	ctx context.Context,
	username, externalID, authSource, email, fullName string,
) (*models.User, error) {
	var result *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User

		// Try to find existing user by external ID
		err := tx.Where("external_id = ? AND auth_source = ?", externalID, authSource).
			First(&user).
			Error

		if err == nil {
			// Username changed: the new one must still be free
			if user.Username != username {
				var conflictingUser models.User
				conflictErr := tx.Where("username = ? AND id != ?", username, user.ID).
					First(&conflictingUser).
					Error
				if conflictErr == nil {
					return ErrUsernameConflict
				}
				if !errors.Is(conflictErr, gorm.ErrRecordNotFound) {
					return fmt.Errorf("failed to check username: %w", conflictErr)
				}
			}

			user.Username = username
			user.Email = email
			user.FullName = fullName
			if err := tx.Save(&user).Error; err != nil {
				return fmt.Errorf("failed to update external user: %w", err)
			}
			result = &user
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to query external user: %w", err)
		}

		var existingUser models.User
		err = tx.Where("username = ?", username).First(&existingUser).Error
		if err == nil {
			return ErrUsernameConflict
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check username: %w", err)
		}

		user = models.User{
			Username:   username,
			Email:      email,
			FullName:   fullName,
			ExternalID: externalID,
			AuthSource: authSource,
			IsActive:   true,
		}
		if err := createUserTx(tx, &user); err != nil {
			return fmt.Errorf("failed to create external user: %w", err)
		}
		result = &user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
