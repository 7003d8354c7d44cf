package store

import (
	"context"
	"fmt"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"gorm.io/gorm/clause"
)

func (s *Store) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

// AssignRole links a user to a role by name. Assigning twice is a no-op.
func (s *Store) AssignRole(ctx context.Context, userID, roleName string) error {
	role, err := s.GetRoleByName(ctx, roleName)
	if err != nil {
		return fmt.Errorf("role %q: %w", roleName, err)
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserRole{UserID: userID, RoleID: role.ID}).Error
}

// RemoveRole unlinks a user from a role by name.
func (s *Store) RemoveRole(ctx context.Context, userID, roleName string) error {
	role, err := s.GetRoleByName(ctx, roleName)
	if err != nil {
		return fmt.Errorf("role %q: %w", roleName, err)
	}
	return s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, role.ID).
		Delete(&models.UserRole{}).Error
}

// GetUserRoles returns every role assigned to the user, ordered by id.
func (s *Store) GetUserRoles(ctx context.Context, userID string) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.id").
		Find(&roles).Error
	return roles, err
}

// GetPermissionsForRoles returns the deduplicated permission set granted by roleIDs.
func (s *Store) GetPermissionsForRoles(
	ctx context.Context,
	roleIDs []int64,
) ([]models.Permission, error) {
	if len(roleIDs) == 0 {
		return []models.Permission{}, nil
	}
	granted := s.db.Model(&models.RolePermission{}).
		Select("permission_id").
		Where("role_id IN ?", roleIDs)

	var perms []models.Permission
	err := s.db.WithContext(ctx).
		Where("id IN (?)", granted).
		Order("name").
		Find(&perms).Error
	return perms, err
}
