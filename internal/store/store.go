package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the credential store: users, roles, second-factor material,
// OIDC clients and authorizations, and the audit trail.
type Store struct {
	db *gorm.DB
}

// Built-in roles. Priority decides the primary role.
var defaultRoles = []struct {
	name        string
	description string
	priority    int
	permissions []string
}{
	{models.RoleAdmin, "Full administrative access", 100, []string{
		models.PermissionUsersRead, models.PermissionUsersWrite, models.PermissionClientsManage,
		models.PermissionFleetManage, models.PermissionRoutesManage, models.PermissionTicketsSell,
		models.PermissionTicketsRefund, models.PermissionReportsView,
	}},
	{models.RoleManager, "Fleet and route management", 50, []string{
		models.PermissionUsersRead, models.PermissionFleetManage,
		models.PermissionRoutesManage, models.PermissionReportsView,
	}},
	{models.RoleCashier, "Ticket sales desk", 20, []string{
		models.PermissionTicketsSell, models.PermissionTicketsRefund,
	}},
	{models.RoleUser, "Default role for every account", 0, []string{models.PermissionProfileRead}},
}

// DefaultRoleName is assigned to every newly created account.
const DefaultRoleName = models.RoleUser

func New(ctx context.Context, driver, dsn string, cfg *config.Config) (*Store, error) {
	dialector, err := openDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// A :memory: database lives on a single connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.UserRole{},
		&models.RolePermission{},
		&models.UserTwoFactorSettings{},
		&models.TOTPSecret{},
		&models.PendingTwoFactorToken{},
		&models.WebAuthnCredential{},
		&models.MagicLinkToken{},
		&models.OAuthApplication{},
		&models.OIDCAuthorization{},
		&models.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store := &Store{db: db}

	if err := store.seedData(ctx, cfg); err != nil {
		log.Warn().Err(err).Msg("failed to seed data")
	}

	return store, nil
}

// generateRandomPassword generates a random password of specified length
func generateRandomPassword(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	// Use base64 URL encoding to get a safe, printable password
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

func (s *Store) seedData(ctx context.Context, cfg *config.Config) error {
	if err := s.seedRoles(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	var userCount int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	password := ""
	if cfg != nil {
		password = strings.TrimSpace(cfg.DefaultAdminPassword)
	}
	generated := password == ""
	if generated {
		var err error
		if password, err = generateRandomPassword(16); err != nil {
			return err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:            uuid.New().String(),
		Username:      "admin",
		Email:         "admin@localhost",
		EmailVerified: true,
		PasswordHash:  string(hash),
		FullName:      "Administrator",
		IsActive:      true,
		AuthSource:    models.AuthSourceLocal,
	}
	if err := s.CreateUser(ctx, admin); err != nil {
		return err
	}
	if err := s.AssignRole(ctx, admin.ID, models.RoleAdmin); err != nil {
		return err
	}

	if generated {
		log.Info().Msgf("Created default user: admin / %s (role: admin)", password)
	} else {
		log.Info().Msg("Created default user: admin (password from DEFAULT_ADMIN_PASSWORD)")
	}
	return nil
}

func (s *Store) seedRoles(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range defaultRoles {
			role := models.Role{
				Name:        def.name,
				Description: def.description,
				Priority:    def.priority,
				IsSystem:    true,
			}
			if err := tx.Where(models.Role{Name: def.name}).
				FirstOrCreate(&role).Error; err != nil {
				return err
			}
			for _, name := range def.permissions {
				perm := models.Permission{Name: name}
				if err := tx.Where(models.Permission{Name: name}).
					FirstOrCreate(&perm).Error; err != nil {
					return err
				}
				link := models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}
				if err := tx.Where(link).FirstOrCreate(&link).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// notFound normalizes gorm's not-found error to ErrRecordNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}
