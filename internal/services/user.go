package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/auth"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"

	"github.com/rs/zerolog/log"
)

// UserService is the password authenticator. It routes each account to the
// provider named by its auth_source and mirrors companion-API accounts locally.
type UserService struct {
	store           *store.Store
	localProvider   core.AuthProvider
	httpAPIProvider core.AuthProvider
	authMode        string
	metrics         core.Recorder
	userCache       core.Cache[models.User]
	userCacheTTL    time.Duration
}

func NewUserService(
	s *store.Store,
	localProvider core.AuthProvider,
	httpAPIProvider core.AuthProvider,
	authMode string,
	m core.Recorder,
	userCache core.Cache[models.User],
	userCacheTTL time.Duration,
) *UserService {
	return &UserService{
		store:           s,
		localProvider:   localProvider,
		httpAPIProvider: httpAPIProvider,
		authMode:        authMode,
		metrics:         m,
		userCache:       userCache,
		userCacheTTL:    userCacheTTL,
	}
}

func userCacheKey(id string) string { return "user:" + id }

// Authenticate resolves the account behind username/password. It performs no
// second-factor logic.
func (s *UserService) Authenticate(
	ctx context.Context,
	username, password string,
) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.store.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return s.authenticateExistingUser(ctx, existingUser, password)
	case !errors.Is(err, store.ErrRecordNotFound):
		s.metrics.RecordDatabaseQueryError("get_user")
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	// Unknown locally; the companion API may still know the account.
	if s.authMode == config.AuthModeHTTPAPI {
		return s.authenticateAndCreateExternalUser(ctx, username, password)
	}

	// Same cost as a wrong password.
	if s.localProvider != nil {
		_, _ = s.localProvider.Authenticate(ctx, username, password)
	}
	return nil, ErrInvalidCredentials
}

func (s *UserService) authenticateExistingUser(
	ctx context.Context,
	user *models.User,
	password string,
) (*models.User, error) {
	if user.AuthSource == models.AuthSourceHTTPAPI {
		result, err := s.callHTTPAPI(ctx, user.Username, password)
		if err != nil {
			return nil, err
		}
		updated, syncErr := s.syncExternalUser(ctx, result)
		if syncErr != nil {
			log.Warn().Err(syncErr).Str("username", user.Username).Msg("external user sync failed")
		} else {
			user = updated
		}
	} else {
		if s.localProvider == nil {
			return nil, fmt.Errorf("%w: local provider not configured", ErrAuthProviderFailed)
		}
		result, err := s.localProvider.Authenticate(ctx, user.Username, password)
		if err != nil || !result.Success {
			return nil, ErrInvalidCredentials
		}
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) authenticateAndCreateExternalUser(
	ctx context.Context,
	username, password string,
) (*models.User, error) {
	result, err := s.callHTTPAPI(ctx, username, password)
	if err != nil {
		return nil, err
	}

	user, err := s.syncExternalUser(ctx, result)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("failed to create external user")
		return nil, ErrUserSyncFailed
	}

	log.Info().Str("username", username).Msg("external user created")
	return user, nil
}

// callHTTPAPI separates "the API said no" from "the API is down" so callers
// can answer 401 versus 503.
func (s *UserService) callHTTPAPI(
	ctx context.Context,
	username, password string,
) (*core.AuthResult, error) {
	if s.httpAPIProvider == nil {
		return nil, fmt.Errorf("%w: http_api provider not configured", ErrAuthProviderFailed)
	}

	start := time.Now()
	result, err := s.httpAPIProvider.Authenticate(ctx, username, password)
	s.metrics.RecordExternalAPICall(s.httpAPIProvider.Name(), time.Since(start))

	if err != nil {
		if isUpstreamFailure(err) {
			log.Error().Err(err).Str("username", username).Msg("identity API unavailable")
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		log.Debug().Err(err).Str("username", username).Msg("identity API rejected credentials")
		return nil, ErrInvalidCredentials
	}
	if !result.Success {
		return nil, ErrInvalidCredentials
	}
	return result, nil
}

func isUpstreamFailure(err error) bool {
	return errors.Is(err, auth.ErrHTTPAPIConnection) || errors.Is(err, auth.ErrHTTPAPIInvalidResp)
}

func (s *UserService) syncExternalUser(
	ctx context.Context,
	result *core.AuthResult,
) (*models.User, error) {
	user, err := s.store.UpsertExternalUser(
		ctx,
		result.Username,
		result.ExternalID,
		models.AuthSourceHTTPAPI,
		result.Email,
		result.FullName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert external user: %w", err)
	}
	s.InvalidateUserCache(ctx, user.ID)
	return user, nil
}

// InvalidateUserCache drops the cached row for userID after a write.
func (s *UserService) InvalidateUserCache(ctx context.Context, userID string) {
	if err := s.userCache.Delete(ctx, userCacheKey(userID)); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate user cache")
	}
}

// GetUserByID reads through the user cache.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userCache.GetWithFetch(
		ctx,
		userCacheKey(id),
		s.userCacheTTL,
		func(ctx context.Context, _ string) (models.User, error) {
			u, err := s.store.GetUserByID(ctx, id)
			if err != nil {
				return models.User{}, err
			}
			return *u, nil
		},
	)
	if err != nil {
		return nil, lookupError(err)
	}
	return &user, nil
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, lookupError(err)
	}
	return user, nil
}

// lookupError keeps "no such user" apart from a store or cache outage.
func lookupError(err error) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}

// GetActiveUser is GetUserByID restricted to active accounts.
func (s *UserService) GetActiveUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountNotFound
	}
	return user, nil
}
