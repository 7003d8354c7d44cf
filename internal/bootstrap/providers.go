package bootstrap

import (
	"fmt"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/auth"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/client"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/mailer"

	"github.com/rs/zerolog/log"
)

// initializeHTTPAPIAuthProvider creates the companion bootstrap provider when
// AUTH_MODE=http_api. It returns a nil interface otherwise.
func initializeHTTPAPIAuthProvider(cfg *config.Config) (core.AuthProvider, error) {
	if cfg.AuthMode != config.AuthModeHTTPAPI {
		return nil, nil //nolint:nilnil // local mode has no companion provider
	}

	retryClient, err := client.NewRetryClient(client.Options{
		AuthMode:           cfg.HTTPAPIAuthMode,
		AuthSecret:         cfg.HTTPAPIAuthSecret,
		AuthHeader:         cfg.HTTPAPIAuthHeader,
		Timeout:            cfg.HTTPAPITimeout,
		InsecureSkipVerify: cfg.HTTPAPIInsecureSkipVerify,
		MaxRetries:         cfg.HTTPAPIMaxRetries,
		RetryDelay:         cfg.HTTPAPIRetryDelay,
		MaxRetryDelay:      cfg.HTTPAPIMaxRetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP API auth client: %w", err)
	}
	log.Info().Str("url", cfg.HTTPAPIURL).Msg("HTTP API authentication enabled")
	return auth.NewHTTPAPIAuthProvider(cfg, retryClient), nil
}

// initializeMailer picks the magic link transport for MAIL_MODE.
func initializeMailer(cfg *config.Config) (core.Mailer, error) {
	switch cfg.MailMode {
	case config.MailModeHTTPAPI:
		retryClient, err := client.NewRetryClient(client.Options{
			AuthMode:      cfg.MailAPIAuthMode,
			AuthSecret:    cfg.MailAPIAuthSecret,
			AuthHeader:    cfg.MailAPIAuthHeader,
			Timeout:       cfg.MailAPITimeout,
			MaxRetries:    cfg.MailAPIMaxRetries,
			RetryDelay:    cfg.HTTPAPIRetryDelay,
			MaxRetryDelay: cfg.HTTPAPIMaxRetryDelay,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create mail API client: %w", err)
		}
		log.Info().Str("url", cfg.MailAPIURL).Msg("Magic links delivered through mail API")
		return mailer.NewHTTPAPIMailer(cfg.MailAPIURL, retryClient), nil
	default:
		log.Info().Msg("Magic links written to the log (MAIL_MODE=log)")
		return mailer.NewLogMailer(), nil
	}
}
