package bootstrap

import (
	"errors"
	"fmt"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"

	"github.com/rs/zerolog/log"
)

// Defaults shipped in config.Load that must not reach production.
const (
	defaultJWTSecret     = "your-256-bit-secret-change-in-production"
	defaultSessionSecret = "session-secret-change-in-production"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateSecrets(cfg); err != nil {
		return fmt.Errorf("invalid secrets: %w", err)
	}
	if cfg.AllowTwoFactorSkip {
		log.Warn().Msg("ALLOW_TWO_FACTOR_SKIP is enabled: clients may bypass the second factor")
	}
	return nil
}

// validateSecrets refuses the placeholder signing secrets in production and
// warns about them elsewhere.
func validateSecrets(cfg *config.Config) error {
	weak := cfg.JWTSecret == defaultJWTSecret || cfg.SessionSecret == defaultSessionSecret
	switch {
	case !weak:
		return nil
	case cfg.IsProduction:
		return errors.New("JWT_SECRET and SESSION_SECRET must be changed in production")
	default:
		log.Warn().Msg("Using default JWT_SECRET or SESSION_SECRET; do not deploy this configuration")
		return nil
	}
}
