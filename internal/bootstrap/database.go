package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"

	"github.com/rs/zerolog/log"
)

// initializeDatabase opens the store within DBInitTimeout. store.New migrates
// the schema and seeds the built-in roles and the admin account.
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	started := time.Now()
	db, err := store.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DatabaseDriver, err)
	}

	log.Info().
		Str("driver", cfg.DatabaseDriver).
		Dur("took", time.Since(started)).
		Msg("Database migrated and seeded")
	return db, nil
}
