// Package storage opens the configured database backend and hands out
// its repositories.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/config"
	"github.com/prn-tf/cinelog/internal/repository"
	"github.com/prn-tf/cinelog/internal/repository/memory"
	"github.com/prn-tf/cinelog/internal/repository/mongo"
	"github.com/prn-tf/cinelog/internal/repository/postgres"
	"github.com/prn-tf/cinelog/internal/repository/sqlite"
)

// Versioner is implemented by backends with numbered schema migrations.
type Versioner interface {
	Version(ctx context.Context) (int, error)
}

// Open connects to the database selected by cfg.Driver.
// The caller owns the returned backend and must Close its Database.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Backend, error) {
	logger = logger.With().Str("component", "storage").Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case repository.DriverMemory:
		db := memory.NewDB()
		logger.Warn().Msg("using in-memory database, data is lost on restart")
		return &repository.Backend{Driver: cfg.Driver, Repos: db.Repositories(), Database: db}, nil

	case repository.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:            cfg.Path,
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			JournalMode:     cfg.JournalMode,
			BusyTimeout:     cfg.BusyTimeout,
			CacheSize:       cfg.CacheSize,
			SynchronousMode: cfg.SynchronousMode,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &repository.Backend{Driver: cfg.Driver, Repos: db.Repositories(), Database: db}, nil

	case repository.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &repository.Backend{Driver: cfg.Driver, Repos: db.Repositories(), Database: db}, nil

	case repository.DriverMongo:
		db, err := mongo.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &repository.Backend{Driver: cfg.Driver, Repos: db.Repositories(), Database: db}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
