package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/lock"
	"github.com/prn-tf/cinelog/internal/repository"
)

// ErrNoVersion is returned by Status for backends without numbered migrations.
var ErrNoVersion = errors.New("backend has no migration version")

// Migrate applies pending schema migrations while holding the migration
// lock, so concurrently starting servers migrate one at a time.
func Migrate(ctx context.Context, backend *repository.Backend, locker lock.Locker, logger zerolog.Logger) error {
	return lock.WithLock(ctx, locker, lock.Keys.Migrations(), lock.DefaultOptions, func(ctx context.Context) error {
		logger.Info().Str("driver", backend.Driver).Msg("running migrations")
		if err := backend.Database.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		return nil
	})
}

// LocalLocker returns the migration locker used when Redis is disabled,
// plus its stop func. The memory driver gets a NoOpLocker since its data
// never leaves the process; file and server databases get a MemoryLocker.
func LocalLocker(driver string) (lock.Locker, func()) {
	if driver == "memory" {
		return lock.NewNoOpLocker(), func() {}
	}
	l := lock.NewMemoryLocker()
	return l, l.Stop
}

// Status returns the applied schema version of backend.
func Status(ctx context.Context, backend *repository.Backend) (int, error) {
	v, ok := backend.Database.(Versioner)
	if !ok {
		return 0, ErrNoVersion
	}
	return v.Version(ctx)
}
