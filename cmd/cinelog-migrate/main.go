// Package main is the entry point for the Cinelog database migration tool.
// It applies the schema for whichever driver the configuration selects.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	rediscache "github.com/prn-tf/cinelog/internal/cache/redis"
	"github.com/prn-tf/cinelog/internal/config"
	"github.com/prn-tf/cinelog/internal/lock"
	"github.com/prn-tf/cinelog/internal/logging"
	"github.com/prn-tf/cinelog/internal/repository"
	"github.com/prn-tf/cinelog/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Cinelog Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up", "status":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		configPath := fs.String("config", "", "path to config file")
		_ = fs.Parse(os.Args[2:])

		if err := runCommand(command, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runCommand(command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer backend.Database.Close()

	locker, release, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	if command == "up" {
		if err := storage.Migrate(ctx, backend, locker, logger); err != nil {
			return err
		}
	}
	return printStatus(ctx, cfg.Database.Driver, backend, locker, logger)
}

// newLocker returns the Redis locker when Redis is enabled so migrations
// serialize across hosts; otherwise storage.LocalLocker.
func newLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func(), error) {
	if !cfg.Redis.Enabled {
		l, stop := storage.LocalLocker(cfg.Database.Driver)
		return l, stop, nil
	}

	client, err := rediscache.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return lock.NewRedisLocker(client), func() { _ = client.Close() }, nil
}

func printStatus(ctx context.Context, driver string, backend *repository.Backend, locker lock.Locker, logger zerolog.Logger) error {
	fmt.Printf("Driver: %s\n", driver)

	version, err := storage.Status(ctx, backend)
	switch {
	case errors.Is(err, storage.ErrNoVersion):
		fmt.Println("Schema: indexes only (no numbered migrations)")
	case err != nil:
		logger.Error().Err(err).Msg("failed to read migration version")
		return err
	default:
		fmt.Printf("Schema version: %d\n", version)
	}

	held, err := locker.IsHeld(ctx, lock.Keys.Migrations())
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read migration lock")
		return nil
	}
	if held {
		fmt.Println("Migration lock: held (a migration is running)")
	} else {
		fmt.Println("Migration lock: free")
	}
	return nil
}

func printUsage() {
	fmt.Println(`Cinelog Migration Tool

Usage:
  cinelog-migrate <command> [--config path]

Commands:
  up          Apply all pending migrations (holds the migration lock)
  status      Show the applied schema version
  version     Print version information
  help        Show this help message

The database is selected by database.driver in the configuration
(memory, sqlite, postgres, mongo). Environment variables prefixed with
CINELOG_ override file values, e.g. CINELOG_DATABASE_DRIVER=postgres.

Examples:
  cinelog-migrate up --config ./configs/config.yaml
  cinelog-migrate status`)
}
