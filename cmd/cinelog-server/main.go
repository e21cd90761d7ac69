// Package main is the entry point for the Cinelog API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/auth"
	memorycache "github.com/prn-tf/cinelog/internal/cache/memory"
	rediscache "github.com/prn-tf/cinelog/internal/cache/redis"
	"github.com/prn-tf/cinelog/internal/catalog"
	"github.com/prn-tf/cinelog/internal/config"
	"github.com/prn-tf/cinelog/internal/handler"
	"github.com/prn-tf/cinelog/internal/lock"
	"github.com/prn-tf/cinelog/internal/logging"
	"github.com/prn-tf/cinelog/internal/metrics"
	"github.com/prn-tf/cinelog/internal/pkg/crypto"
	"github.com/prn-tf/cinelog/internal/repository"
	"github.com/prn-tf/cinelog/internal/service"
	"github.com/prn-tf/cinelog/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting Cinelog server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		closer.Close()
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

// run wires every dependency and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	backend, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Database.Close()

	// Shared infrastructure: Redis when enabled, process-local otherwise.
	var (
		locker lock.Locker
		cache  repository.Cache
	)
	if cfg.Redis.Enabled {
		client, err := rediscache.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client)
		cache = rediscache.NewCache(client)
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("connected to Redis")
	} else {
		localLocker, stopLocker := storage.LocalLocker(cfg.Database.Driver)
		defer stopLocker()
		memCache := memorycache.NewCache(time.Minute)
		defer memCache.Stop()
		locker, cache = localLocker, memCache
	}

	if err := storage.Migrate(ctx, backend, locker, logger); err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	if !crypto.IsStrongSigningSecret(cfg.Auth.JWTSecret) {
		secret, err := crypto.GenerateSigningSecret()
		if err != nil {
			return err
		}
		cfg.Auth.JWTSecret = secret
		logger.Warn().Msg("auth.jwt_secret not set, using a random secret; tokens will not survive a restart")
	}
	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		return err
	}

	// Services
	users := service.NewUserService(backend.Repos.User, cfg.Auth.BcryptCost, logger)
	sessions := service.NewSessionService(users, tokens, logger)
	movieLists := service.NewMovieListService(backend.Repos.MovieList, m, logger)

	var movieCatalog catalog.Catalog = catalog.NewClient(cfg.Catalog, nil, logger)
	if cfg.Catalog.CacheTTL > 0 {
		movieCatalog = catalog.NewCachedClient(movieCatalog, cache, cfg.Catalog.CacheTTL, m, logger)
	}
	if cfg.Catalog.APIKey == "" {
		logger.Warn().Msg("catalog.api_key not set, catalog requests will be rejected upstream")
	}

	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler:      handler.NewAuthHandler(sessions, users, logger),
		MovieListHandler: handler.NewMovieListHandler(movieLists, logger),
		CatalogHandler:   handler.NewCatalogHandler(movieCatalog, logger),
		Health:           backend.Database,
		TokenVerifier:    tokens,
		Metrics:          m,
		CORS:             cfg.CORS,
		RateLimit:        cfg.RateLimit,
		MaxBodySize:      cfg.Server.MaxBodySize,
		Logger:           logger,
	})
	defer router.Close()

	servers := []*http.Server{{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}}

	if m != nil {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		servers = append(servers, &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Metrics.Port)),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server on %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down server...")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("addr", srv.Addr).Msg("graceful shutdown failed")
		}
	}

	return serveErr
}
