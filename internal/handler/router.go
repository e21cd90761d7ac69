// Package handler provides the HTTP API for Cinelog.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/auth"
	"github.com/prn-tf/cinelog/internal/config"
	"github.com/prn-tf/cinelog/internal/metrics"
)

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router wires handlers and middleware into one http.Handler.
type Router struct {
	authHandler      *AuthHandler
	movieListHandler *MovieListHandler
	catalogHandler   *CatalogHandler
	health           HealthChecker
	authMiddleware   func(http.Handler) http.Handler
	limiter          *tokenBucket
	metrics          *metrics.Metrics
	cors             config.CORSConfig
	maxBodySize      int64
	logger           zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler      *AuthHandler
	MovieListHandler *MovieListHandler
	CatalogHandler   *CatalogHandler

	// Health is pinged by GET /health. May be nil.
	Health HealthChecker

	// TokenVerifier authenticates every /api route except register and login.
	TokenVerifier auth.TokenVerifier

	// Metrics may be nil.
	Metrics     *metrics.Metrics
	CORS        config.CORSConfig
	RateLimit   config.RateLimitConfig
	MaxBodySize int64
	Logger      zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	rt := &Router{
		authHandler:      cfg.AuthHandler,
		movieListHandler: cfg.MovieListHandler,
		catalogHandler:   cfg.CatalogHandler,
		health:           cfg.Health,
		authMiddleware:   auth.Middleware(cfg.TokenVerifier, cfg.Logger),
		metrics:          cfg.Metrics,
		cors:             cfg.CORS,
		maxBodySize:      cfg.MaxBodySize,
		logger:           cfg.Logger.With().Str("component", "router").Logger(),
	}
	if cfg.RateLimit.Enabled {
		rt.limiter = newTokenBucket(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)
	}
	return rt
}

// Close stops background work owned by the router.
func (rt *Router) Close() {
	if rt.limiter != nil {
		rt.limiter.Stop()
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(echoRequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestLogger(&requestLogFormatter{logger: rt.logger, metrics: rt.metrics}))
	r.Use(chimw.Recoverer)
	r.Use(corsHandler(rt.cors.AllowedOrigins, rt.cors.AllowCredentials))
	r.Use(limitBody(rt.maxBodySize))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check (no auth)
	r.Get("/health", rt.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if rt.limiter != nil {
					r.Use(rateLimit(rt.limiter))
				}
				r.Post("/register", rt.authHandler.Register)
				r.Post("/login", rt.authHandler.Login)
			})
			r.With(rt.authMiddleware).Get("/me", rt.authHandler.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware)
			rt.movieListHandler.RegisterRoutes(r)
			if rt.catalogHandler != nil {
				rt.catalogHandler.RegisterRoutes(r)
			}
		})
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := rt.health.Health(ctx); err != nil {
			rt.logger.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
