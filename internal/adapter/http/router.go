package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/paisbank/internal/adapter/http/handler"
	"github.com/iho/paisbank/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router. Metrics, MetricsHandler,
// RateLimiter and Idempotency are optional.
type RouterConfig struct {
	CardHandler        *handler.CardHandler
	TransactionHandler *handler.TransactionHandler
	HealthHandler      *handler.HealthHandler
	TokenVerifier      middleware.TokenVerifier
	Logger             zerolog.Logger

	Metrics        middleware.HTTPObserver
	MetricsHandler http.Handler
	RateLimiter    *middleware.RateLimiter
	Idempotency    *middleware.IdempotencyMiddleware
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.TokenVerifier))
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}
		if cfg.Idempotency != nil {
			r.Use(cfg.Idempotency.Wrap)
		}

		// Cards
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cfg.CardHandler.List)
			r.Post("/", cfg.CardHandler.Create)
			r.Get("/{id}", cfg.CardHandler.Get)
			r.Patch("/{id}", cfg.CardHandler.Update)
			r.Delete("/{id}", cfg.CardHandler.Delete)
			r.Get("/{id}/entries", cfg.CardHandler.Entries)
			r.Get("/{id}/reconciliation", cfg.CardHandler.Reconcile)
			r.Post("/{id}/reconciliation", cfg.CardHandler.Repair)
		})

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", cfg.TransactionHandler.List)
			r.Post("/", cfg.TransactionHandler.Create)
			r.Get("/search", cfg.TransactionHandler.Search)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Put("/{id}", cfg.TransactionHandler.Amend)
			r.Patch("/{id}", cfg.TransactionHandler.Amend)
			r.Delete("/{id}", cfg.TransactionHandler.Delete)
		})
	})

	return r
}
