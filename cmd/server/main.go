package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/paisbank/internal/adapter/http"
	"github.com/iho/paisbank/internal/adapter/http/handler"
	"github.com/iho/paisbank/internal/adapter/http/middleware"
	memoryRepo "github.com/iho/paisbank/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/paisbank/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/paisbank/internal/adapter/repository/redis"
	"github.com/iho/paisbank/internal/infrastructure/auth"
	"github.com/iho/paisbank/internal/infrastructure/config"
	"github.com/iho/paisbank/internal/infrastructure/logger"
	"github.com/iho/paisbank/internal/infrastructure/metrics"
	"github.com/iho/paisbank/internal/infrastructure/postgres"
	"github.com/iho/paisbank/internal/infrastructure/redis"
	"github.com/iho/paisbank/internal/infrastructure/scheduler"
	"github.com/iho/paisbank/internal/usecase"
)

const (
	tokenTTL            = 24 * time.Hour
	limiterCleanupSpec  = "@every 10m"
	limiterIdleDuration = 30 * time.Minute
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	l := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.SetGlobal(l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Fatal().Err(err).Msg("server failed")
	}
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, l zerolog.Logger) error {
	a, err := newApp(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	a.scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("scheduled jobs still running at shutdown")
	}

	l.Info().Msg("server stopped")

	return nil
}

// app is the wired service.
type app struct {
	handler   http.Handler
	scheduler *scheduler.Scheduler
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage is the store-specific part of the wiring.
type storage struct {
	deps        usecase.Deps
	idempotency usecase.IdempotencyStore
	checks      map[string]handler.Pinger
	closers     []func()
}

func newApp(ctx context.Context, cfg *config.Config, l zerolog.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var (
		st  *storage
		err error
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		st = newMemoryStorage()
	default:
		st, err = newPostgresStorage(ctx, cfg, l)
	}
	if err != nil {
		return nil, err
	}

	a := &app{closers: st.closers}

	deps := st.deps
	deps.IDGen = postgresRepo.NewULIDGenerator()
	deps.Retrier = postgresRepo.NewRetrier(cfg.BalanceMaxRetries, l)
	deps.Metrics = m
	deps.StoreTimeout = cfg.StoreTimeout

	cardUC := usecase.NewCardUseCase(deps)
	transactionUC := usecase.NewTransactionUseCase(deps)
	reconciliationUC := usecase.NewReconciliationUseCase(deps)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m.RateLimitHits)

	routerCfg := httpAdapter.RouterConfig{
		CardHandler:        handler.NewCardHandler(cardUC, reconciliationUC),
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		HealthHandler:      handler.NewHealthHandler(st.checks),
		TokenVerifier:      auth.NewJWTManager(cfg.JWTSecret, tokenTTL),
		Logger:             l,
		Metrics:            m,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		RateLimiter:        rateLimiter,
	}
	if cfg.IdempotencyEnabled && st.idempotency != nil {
		routerCfg.Idempotency = middleware.NewIdempotencyMiddleware(st.idempotency, cfg.IdempotencyTTL, m.IdempotentReplays)
	}
	a.handler = httpAdapter.NewRouter(routerCfg)

	a.scheduler = scheduler.New(l.With().Str("component", "scheduler").Logger())
	if err := a.scheduler.AddFunc(limiterCleanupSpec, func() {
		if n := rateLimiter.CleanupLimiters(limiterIdleDuration); n > 0 {
			l.Debug().Int("removed", n).Msg("dropped idle rate limiters")
		}
	}); err != nil {
		a.close()
		return nil, err
	}

	if cfg.ReconcileEnabled() {
		job := scheduler.NewReconcileJob(reconciliationUC, cfg.ReconcileRepair, 0, m, l.With().Str("component", "reconciler").Logger())
		if err := a.scheduler.Add(cfg.ReconcileSchedule, job); err != nil {
			a.close()
			return nil, err
		}
		l.Info().Str("schedule", cfg.ReconcileSchedule).Bool("repair", cfg.ReconcileRepair).Msg("reconciliation job scheduled")
	}

	return a, nil
}

func newMemoryStorage() *storage {
	store := memoryRepo.NewStore()

	return &storage{
		deps: usecase.Deps{
			TxManager:    memoryRepo.NewTxManager(store),
			Cards:        memoryRepo.NewCardRepository(store),
			Transactions: memoryRepo.NewTransactionRepository(store),
			Entries:      memoryRepo.NewBalanceEntryRepository(store),
		},
		idempotency: memoryRepo.NewIdempotencyStore(),
		checks:      map[string]handler.Pinger{"store": store},
	}
}

func newPostgresStorage(ctx context.Context, cfg *config.Config, l zerolog.Logger) (*storage, error) {
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		MaxConnLifetime: cfg.DatabaseMaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	l.Info().Msg("connected to postgres")

	st := &storage{
		deps: usecase.Deps{
			TxManager:    postgresRepo.NewTxManager(pool),
			Cards:        postgresRepo.NewCardRepository(pool),
			Transactions: postgresRepo.NewTransactionRepository(pool),
			Entries:      postgresRepo.NewBalanceEntryRepository(pool),
		},
		checks:  map[string]handler.Pinger{"postgres": pool},
		closers: []func(){pool.Close},
	}

	if !cfg.IdempotencyEnabled {
		return st, nil
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	l.Info().Msg("connected to redis")

	st.idempotency = redisRepo.NewIdempotencyStore(redisClient)
	st.checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	st.closers = append(st.closers, loggedCloser(redisClient, "redis close", l))

	return st, nil
}

// loggedCloser adapts c to a storage closer, logging a failed Close.
func loggedCloser(c io.Closer, msg string, l zerolog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			l.Warn().Err(err).Msg(msg)
		}
	}
}
