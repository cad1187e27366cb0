package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/paisbank/internal/domain"
)

// PostgreSQL error codes for retryable errors.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// DefaultMaxAttempts is how many times a balance mutation is tried before
// the conflict reaches the caller.
const DefaultMaxAttempts = 3

// Retrier implements usecase.Retrier with exponential backoff. It re-runs
// operations that lost a compare-and-swap or hit a serialization failure.
type Retrier struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
}

// NewRetrier creates a retrier making at most maxAttempts attempts.
func NewRetrier(maxAttempts int, logger zerolog.Logger) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Retrier{
		maxAttempts:     maxAttempts,
		initialInterval: 20 * time.Millisecond,
		maxInterval:     500 * time.Millisecond,
		maxElapsedTime:  5 * time.Second,
		logger:          logger,
	}
}

// WithIntervals overrides the backoff intervals.
func (r *Retrier) WithIntervals(initial, max time.Duration) *Retrier {
	r.initialInterval = initial
	r.maxInterval = max
	return r
}

// Retry executes an operation with exponential backoff on retryable errors.
// A serialization failure that survives every attempt is reported as
// domain.ErrConflict.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	attempt := 0

	err := backoff.Retry(func() error {
		attempt++

		err := operation()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}

		if attempt >= r.maxAttempts {
			return backoff.Permanent(err)
		}

		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", r.maxAttempts).
			Msg("retryable store conflict, retrying")

		return err
	}, backoff.WithContext(b, ctx))

	if err != nil && isSerializationError(err) {
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	}

	return err
}

// isRetryableError checks if an error should trigger a retry.
func isRetryableError(err error) bool {
	return errors.Is(err, domain.ErrConflict) || isSerializationError(err)
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return true
		}
	}
	return false
}
