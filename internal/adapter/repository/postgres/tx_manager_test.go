package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/iho/paisbank/internal/domain"
)

func TestTxManagerBeginCommit(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectCommit()

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := pgxTx(tx); err != nil {
		t.Fatalf("transaction from TxManager must unwrap: %v", err)
	}

	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, pool)
}

func TestTxManagerBeginErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{name: "connection lost", err: &pgconn.PgError{Code: "08006"}, unavailable: true},
		{name: "too many connections", err: &pgconn.PgError{Code: pgErrTooManyConnections}, unavailable: true},
		{name: "other", err: errors.New("begin failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newMockPool(t)
			pool.ExpectBegin().WillReturnError(tt.err)

			tx, err := newTxManagerWithPool(pool).Begin(context.Background())
			if err == nil || tx != nil {
				t.Fatalf("expected begin error, got err=%v tx=%v", err, tx)
			}
			if !errors.Is(err, tt.err) {
				t.Fatalf("cause must be preserved, got %v", err)
			}
			if errors.Is(err, domain.ErrStoreUnavailable) != tt.unavailable {
				t.Fatalf("unavailable mismatch for %v", err)
			}
			if domain.IsRetryable(err) != tt.unavailable {
				t.Fatalf("retryable mismatch for %v", err)
			}
		})
	}
}

func TestTxCommitSerializationFailureIsRetried(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectCommit().WillReturnError(&pgconn.PgError{Code: pgErrSerializationFailure})

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = tx.Commit(context.Background())
	if !isRetryableError(err) {
		t.Fatalf("serialization failure on commit must be retryable by the retrier, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestTxRollback(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectRollback()

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	assertExpectations(t, pool)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}
