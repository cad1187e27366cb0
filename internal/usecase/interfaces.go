package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/paisbank/internal/domain"
)

// CardRepository defines data access for cards.
type CardRepository interface {
	// Create inserts the card and assigns its ID.
	Create(ctx context.Context, tx Transaction, card *domain.Card) error
	GetByID(ctx context.Context, id int64) (*domain.Card, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id int64) (*domain.Card, error)
	ListByOwner(ctx context.Context, owner string) ([]*domain.Card, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Card, error)
	// Update writes the descriptive attributes only.
	Update(ctx context.Context, card *domain.Card) error
	// UpdateBalance applies change only while the stored version equals
	// change.ExpectedVersion, otherwise it returns domain.ErrBalanceConflict.
	UpdateBalance(ctx context.Context, tx Transaction, change domain.BalanceChange, updatedAt time.Time) error
	// Delete removes the card together with its transactions and entries.
	Delete(ctx context.Context, tx Transaction, id int64) error
}

// TransactionRepository defines data access for card transactions.
type TransactionRepository interface {
	// Create inserts the transaction and assigns its ID.
	Create(ctx context.Context, tx Transaction, t *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id int64) (*domain.Transaction, error)
	// Update stores t while the stored version equals t.Version and bumps
	// t.Version; a mismatch returns domain.ErrStaleVersion.
	Update(ctx context.Context, tx Transaction, t *domain.Transaction) error
	Delete(ctx context.Context, tx Transaction, id, expectedVersion int64) error
	// ListByOwner returns the owner's transactions, newest date first.
	ListByOwner(ctx context.Context, owner string) ([]*domain.Transaction, error)
	Search(ctx context.Context, q domain.TransactionQuery) (domain.QueryResult, error)
	SumByCard(ctx context.Context, cardID int64) (decimal.Decimal, error)
}

// BalanceEntryRepository defines data access for balance entries.
type BalanceEntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.BalanceEntry) error
	ListByCard(ctx context.Context, cardID int64, limit, offset int) ([]*domain.BalanceEntry, error)
}

// Transaction represents a store transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs op while it fails with a retryable conflict.
type Retrier interface {
	Retry(ctx context.Context, op func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key whose request failed before producing a response.
	Delete(ctx context.Context, key string) error
}

// Metrics records ledger outcomes. A nil Metrics is valid.
type Metrics interface {
	ObserveMutation(operation, outcome string, d time.Duration)
	IncConflict()
	SetDiscrepancies(n int)
}
