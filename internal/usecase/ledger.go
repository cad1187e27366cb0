package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/paisbank/internal/domain"
)

// Deps groups the collaborators shared by the ledger use cases.
type Deps struct {
	TxManager    TransactionManager
	Cards        CardRepository
	Transactions TransactionRepository
	Entries      BalanceEntryRepository
	IDGen        IDGenerator
	Retrier      Retrier
	Metrics      Metrics
	StoreTimeout time.Duration
	Now          func() time.Time
}

// ledger holds the plumbing every balance-affecting operation shares: the
// store timeout, the retry loop and the write of a BalanceChange.
type ledger struct {
	Deps
	reconciler *domain.BalanceReconciler
}

func newLedger(deps Deps) ledger {
	if deps.StoreTimeout <= 0 {
		deps.StoreTimeout = DefaultStoreTimeout
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Retrier == nil {
		deps.Retrier = onceRetrier{}
	}
	return ledger{Deps: deps, reconciler: domain.NewBalanceReconciler()}
}

func (l ledger) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, l.StoreTimeout)
}

// mutate runs op inside a store transaction, retried as a whole on
// conflicts. op must re-read everything it depends on.
func (l ledger) mutate(ctx context.Context, operation string, op func(ctx context.Context, tx Transaction) error) error {
	start := time.Now()

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	err := l.Retrier.Retry(ctx, func() error {
		tx, err := l.TxManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := op(ctx, tx); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	err = storeError(err)

	l.observe(operation, start, err)

	return err
}

// applyChange writes change and its balance entry. No-op changes write
// nothing.
func (l ledger) applyChange(ctx context.Context, tx Transaction, change domain.BalanceChange, transactionID *int64, at time.Time) error {
	if change.IsNoop() {
		return nil
	}

	if err := l.Cards.UpdateBalance(ctx, tx, change, at); err != nil {
		return err
	}

	entry := domain.NewBalanceEntry(l.IDGen.Generate(), change, transactionID, at)

	return l.Entries.Create(ctx, tx, entry)
}

// ownedCard loads a card the principal owns; a foreign card is reported as
// missing.
func (l ledger) ownedCard(ctx context.Context, principal string, id int64) (*domain.Card, error) {
	card, err := l.Cards.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrCardNotFound)
	}

	if !domain.Authorize(principal, card) {
		return nil, domain.ErrCardNotFound
	}

	return card, nil
}

// lockOwnedCard is ownedCard under the store transaction's row lock.
func (l ledger) lockOwnedCard(ctx context.Context, tx Transaction, principal string, id int64) (*domain.Card, error) {
	card, err := l.Cards.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrCardNotFound)
	}

	if !domain.Authorize(principal, card) {
		return nil, domain.ErrCardNotFound
	}

	return card, nil
}

func (l ledger) observe(operation string, start time.Time, err error) {
	if l.Metrics == nil {
		return
	}

	if errors.Is(err, domain.ErrConflict) {
		l.Metrics.IncConflict()
	}

	l.Metrics.ObserveMutation(operation, Outcome(err), time.Since(start))
}

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotAuthorized):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrConflict):
		return OutcomeConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}

// storeError turns an expired operation deadline into a retryable
// store-unavailable error.
func storeError(err error) error {
	if err == nil || errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Unavailable(err)
	}

	return err
}

// notFoundAs replaces a generic not-found with the entity-specific one and
// passes every other error through.
func notFoundAs(err, target error) error {
	if errors.Is(err, domain.ErrNotFound) && !errors.Is(err, target) {
		return target
	}
	return err
}

// onceRetrier runs the operation a single time.
type onceRetrier struct{}

func (onceRetrier) Retry(_ context.Context, op func() error) error {
	return op()
}
