package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/paisbank/internal/domain"
)

// ReconciliationUseCase recomputes card balances from their transactions.
// It is the backstop for the incrementally maintained balance.
type ReconciliationUseCase struct {
	ledger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(deps Deps) *ReconciliationUseCase {
	return &ReconciliationUseCase{ledger: newLedger(deps)}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	CardID            int64
	Currency          string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	Repaired          bool
	LastChecked       time.Time
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalCards      int
	ReconciledCards int
	RepairedCards   int
	Discrepancies   []*ReconciliationResult
	CheckedAt       time.Time
}

// ReconcileCard compares one of principal's cards with the sum of its
// transactions. With repair set, a drifted balance is reset to the sum.
func (uc *ReconciliationUseCase) ReconcileCard(ctx context.Context, principal string, id int64, repair bool) (*ReconciliationResult, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	card, err := uc.ownedCard(ctx, principal, id)
	if err != nil {
		return nil, storeError(err)
	}

	return uc.reconcile(ctx, card, repair)
}

// ReconcileAll checks every card in the store.
func (uc *ReconciliationUseCase) ReconcileAll(ctx context.Context, repair bool) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     uc.Now(),
	}

	for offset := 0; ; offset += reconcileBatchSize {
		cards, err := uc.listBatch(ctx, offset)
		if err != nil {
			return nil, err
		}

		for _, card := range cards {
			result, err := uc.reconcile(ctx, card, repair)
			if errors.Is(err, domain.ErrCardNotFound) {
				// deleted since the batch was listed
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile card %d: %w", card.ID, err)
			}

			report.TotalCards++
			if result.IsReconciled {
				report.ReconciledCards++
				continue
			}
			if result.Repaired {
				report.RepairedCards++
			}
			report.Discrepancies = append(report.Discrepancies, result)
		}

		if len(cards) < reconcileBatchSize {
			break
		}
	}

	if uc.Metrics != nil {
		uc.Metrics.SetDiscrepancies(len(report.Discrepancies) - report.RepairedCards)
	}

	return report, nil
}

func (uc *ReconciliationUseCase) listBatch(ctx context.Context, offset int) ([]*domain.Card, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	cards, err := uc.Cards.List(ctx, reconcileBatchSize, offset)
	return cards, storeError(err)
}

func (uc *ReconciliationUseCase) reconcile(ctx context.Context, card *domain.Card, repair bool) (*ReconciliationResult, error) {
	card, sum, err := uc.snapshot(ctx, card)
	if err != nil {
		return nil, err
	}

	result := &ReconciliationResult{
		CardID:            card.ID,
		Currency:          card.Currency,
		RecordedBalance:   card.Balance,
		CalculatedBalance: sum,
		Difference:        card.Balance.Sub(sum),
		IsReconciled:      card.Balance.Equal(sum),
		LastChecked:       uc.Now(),
	}

	if result.IsReconciled || !repair {
		return result, nil
	}

	err = uc.mutate(ctx, OpReconcileCard, func(ctx context.Context, tx Transaction) error {
		locked, err := uc.Cards.GetByIDForUpdate(ctx, tx, card.ID)
		if err != nil {
			return notFoundAs(err, domain.ErrCardNotFound)
		}

		fresh, err := uc.Transactions.SumByCard(ctx, card.ID)
		if err != nil {
			return err
		}

		change, err := uc.reconciler.OnRecompute(locked, fresh)
		if err != nil {
			return err
		}

		result.RecordedBalance = locked.Balance
		result.CalculatedBalance = fresh
		result.Difference = locked.Balance.Sub(fresh)
		result.IsReconciled = change.IsNoop()
		result.Repaired = false

		if change.IsNoop() {
			return nil
		}

		if err := uc.applyChange(ctx, tx, change, nil, uc.Now()); err != nil {
			return err
		}

		result.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// snapshot returns the card and the sum of its transactions as of the same
// card version. Every balance write bumps the version, so an unchanged
// version after summing means no balance write committed in between. When
// writes keep landing, the pair is read under the card lock instead.
func (uc *ReconciliationUseCase) snapshot(ctx context.Context, card *domain.Card) (*domain.Card, decimal.Decimal, error) {
	for i := 0; i < reconcileSnapshotAttempts; i++ {
		sum, err := uc.sum(ctx, card.ID)
		if err != nil {
			return nil, decimal.Zero, err
		}

		after, err := uc.card(ctx, card.ID)
		if err != nil {
			return nil, decimal.Zero, err
		}

		if after.Version == card.Version {
			return after, sum, nil
		}
		card = after
	}

	return uc.lockedSnapshot(ctx, card.ID)
}

func (uc *ReconciliationUseCase) lockedSnapshot(ctx context.Context, id int64) (*domain.Card, decimal.Decimal, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	tx, err := uc.TxManager.Begin(ctx)
	if err != nil {
		return nil, decimal.Zero, storeError(err)
	}
	defer tx.Rollback(ctx)

	card, err := uc.Cards.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, decimal.Zero, storeError(notFoundAs(err, domain.ErrCardNotFound))
	}

	sum, err := uc.Transactions.SumByCard(ctx, id)
	if err != nil {
		return nil, decimal.Zero, storeError(err)
	}

	return card, sum, nil
}

func (uc *ReconciliationUseCase) card(ctx context.Context, id int64) (*domain.Card, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	card, err := uc.Cards.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(notFoundAs(err, domain.ErrCardNotFound))
	}
	return card, nil
}

func (uc *ReconciliationUseCase) sum(ctx context.Context, cardID int64) (decimal.Decimal, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	sum, err := uc.Transactions.SumByCard(ctx, cardID)
	return sum, storeError(err)
}
