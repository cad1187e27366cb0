package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
	"github.com/iho/paisbank/internal/usecase/mocks"
)

// sumHook runs before ahead of the at-th SumByCard call (1-based), letting a
// test commit a write between two reads of the reconciliation.
type sumHook struct {
	usecase.TransactionRepository
	at     int32
	calls  atomic.Int32
	before func()
}

func (h *sumHook) SumByCard(ctx context.Context, cardID int64) (decimal.Decimal, error) {
	if h.calls.Add(1) == h.at {
		h.before()
	}
	return h.TransactionRepository.SumByCard(ctx, cardID)
}

func withSumHook(l *memoryLedger, at int32, before func()) *usecase.ReconciliationUseCase {
	deps := l.deps
	deps.Transactions = &sumHook{TransactionRepository: l.deps.Transactions, at: at, before: before}
	return usecase.NewReconciliationUseCase(deps)
}

// drift overwrites the card balance without a matching transaction.
func drift(t *testing.T, l *memoryLedger, cardID int64, to string) {
	t.Helper()

	ctx := context.Background()
	card, err := l.deps.Cards.GetByID(ctx, cardID)
	require.NoError(t, err)

	tx, err := l.deps.TxManager.Begin(ctx)
	require.NoError(t, err)

	target := dec(to)
	require.NoError(t, l.deps.Cards.UpdateBalance(ctx, tx, domain.BalanceChange{
		CardID:          cardID,
		ExpectedVersion: card.Version,
		PreviousBalance: card.Balance,
		Delta:           target.Sub(card.Balance),
		NewBalance:      target,
	}, time.Now()))
	require.NoError(t, tx.Commit(ctx))
}

func TestReconcileCard(t *testing.T) {
	l := newMemoryLedger(t)
	ctx := context.Background()
	card := l.card(t, "alice", "100")

	result, err := l.reconciliation.ReconcileCard(ctx, "alice", card.ID, false)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled)
	assert.True(t, result.Difference.IsZero())

	drift(t, l, card.ID, "130")

	result, err = l.reconciliation.ReconcileCard(ctx, "alice", card.ID, false)
	require.NoError(t, err)
	assert.False(t, result.IsReconciled)
	assert.False(t, result.Repaired)
	assert.True(t, result.Difference.Equal(dec("30")))
	assert.True(t, l.balance(t, "alice", card.ID).Equal(dec("130")), "check-only must not write")

	result, err = l.reconciliation.ReconcileCard(ctx, "alice", card.ID, true)
	require.NoError(t, err)
	assert.True(t, result.Repaired)
	l.requireSumInvariant(t, "alice", card.ID)

	entries, err := l.cards.ListBalanceEntries(ctx, "alice", card.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.BalanceEntryReconcile, entries[0].Kind)
	assert.Nil(t, entries[0].TransactionID)

	_, err = l.reconciliation.ReconcileCard(ctx, "bob", card.ID, true)
	require.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestReconcileAll(t *testing.T) {
	l := newMemoryLedger(t)
	ctx := context.Background()

	healthy := l.card(t, "alice", "10")
	broken := l.card(t, "bob", "20")
	l.card(t, "carol", "0")
	drift(t, l, broken.ID, "-5")

	report, err := l.reconciliation.ReconcileAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalCards)
	assert.Equal(t, 2, report.ReconciledCards)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, broken.ID, report.Discrepancies[0].CardID)
	assert.Zero(t, report.RepairedCards)

	report, err = l.reconciliation.ReconcileAll(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.RepairedCards)

	report, err = l.reconciliation.ReconcileAll(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, report.Discrepancies)

	l.requireSumInvariant(t, "alice", healthy.ID)
	l.requireSumInvariant(t, "bob", broken.ID)
}

func TestReconcileAll_ReportsMetricsAndErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	cards := mocks.NewMockCardRepository(ctrl)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	metrics := mocks.NewMockMetrics(ctrl)

	cards.EXPECT().List(gomock.Any(), gomock.Any(), 0).Return([]*domain.Card{
		{ID: 1, Balance: dec("5")},
		{ID: 2, Balance: dec("7")},
	}, nil)
	txRepo.EXPECT().SumByCard(gomock.Any(), int64(1)).Return(dec("5"), nil)
	cards.EXPECT().GetByID(gomock.Any(), int64(1)).Return(&domain.Card{ID: 1, Balance: dec("5")}, nil)
	txRepo.EXPECT().SumByCard(gomock.Any(), int64(2)).Return(decimal.Zero, nil)
	cards.EXPECT().GetByID(gomock.Any(), int64(2)).Return(&domain.Card{ID: 2, Balance: dec("7")}, nil)
	metrics.EXPECT().SetDiscrepancies(1)

	uc := usecase.NewReconciliationUseCase(usecase.Deps{Cards: cards, Transactions: txRepo, Metrics: metrics})

	report, err := uc.ReconcileAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ReconciledCards)

	boom := errors.New("boom")
	cards.EXPECT().List(gomock.Any(), gomock.Any(), 0).Return([]*domain.Card{{ID: 3}}, nil)
	txRepo.EXPECT().SumByCard(gomock.Any(), int64(3)).Return(decimal.Zero, boom)

	_, err = uc.ReconcileAll(context.Background(), false)
	require.ErrorIs(t, err, boom)
}

func TestReconcileAll_WriteBetweenReadsIsNotDrift(t *testing.T) {
	l := newMemoryLedger(t)
	ctx := context.Background()
	card := l.card(t, "alice", "100")

	purchase := func() {
		_, err := l.transactions.CreateTransaction(ctx, "alice", usecase.CreateTransactionInput{
			CardID: card.ID,
			Amount: dec("-10"),
			Type:   domain.TransactionTypePurchase,
			Title:  "Coffee",
		})
		require.NoError(t, err)
	}

	report, err := withSumHook(l, 1, purchase).ReconcileAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ReconciledCards)
	assert.Empty(t, report.Discrepancies)

	report, err = withSumHook(l, 1, purchase).ReconcileAll(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ReconciledCards)
	assert.Zero(t, report.RepairedCards)
	assert.Empty(t, report.Discrepancies)

	entries, err := l.cards.ListBalanceEntries(ctx, "alice", card.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3, "opening deposit and two purchases, no reconcile entry")
	for _, e := range entries {
		assert.NotEqual(t, domain.BalanceEntryReconcile, e.Kind)
	}
	assert.True(t, l.balance(t, "alice", card.ID).Equal(dec("80")))
}

func TestReconcileCard_RepairOfVanishedDriftIsNoop(t *testing.T) {
	l := newMemoryLedger(t)
	ctx := context.Background()
	card := l.card(t, "alice", "100")
	drift(t, l, card.ID, "130")

	// the second sum runs inside the repair, after the drift was observed;
	// healing the balance there makes the repair find nothing to write
	uc := withSumHook(l, 2, func() { drift(t, l, card.ID, "100") })

	result, err := uc.ReconcileCard(ctx, "alice", card.ID, true)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled)
	assert.False(t, result.Repaired)
	assert.True(t, result.Difference.IsZero())

	entries, err := l.cards.ListBalanceEntries(ctx, "alice", card.ID, 10, 0)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, domain.BalanceEntryReconcile, e.Kind)
	}
}

func TestReconcileAll_SkipsCardDeletedMidRun(t *testing.T) {
	l := newMemoryLedger(t)
	ctx := context.Background()
	doomed := l.card(t, "alice", "5")
	l.card(t, "bob", "7")

	uc := withSumHook(l, 1, func() {
		require.NoError(t, l.cards.DeleteCard(ctx, "alice", doomed.ID))
	})

	report, err := uc.ReconcileAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalCards)
	assert.Equal(t, 1, report.ReconciledCards)
}
