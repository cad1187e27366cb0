package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/paisbank/internal/adapter/repository/memory"
	"github.com/iho/paisbank/internal/adapter/repository/postgres"
	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
)

type memoryLedger struct {
	store          *memory.Store
	deps           usecase.Deps
	cards          *usecase.CardUseCase
	transactions   *usecase.TransactionUseCase
	reconciliation *usecase.ReconciliationUseCase
}

func newMemoryLedger(t *testing.T, opts ...memory.Option) *memoryLedger {
	t.Helper()

	store := memory.NewStore(opts...)
	deps := usecase.Deps{
		TxManager:    memory.NewTxManager(store),
		Cards:        memory.NewCardRepository(store),
		Transactions: memory.NewTransactionRepository(store),
		Entries:      memory.NewBalanceEntryRepository(store),
		IDGen:        postgres.NewULIDGenerator(),
		Retrier:      postgres.NewRetrier(3, zerolog.Nop()).WithIntervals(time.Millisecond, 5*time.Millisecond),
		StoreTimeout: 5 * time.Second,
	}

	return &memoryLedger{
		store:          store,
		deps:           deps,
		cards:          usecase.NewCardUseCase(deps),
		transactions:   usecase.NewTransactionUseCase(deps),
		reconciliation: usecase.NewReconciliationUseCase(deps),
	}
}

func (l *memoryLedger) card(t *testing.T, owner, balance string) *domain.Card {
	t.Helper()

	card, err := l.cards.CreateCard(context.Background(), owner, usecase.CreateCardInput{
		Name:     "Visa",
		Currency: "USD",
		Balance:  decimal.RequireFromString(balance),
	})
	require.NoError(t, err)

	return card
}

func (l *memoryLedger) balance(t *testing.T, owner string, cardID int64) decimal.Decimal {
	t.Helper()

	card, err := l.cards.GetCard(context.Background(), owner, cardID)
	require.NoError(t, err)

	return card.Balance
}

// requireSumInvariant checks the card balance equals the sum of the live
// transactions recorded against it.
func (l *memoryLedger) requireSumInvariant(t *testing.T, owner string, cardID int64) {
	t.Helper()

	sum, err := l.deps.Transactions.SumByCard(context.Background(), cardID)
	require.NoError(t, err)

	balance := l.balance(t, owner, cardID)
	require.True(t, balance.Equal(sum), "balance %s != sum of transactions %s", balance, sum)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
