package domain_test

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/paisbank/internal/domain"
)

func usd(s string) domain.Money {
	return domain.NewMoney(decimal.RequireFromString(s), "USD")
}

func applyChange(card *domain.Card, change domain.BalanceChange) {
	if change.IsNoop() {
		return
	}
	card.Balance = change.NewBalance
	card.Version = change.NextVersion()
}

func TestBalanceReconciler_Scenarios(t *testing.T) {
	r := domain.NewBalanceReconciler()
	card := &domain.Card{ID: 1, Owner: "alice", Currency: "USD", Balance: decimal.RequireFromString("100.00"), Version: 3}

	// create -25.50 against 100.00
	change, err := r.OnCreate(card, usd("-25.50"))
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceEntryCreate, change.Kind)
	assert.Equal(t, int64(3), change.ExpectedVersion)
	assert.True(t, change.NewBalance.Equal(decimal.RequireFromString("74.50")), "got %s", change.NewBalance)
	applyChange(card, change)

	// amend -25.50 to -30.00
	change, err = r.OnAmend(card, usd("-25.50"), usd("-30.00"))
	require.NoError(t, err)
	assert.True(t, change.Delta.Equal(decimal.RequireFromString("-4.50")))
	assert.True(t, change.NewBalance.Equal(decimal.RequireFromString("70.00")), "got %s", change.NewBalance)
	applyChange(card, change)

	// delete the -30.00 transaction
	change, err = r.OnDelete(card, usd("-30.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceEntryDelete, change.Kind)
	assert.True(t, change.NewBalance.Equal(decimal.RequireFromString("100.00")), "got %s", change.NewBalance)
	applyChange(card, change)

	assert.Equal(t, int64(6), card.Version)
}

func TestBalanceReconciler_NoopAmend(t *testing.T) {
	r := domain.NewBalanceReconciler()
	card := &domain.Card{ID: 1, Currency: "USD", Balance: decimal.RequireFromString("12.34"), Version: 1}

	change, err := r.OnAmend(card, usd("-5.00"), usd("-5"))
	require.NoError(t, err)
	assert.True(t, change.IsNoop())
	assert.True(t, change.NewBalance.Equal(card.Balance))
}

func TestBalanceReconciler_Currency(t *testing.T) {
	r := domain.NewBalanceReconciler()
	card := &domain.Card{ID: 1, Currency: "USD", Balance: decimal.Zero}

	t.Run("empty currency inherits card currency", func(t *testing.T) {
		change, err := r.OnCreate(card, domain.NewMoney(decimal.NewFromInt(5), ""))
		require.NoError(t, err)
		assert.True(t, change.NewBalance.Equal(decimal.NewFromInt(5)))
	})

	t.Run("lowercase same currency accepted", func(t *testing.T) {
		_, err := r.OnCreate(card, domain.NewMoney(decimal.NewFromInt(5), "usd"))
		require.NoError(t, err)
	})

	t.Run("cross currency rejected", func(t *testing.T) {
		_, err := r.OnCreate(card, domain.NewMoney(decimal.NewFromInt(5), "EUR"))
		require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown currency rejected", func(t *testing.T) {
		_, err := r.OnAmend(card, usd("1"), domain.NewMoney(decimal.NewFromInt(5), "XYZ"))
		require.ErrorIs(t, err, domain.ErrInvalidCurrency)
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		_, err := r.OnCreate(card, usd("0"))
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("missing card", func(t *testing.T) {
		_, err := r.OnDelete(nil, usd("1"))
		require.ErrorIs(t, err, domain.ErrCardNotFound)
	})
}

func TestBalanceReconciler_Recompute(t *testing.T) {
	r := domain.NewBalanceReconciler()
	card := &domain.Card{ID: 9, Currency: "USD", Balance: decimal.RequireFromString("10"), Version: 4}

	change, err := r.OnRecompute(card, decimal.RequireFromString("7.25"))
	require.NoError(t, err)
	assert.Equal(t, domain.BalanceEntryReconcile, change.Kind)
	assert.True(t, change.Delta.Equal(decimal.RequireFromString("-2.75")))
	assert.True(t, change.NewBalance.Equal(decimal.RequireFromString("7.25")))

	change, err = r.OnRecompute(card, decimal.RequireFromString("10.00"))
	require.NoError(t, err)
	assert.True(t, change.IsNoop())
}

// Random create/amend/delete sequences keep the balance equal to the sum of
// the live transaction amounts.
func TestBalanceReconciler_SumProperty(t *testing.T) {
	r := domain.NewBalanceReconciler()
	rng := rand.New(rand.NewSource(42))

	randomAmount := func() decimal.Decimal {
		cents := rng.Int63n(200000) - 100000
		if cents == 0 {
			cents = 1
		}
		return decimal.New(cents, -2)
	}

	for run := 0; run < 50; run++ {
		card := &domain.Card{ID: 1, Currency: "USD", Balance: decimal.Zero}
		live := map[int]decimal.Decimal{}
		nextID := 0

		for step := 0; step < 200; step++ {
			switch op := rng.Intn(3); {
			case op == 0 || len(live) == 0:
				amount := randomAmount()
				change, err := r.OnCreate(card, domain.NewMoney(amount, ""))
				require.NoError(t, err)
				applyChange(card, change)
				live[nextID] = amount
				nextID++
			case op == 1:
				id := pickKey(rng, live)
				amount := randomAmount()
				change, err := r.OnAmend(card, domain.NewMoney(live[id], ""), domain.NewMoney(amount, ""))
				require.NoError(t, err)
				applyChange(card, change)
				live[id] = amount
			default:
				id := pickKey(rng, live)
				change, err := r.OnDelete(card, domain.NewMoney(live[id], ""))
				require.NoError(t, err)
				applyChange(card, change)
				delete(live, id)
			}

			sum := decimal.Zero
			for _, a := range live {
				sum = sum.Add(a)
			}
			require.True(t, card.Balance.Equal(sum), "run %d step %d: balance %s != sum %s", run, step, card.Balance, sum)
		}
	}
}

func pickKey(rng *rand.Rand, m map[int]decimal.Decimal) int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys[rng.Intn(len(keys))]
}
