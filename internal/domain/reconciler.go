package domain

import "github.com/shopspring/decimal"

// BalanceChange is the write-set for one balance mutation. It is applied by
// the store as a compare-and-swap: the card row is updated only while its
// version still equals ExpectedVersion.
type BalanceChange struct {
	CardID          int64
	Kind            BalanceEntryKind
	ExpectedVersion int64
	PreviousBalance decimal.Decimal
	Delta           decimal.Decimal
	NewBalance      decimal.Decimal
}

// IsNoop reports whether the change leaves the balance untouched.
func (c BalanceChange) IsNoop() bool {
	return c.Delta.IsZero()
}

// NextVersion is the card version after the change is applied.
func (c BalanceChange) NextVersion() int64 {
	return c.ExpectedVersion + 1
}

// BalanceReconciler computes balance changes for transaction mutations.
// It never performs writes.
type BalanceReconciler struct{}

// NewBalanceReconciler creates a reconciler.
func NewBalanceReconciler() *BalanceReconciler {
	return &BalanceReconciler{}
}

// OnCreate computes the balance after recording amount against card.
func (r *BalanceReconciler) OnCreate(card *Card, amount Money) (BalanceChange, error) {
	delta, err := r.delta(card, amount)
	if err != nil {
		return BalanceChange{}, err
	}

	if err := ValidateAmount(delta); err != nil {
		return BalanceChange{}, err
	}

	return r.change(card, BalanceEntryCreate, delta), nil
}

// OnAmend computes the balance after a transaction amount moves from oldAmount
// to newAmount. Equal amounts yield a no-op change.
func (r *BalanceReconciler) OnAmend(card *Card, oldAmount, newAmount Money) (BalanceChange, error) {
	before, err := r.delta(card, oldAmount)
	if err != nil {
		return BalanceChange{}, err
	}

	after, err := r.delta(card, newAmount)
	if err != nil {
		return BalanceChange{}, err
	}

	if err := ValidateAmount(after); err != nil {
		return BalanceChange{}, err
	}

	return r.change(card, BalanceEntryAmend, after.Sub(before)), nil
}

// OnDelete computes the balance after removing a transaction of amount.
func (r *BalanceReconciler) OnDelete(card *Card, removed Money) (BalanceChange, error) {
	amount, err := r.delta(card, removed)
	if err != nil {
		return BalanceChange{}, err
	}

	return r.change(card, BalanceEntryDelete, amount.Neg()), nil
}

// OnRecompute computes the change that resets the balance to sum, the
// freshly aggregated total of the card's transactions.
func (r *BalanceReconciler) OnRecompute(card *Card, sum decimal.Decimal) (BalanceChange, error) {
	if card == nil {
		return BalanceChange{}, ErrCardNotFound
	}

	return r.change(card, BalanceEntryReconcile, sum.Sub(card.Balance)), nil
}

func (r *BalanceReconciler) delta(card *Card, m Money) (decimal.Decimal, error) {
	if card == nil {
		return decimal.Zero, ErrCardNotFound
	}

	return card.conform(m)
}

func (r *BalanceReconciler) change(card *Card, kind BalanceEntryKind, delta decimal.Decimal) BalanceChange {
	return BalanceChange{
		CardID:          card.ID,
		Kind:            kind,
		ExpectedVersion: card.Version,
		PreviousBalance: card.Balance,
		Delta:           delta,
		NewBalance:      card.Balance.Add(delta),
	}
}
