package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceEntryKind names the mutation that produced a balance write.
type BalanceEntryKind string

const (
	BalanceEntryCreate    BalanceEntryKind = "create"
	BalanceEntryAmend     BalanceEntryKind = "amend"
	BalanceEntryDelete    BalanceEntryKind = "delete"
	BalanceEntryReconcile BalanceEntryKind = "reconcile"
)

// BalanceEntry records one write to a card's balance. Entries are
// append-only and committed together with the balance they describe.
type BalanceEntry struct {
	ID              string
	CardID          int64
	TransactionID   *int64
	Kind            BalanceEntryKind
	Delta           decimal.Decimal
	PreviousBalance decimal.Decimal
	CurrentBalance  decimal.Decimal
	CardVersion     int64
	CreatedAt       time.Time
}

// NewBalanceEntry builds the entry describing change. transactionID is nil
// for reconciliation writes.
func NewBalanceEntry(id string, change BalanceChange, transactionID *int64, at time.Time) *BalanceEntry {
	return &BalanceEntry{
		ID:              id,
		CardID:          change.CardID,
		TransactionID:   transactionID,
		Kind:            change.Kind,
		Delta:           change.Delta,
		PreviousBalance: change.PreviousBalance,
		CurrentBalance:  change.NewBalance,
		CardVersion:     change.NextVersion(),
		CreatedAt:       at,
	}
}
