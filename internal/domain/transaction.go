package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a money movement.
type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeFee        TransactionType = "fee"
)

var validTransactionTypes = map[TransactionType]bool{
	TransactionTypePurchase:   true,
	TransactionTypeRefund:     true,
	TransactionTypeDeposit:    true,
	TransactionTypeWithdrawal: true,
	TransactionTypeTransfer:   true,
	TransactionTypeFee:        true,
}

// IsValid checks if the type is one of the known types.
func (t TransactionType) IsValid() bool {
	return validTransactionTypes[t]
}

// ParseTransactionType parses a type name case-insensitively.
func ParseTransactionType(raw string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, raw)
	}
	return t, nil
}

// Transaction is a money movement recorded against exactly one card. The
// card reference never changes after creation; the amount may be amended.
type Transaction struct {
	ID        int64
	CardID    int64
	Owner     string
	Title     string
	Amount    decimal.Decimal
	Currency  string
	Type      TransactionType
	Date      time.Time
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the transaction's own fields.
func (t *Transaction) Validate() error {
	if err := ValidateTitle(t.Title); err != nil {
		return err
	}

	if !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}

	return ValidateAmount(t.Amount)
}

// TransactionPatch is a partial update. A nil field is left untouched.
type TransactionPatch struct {
	Title    *string
	Amount   *decimal.Decimal
	Currency *string
	Type     *TransactionType
	Date     *time.Time
	CardID   *int64
}

// Validate checks the fields present in the patch.
func (p TransactionPatch) Validate() error {
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}

	if p.Amount != nil {
		if err := ValidateAmount(*p.Amount); err != nil {
			return err
		}
	}

	if p.Currency != nil {
		if err := ValidateCurrency(*p.Currency); err != nil {
			return err
		}
	}

	if p.Type != nil && !p.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, *p.Type)
	}

	return nil
}

// ChangesAmount reports whether applying the patch to t moves the balance.
func (p TransactionPatch) ChangesAmount(t *Transaction) bool {
	return p.Amount != nil && !p.Amount.Equal(t.Amount)
}

// Apply returns a copy of t with the patch applied. The card reference is
// immutable; a patch naming another card is rejected.
func (t *Transaction) Apply(p TransactionPatch) (*Transaction, error) {
	if p.CardID != nil && *p.CardID != t.CardID {
		return nil, ErrCardImmutable
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	updated := *t

	if p.Title != nil {
		updated.Title = strings.TrimSpace(*p.Title)
	}
	if p.Amount != nil {
		updated.Amount = *p.Amount
	}
	if p.Type != nil {
		updated.Type = *p.Type
	}
	if p.Date != nil {
		updated.Date = p.Date.UTC()
	}

	return &updated, nil
}
