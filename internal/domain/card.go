package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Card is a payment instrument owned by one principal. Balance is a
// materialized sum of the card's transaction amounts; Version is bumped on
// every balance write and serves as the compare-and-swap token.
type Card struct {
	ID         int64
	Owner      string
	Name       string
	CardNumber string
	Issuer     string
	ExpiryDate string
	Currency   string
	Balance    decimal.Decimal
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the descriptive attributes of a card.
func (c *Card) Validate() error {
	if err := ValidateCardName(c.Name); err != nil {
		return err
	}

	if err := ValidateCurrency(c.Currency); err != nil {
		return err
	}

	if err := ValidateCardNumber(c.CardNumber); err != nil {
		return err
	}

	return ValidateExpiryDate(c.ExpiryDate)
}

// CardPatch holds the card attributes a user may edit. Balance and currency
// are absent on purpose: both are tied to the card's transactions.
type CardPatch struct {
	Name       *string
	CardNumber *string
	Issuer     *string
	ExpiryDate *string
}

// IsEmpty reports whether the patch changes nothing.
func (p CardPatch) IsEmpty() bool {
	return p.Name == nil && p.CardNumber == nil && p.Issuer == nil && p.ExpiryDate == nil
}

// Apply returns a copy of the card with the patch applied and validated.
func (c *Card) Apply(p CardPatch) (*Card, error) {
	updated := *c

	if p.Name != nil {
		updated.Name = strings.TrimSpace(*p.Name)
	}
	if p.CardNumber != nil {
		updated.CardNumber = strings.ReplaceAll(strings.TrimSpace(*p.CardNumber), " ", "")
	}
	if p.Issuer != nil {
		updated.Issuer = strings.TrimSpace(*p.Issuer)
	}
	if p.ExpiryDate != nil {
		updated.ExpiryDate = strings.TrimSpace(*p.ExpiryDate)
	}

	if err := updated.Validate(); err != nil {
		return nil, err
	}

	return &updated, nil
}

// Money is an amount tagged with its currency. An empty currency means
// "the card's currency".
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// NewMoney builds a Money value.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// conform checks m may be booked against the card and returns the amount.
func (c *Card) conform(m Money) (decimal.Decimal, error) {
	if m.Currency == "" {
		return m.Amount, nil
	}

	if err := ValidateCurrency(m.Currency); err != nil {
		return decimal.Zero, err
	}

	if NormalizeCurrency(m.Currency) != c.Currency {
		return decimal.Zero, fmt.Errorf("%w: got %s, card is %s", ErrCurrencyMismatch, NormalizeCurrency(m.Currency), c.Currency)
	}

	return m.Amount, nil
}
