package domain

import (
	"context"
	"errors"
)

// CardLookup resolves a card by ID.
type CardLookup func(ctx context.Context, id int64) (*Card, error)

// Authorize reports whether principal owns card.
func Authorize(principal string, card *Card) bool {
	return principal != "" && card != nil && card.Owner == principal
}

// AuthorizeTransaction reports whether principal owns the card tx is
// recorded against. A lookup miss yields false without error; every other
// lookup error is returned unchanged.
func AuthorizeTransaction(ctx context.Context, principal string, tx *Transaction, lookup CardLookup) (bool, error) {
	if principal == "" || tx == nil || tx.Owner != principal {
		return false, nil
	}

	card, err := lookup(ctx, tx.CardID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return Authorize(principal, card), nil
}
