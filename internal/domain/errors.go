package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the ledger wraps exactly one of
// these, so callers classify with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflicting concurrent update")
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	// Card errors
	ErrCardNotFound   = fmt.Errorf("card %w", ErrNotFound)
	ErrBalanceDerived = fmt.Errorf("%w: balance is derived from transactions and cannot be edited", ErrValidation)

	// Transaction errors
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be a non-zero decimal", ErrValidation)
	ErrCurrencyMismatch    = fmt.Errorf("%w: currency does not match card currency", ErrValidation)
	ErrInvalidType         = fmt.Errorf("%w: unknown transaction type", ErrValidation)
	ErrCardImmutable       = fmt.Errorf("%w: transaction card cannot be changed", ErrValidation)

	// Concurrency errors
	ErrBalanceConflict = fmt.Errorf("%w: card balance changed concurrently", ErrConflict)
	ErrStaleVersion    = fmt.Errorf("%w: row version is stale", ErrConflict)
)

// IsRetryable reports whether the caller may safely resubmit the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrStoreUnavailable)
}

// Unavailable wraps a store failure (timeout, lost connection) so it
// classifies as ErrStoreUnavailable while keeping the cause.
func Unavailable(cause error) error {
	if cause == nil || errors.Is(cause, ErrStoreUnavailable) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, cause)
}
