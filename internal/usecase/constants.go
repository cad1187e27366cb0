package usecase

import "time"

const (
	// DefaultStoreTimeout bounds every use-case operation, retries included.
	DefaultStoreTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPending is stored under a key while its first request runs.
	IdempotencyPending = "processing"

	// OpeningBalanceTitle is the title of the deposit recorded when a card is
	// created with a non-zero balance.
	OpeningBalanceTitle = "Opening balance"

	// reconcileBatchSize is the page size used when walking all cards.
	reconcileBatchSize = 500

	// reconcileSnapshotAttempts bounds the optimistic card/sum reads before
	// reconciliation falls back to reading under the card lock.
	reconcileSnapshotAttempts = 3
)

// Mutation outcomes reported to Metrics.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeNotFound    = "not_found"
	OutcomeConflict    = "conflict"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Operation names reported to Metrics.
const (
	OpCreateCard        = "create_card"
	OpDeleteCard        = "delete_card"
	OpCreateTransaction = "create_transaction"
	OpAmendTransaction  = "amend_transaction"
	OpDeleteTransaction = "delete_transaction"
	OpReconcileCard     = "reconcile_card"
)
