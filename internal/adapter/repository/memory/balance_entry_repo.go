package memory

import (
	"context"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
)

// BalanceEntryRepository implements usecase.BalanceEntryRepository.
type BalanceEntryRepository struct {
	store *Store
}

// NewBalanceEntryRepository creates a new BalanceEntryRepository.
func NewBalanceEntryRepository(store *Store) *BalanceEntryRepository {
	return &BalanceEntryRepository{store: store}
}

// Create stages an append.
func (r *BalanceEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.BalanceEntry) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	row := *entry

	return t.stage(func(st *state) error {
		st.entries = append(st.entries, row)
		return nil
	})
}

// ListByCard returns the card's entries, newest first.
func (r *BalanceEntryRepository) ListByCard(ctx context.Context, cardID int64, limit, offset int) ([]*domain.BalanceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]*domain.BalanceEntry, 0)
	r.store.read(func(st *state) {
		skipped := 0
		for i := len(st.entries) - 1; i >= 0; i-- {
			if st.entries[i].CardID != cardID {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			if limit > 0 && len(entries) == limit {
				return
			}
			e := st.entries[i]
			entries = append(entries, &e)
		}
	})

	return entries, nil
}
