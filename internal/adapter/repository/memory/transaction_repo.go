package memory

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create stages the insert and assigns the transaction ID.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	t.ID = r.store.txSeq.Add(1)
	row := *t

	return mtx.stage(func(st *state) error {
		if _, ok := st.cards[row.CardID]; !ok {
			return domain.ErrCardNotFound
		}
		st.transactions[row.ID] = row
		return nil
	})
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		t  domain.Transaction
		ok bool
	)
	r.store.read(func(st *state) {
		t, ok = st.transactions[id]
	})
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	return &t, nil
}

// GetByIDForUpdate reads the committed transaction; see
// CardRepository.GetByIDForUpdate.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Transaction, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Update stages a version-checked write of t and bumps t.Version.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	expected := t.Version
	t.Version++
	row := *t

	return mtx.stage(func(st *state) error {
		stored, ok := st.transactions[row.ID]
		if !ok {
			return domain.ErrTransactionNotFound
		}
		if stored.Version != expected {
			return domain.ErrStaleVersion
		}

		row.CardID = stored.CardID
		row.Owner = stored.Owner
		row.CreatedAt = stored.CreatedAt
		st.transactions[row.ID] = row

		return nil
	})
}

// Delete stages a version-checked delete.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id, expectedVersion int64) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	return mtx.stage(func(st *state) error {
		stored, ok := st.transactions[id]
		if !ok {
			return domain.ErrTransactionNotFound
		}
		if stored.Version != expectedVersion {
			return domain.ErrStaleVersion
		}

		delete(st.transactions, id)

		return nil
	})
}

// ListByOwner returns the owner's transactions, newest date first.
func (r *TransactionRepository) ListByOwner(ctx context.Context, owner string) ([]*domain.Transaction, error) {
	items, err := r.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(items, func(a, b *domain.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	return items, nil
}

// Search applies q in memory.
func (r *TransactionRepository) Search(ctx context.Context, q domain.TransactionQuery) (domain.QueryResult, error) {
	items, err := r.snapshot(ctx, q.Scope.Owner)
	if err != nil {
		return domain.QueryResult{}, err
	}

	return q.Apply(items), nil
}

// SumByCard sums the amounts of the card's transactions.
func (r *TransactionRepository) SumByCard(ctx context.Context, cardID int64) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	r.store.read(func(st *state) {
		for _, t := range st.transactions {
			if t.CardID == cardID {
				sum = sum.Add(t.Amount)
			}
		}
	})

	return sum, nil
}

func (r *TransactionRepository) snapshot(ctx context.Context, owner string) ([]*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]*domain.Transaction, 0)
	r.store.read(func(st *state) {
		for _, t := range st.transactions {
			t := t
			if t.Owner == owner {
				items = append(items, &t)
			}
		}
	})

	return items, nil
}
