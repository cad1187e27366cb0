package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
)

// CardRepository implements usecase.CardRepository.
type CardRepository struct {
	store *Store
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(store *Store) *CardRepository {
	return &CardRepository{store: store}
}

// Create stages the insert and assigns the card ID.
func (r *CardRepository) Create(ctx context.Context, tx usecase.Transaction, card *domain.Card) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	card.ID = r.store.cardSeq.Add(1)
	row := *card

	return t.stage(func(st *state) error {
		st.cards[row.ID] = row
		return nil
	})
}

// GetByID retrieves a card by ID.
func (r *CardRepository) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		card domain.Card
		ok   bool
	)
	r.store.read(func(st *state) {
		card, ok = st.cards[id]
	})
	if !ok {
		return nil, domain.ErrCardNotFound
	}

	return &card, nil
}

// GetByIDForUpdate reads the committed card. The memory store does not lock:
// the version compare at commit catches concurrent writers.
func (r *CardRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Card, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}

	card, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.store.delay(ctx)

	return card, nil
}

// ListByOwner returns the owner's cards by ID.
func (r *CardRepository) ListByOwner(ctx context.Context, owner string) ([]*domain.Card, error) {
	return r.list(ctx, func(c *domain.Card) bool { return c.Owner == owner }, 0, 0)
}

// List returns a page of all cards by ID.
func (r *CardRepository) List(ctx context.Context, limit, offset int) ([]*domain.Card, error) {
	return r.list(ctx, func(*domain.Card) bool { return true }, limit, offset)
}

func (r *CardRepository) list(ctx context.Context, keep func(*domain.Card) bool, limit, offset int) ([]*domain.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cards := make([]*domain.Card, 0)
	r.store.read(func(st *state) {
		for _, c := range st.cards {
			c := c
			if keep(&c) {
				cards = append(cards, &c)
			}
		}
	})

	slices.SortFunc(cards, func(a, b *domain.Card) int { return cmp.Compare(a.ID, b.ID) })

	if offset > len(cards) {
		offset = len(cards)
	}
	cards = cards[offset:]
	if limit > 0 && len(cards) > limit {
		cards = cards[:limit]
	}

	return cards, nil
}

// Update writes the descriptive attributes of a card.
func (r *CardRepository) Update(ctx context.Context, card *domain.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.store.update(func(st *state) error {
		row, ok := st.cards[card.ID]
		if !ok {
			return domain.ErrCardNotFound
		}

		row.Name = card.Name
		row.CardNumber = card.CardNumber
		row.Issuer = card.Issuer
		row.ExpiryDate = card.ExpiryDate
		row.UpdatedAt = card.UpdatedAt
		st.cards[card.ID] = row

		return nil
	})
}

// UpdateBalance stages a compare-and-swap of the card balance on its version.
func (r *CardRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, change domain.BalanceChange, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	return t.stage(func(st *state) error {
		row, ok := st.cards[change.CardID]
		if !ok {
			return domain.ErrCardNotFound
		}

		if row.Version != change.ExpectedVersion {
			return domain.ErrBalanceConflict
		}

		row.Balance = change.NewBalance
		row.Version = change.NextVersion()
		row.UpdatedAt = updatedAt
		st.cards[row.ID] = row

		return nil
	})
}

// Delete stages removal of the card, its transactions and its entries.
func (r *CardRepository) Delete(ctx context.Context, tx usecase.Transaction, id int64) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	return t.stage(func(st *state) error {
		if _, ok := st.cards[id]; !ok {
			return domain.ErrCardNotFound
		}

		delete(st.cards, id)

		for txID, row := range st.transactions {
			if row.CardID == id {
				delete(st.transactions, txID)
			}
		}

		st.entries = slices.DeleteFunc(st.entries, func(e domain.BalanceEntry) bool {
			return e.CardID == id
		})

		return nil
	})
}
