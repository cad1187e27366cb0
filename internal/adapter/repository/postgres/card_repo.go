package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/infrastructure/postgres/generated"
	"github.com/iho/paisbank/internal/usecase"
)

// CardRepository implements usecase.CardRepository.
type CardRepository struct {
	queries *generated.Queries
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(pool *pgxpool.Pool) *CardRepository {
	return newCardRepository(pool)
}

func newCardRepository(db generated.DBTX) *CardRepository {
	return &CardRepository{queries: generated.New(db)}
}

// Create inserts card and sets its store-assigned ID.
func (r *CardRepository) Create(ctx context.Context, tx usecase.Transaction, card *domain.Card) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	row, err := generated.New(ptx).CreateCard(ctx, generated.CreateCardParams{
		User:       card.Owner,
		Name:       card.Name,
		CardNumber: card.CardNumber,
		Issuer:     card.Issuer,
		ExpiryDate: card.ExpiryDate,
		Currency:   card.Currency,
		Balance:    decimalToNumeric(card.Balance),
		Version:    card.Version,
		CreatedAt:  timeToPgTimestamptz(card.CreatedAt),
		UpdatedAt:  timeToPgTimestamptz(card.UpdatedAt),
	})
	if err != nil {
		return mapError(err)
	}

	card.ID = row.ID

	return nil
}

// GetByID retrieves a card by ID.
func (r *CardRepository) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	row, err := r.queries.GetCardByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrCardNotFound)
	}

	return rowToCard(row), nil
}

// GetByIDForUpdate retrieves a card by ID with a FOR UPDATE lock.
func (r *CardRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Card, error) {
	ptx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	row, err := generated.New(ptx).GetCardByIDForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrCardNotFound)
	}

	return rowToCard(row), nil
}

// ListByOwner returns the owner's cards by ID.
func (r *CardRepository) ListByOwner(ctx context.Context, owner string) ([]*domain.Card, error) {
	rows, err := r.queries.ListCardsByUser(ctx, owner)
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToCards(rows), nil
}

// List lists all cards with pagination.
func (r *CardRepository) List(ctx context.Context, limit, offset int) ([]*domain.Card, error) {
	rows, err := r.queries.ListCards(ctx, generated.ListCardsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToCards(rows), nil
}

// Update writes the descriptive fields of card. Balance and version are
// left alone.
func (r *CardRepository) Update(ctx context.Context, card *domain.Card) error {
	n, err := r.queries.UpdateCardDetails(ctx, generated.UpdateCardDetailsParams{
		ID:         card.ID,
		Name:       card.Name,
		CardNumber: card.CardNumber,
		Issuer:     card.Issuer,
		ExpiryDate: card.ExpiryDate,
		UpdatedAt:  timeToPgTimestamptz(card.UpdatedAt),
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return domain.ErrCardNotFound
	}

	return nil
}

// UpdateBalance writes change.NewBalance if the card is still at
// change.ExpectedVersion.
func (r *CardRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, change domain.BalanceChange, updatedAt time.Time) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	n, err := generated.New(ptx).UpdateCardBalance(ctx, generated.UpdateCardBalanceParams{
		ID:        change.CardID,
		Version:   change.ExpectedVersion,
		Balance:   decimalToNumeric(change.NewBalance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return domain.ErrBalanceConflict
	}

	return nil
}

// Delete removes the card. Transactions and balance entries go with it
// through ON DELETE CASCADE.
func (r *CardRepository) Delete(ctx context.Context, tx usecase.Transaction, id int64) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	n, err := generated.New(ptx).DeleteCard(ctx, id)
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return domain.ErrCardNotFound
	}

	return nil
}

func rowsToCards(rows []generated.Card) []*domain.Card {
	cards := make([]*domain.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, rowToCard(row))
	}
	return cards
}

func rowToCard(row generated.Card) *domain.Card {
	return &domain.Card{
		ID:         row.ID,
		Owner:      row.User,
		Name:       row.Name,
		CardNumber: row.CardNumber,
		Issuer:     row.Issuer,
		ExpiryDate: row.ExpiryDate,
		Currency:   row.Currency,
		Balance:    numericToDecimal(row.Balance),
		Version:    row.Version,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}
