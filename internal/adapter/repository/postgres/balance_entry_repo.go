package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/infrastructure/postgres/generated"
	"github.com/iho/paisbank/internal/usecase"
)

// BalanceEntryRepository implements usecase.BalanceEntryRepository.
type BalanceEntryRepository struct {
	queries *generated.Queries
}

// NewBalanceEntryRepository creates a new BalanceEntryRepository.
func NewBalanceEntryRepository(pool *pgxpool.Pool) *BalanceEntryRepository {
	return newBalanceEntryRepository(pool)
}

func newBalanceEntryRepository(db generated.DBTX) *BalanceEntryRepository {
	return &BalanceEntryRepository{queries: generated.New(db)}
}

// Create creates a new entry.
func (r *BalanceEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.BalanceEntry) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	err = generated.New(ptx).CreateBalanceEntry(ctx, generated.CreateBalanceEntryParams{
		ID:              entry.ID,
		CardID:          entry.CardID,
		TransactionID:   int64PtrToPgInt8(entry.TransactionID),
		Kind:            string(entry.Kind),
		Delta:           decimalToNumeric(entry.Delta),
		PreviousBalance: decimalToNumeric(entry.PreviousBalance),
		CurrentBalance:  decimalToNumeric(entry.CurrentBalance),
		CardVersion:     entry.CardVersion,
		CreatedAt:       timeToPgTimestamptz(entry.CreatedAt),
	})

	return mapError(err)
}

// ListByCard returns the card's entries, newest first.
func (r *BalanceEntryRepository) ListByCard(ctx context.Context, cardID int64, limit, offset int) ([]*domain.BalanceEntry, error) {
	rows, err := r.queries.ListBalanceEntriesByCard(ctx, generated.ListBalanceEntriesByCardParams{
		CardID: cardID,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	entries := make([]*domain.BalanceEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &domain.BalanceEntry{
			ID:              row.ID,
			CardID:          row.CardID,
			TransactionID:   pgInt8ToInt64Ptr(row.TransactionID),
			Kind:            domain.BalanceEntryKind(row.Kind),
			Delta:           numericToDecimal(row.Delta),
			PreviousBalance: numericToDecimal(row.PreviousBalance),
			CurrentBalance:  numericToDecimal(row.CurrentBalance),
			CardVersion:     row.CardVersion,
			CreatedAt:       row.CreatedAt.Time,
		})
	}

	return entries, nil
}
