package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createBalanceEntry = `-- name: CreateBalanceEntry :exec
INSERT INTO balance_entries (id, card_id, transaction_id, kind, delta, previous_balance, current_balance, card_version, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

type CreateBalanceEntryParams struct {
	ID              string             `json:"id"`
	CardID          int64              `json:"card_id"`
	TransactionID   pgtype.Int8        `json:"transaction_id"`
	Kind            string             `json:"kind"`
	Delta           pgtype.Numeric     `json:"delta"`
	PreviousBalance pgtype.Numeric     `json:"previous_balance"`
	CurrentBalance  pgtype.Numeric     `json:"current_balance"`
	CardVersion     int64              `json:"card_version"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateBalanceEntry(ctx context.Context, arg CreateBalanceEntryParams) error {
	_, err := q.db.Exec(ctx, createBalanceEntry,
		arg.ID,
		arg.CardID,
		arg.TransactionID,
		arg.Kind,
		arg.Delta,
		arg.PreviousBalance,
		arg.CurrentBalance,
		arg.CardVersion,
		arg.CreatedAt,
	)
	return err
}

const listBalanceEntriesByCard = `-- name: ListBalanceEntriesByCard :many
SELECT id, card_id, transaction_id, kind, delta, previous_balance, current_balance, card_version, created_at FROM balance_entries
WHERE card_id = $1
ORDER BY card_version DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListBalanceEntriesByCardParams struct {
	CardID int64 `json:"card_id"`
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListBalanceEntriesByCard(ctx context.Context, arg ListBalanceEntriesByCardParams) ([]BalanceEntry, error) {
	rows, err := q.db.Query(ctx, listBalanceEntriesByCard, arg.CardID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BalanceEntry{}
	for rows.Next() {
		var i BalanceEntry
		if err := rows.Scan(
			&i.ID,
			&i.CardID,
			&i.TransactionID,
			&i.Kind,
			&i.Delta,
			&i.PreviousBalance,
			&i.CurrentBalance,
			&i.CardVersion,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
