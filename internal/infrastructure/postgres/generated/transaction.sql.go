package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (card_id, "user", title, amount, currency, type, date, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, card_id, "user", title, amount, currency, type, date, version, created_at, updated_at
`

type CreateTransactionParams struct {
	CardID    int64              `json:"card_id"`
	User      string             `json:"user"`
	Title     string             `json:"title"`
	Amount    pgtype.Numeric     `json:"amount"`
	Currency  string             `json:"currency"`
	Type      string             `json:"type"`
	Date      pgtype.Timestamptz `json:"date"`
	Version   int64              `json:"version"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, createTransaction,
		arg.CardID,
		arg.User,
		arg.Title,
		arg.Amount,
		arg.Currency,
		arg.Type,
		arg.Date,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.CardID,
		&i.User,
		&i.Title,
		&i.Amount,
		&i.Currency,
		&i.Type,
		&i.Date,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM transactions WHERE id = $1 AND version = $2
`

type DeleteTransactionParams struct {
	ID      int64 `json:"id"`
	Version int64 `json:"version"`
}

func (q *Queries) DeleteTransaction(ctx context.Context, arg DeleteTransactionParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTransaction, arg.ID, arg.Version)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getTransactionByID = `-- name: GetTransactionByID :one
SELECT id, card_id, "user", title, amount, currency, type, date, version, created_at, updated_at FROM transactions WHERE id = $1
`

func (q *Queries) GetTransactionByID(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByID, id)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.CardID,
		&i.User,
		&i.Title,
		&i.Amount,
		&i.Currency,
		&i.Type,
		&i.Date,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getTransactionByIDForUpdate = `-- name: GetTransactionByIDForUpdate :one
SELECT id, card_id, "user", title, amount, currency, type, date, version, created_at, updated_at FROM transactions WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetTransactionByIDForUpdate(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByIDForUpdate, id)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.CardID,
		&i.User,
		&i.Title,
		&i.Amount,
		&i.Currency,
		&i.Type,
		&i.Date,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listTransactionsByUser = `-- name: ListTransactionsByUser :many
SELECT id, card_id, "user", title, amount, currency, type, date, version, created_at, updated_at FROM transactions
WHERE "user" = $1
ORDER BY date DESC, id DESC
`

func (q *Queries) ListTransactionsByUser(ctx context.Context, user string) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByUser, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.CardID,
			&i.User,
			&i.Title,
			&i.Amount,
			&i.Currency,
			&i.Type,
			&i.Date,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const sumTransactionsByCard = `-- name: SumTransactionsByCard :one
SELECT COALESCE(SUM(amount), 0)::NUMERIC(20,4) FROM transactions WHERE card_id = $1
`

func (q *Queries) SumTransactionsByCard(ctx context.Context, cardID int64) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumTransactionsByCard, cardID)
	var column_1 pgtype.Numeric
	err := row.Scan(&column_1)
	return column_1, err
}

const updateTransaction = `-- name: UpdateTransaction :execrows
UPDATE transactions
SET title = $3, amount = $4, currency = $5, type = $6, date = $7, version = version + 1, updated_at = $8
WHERE id = $1 AND version = $2
`

type UpdateTransactionParams struct {
	ID        int64              `json:"id"`
	Version   int64              `json:"version"`
	Title     string             `json:"title"`
	Amount    pgtype.Numeric     `json:"amount"`
	Currency  string             `json:"currency"`
	Type      string             `json:"type"`
	Date      pgtype.Timestamptz `json:"date"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateTransaction,
		arg.ID,
		arg.Version,
		arg.Title,
		arg.Amount,
		arg.Currency,
		arg.Type,
		arg.Date,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
