package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createCard = `-- name: CreateCard :one
INSERT INTO cards ("user", name, card_number, issuer, expiry_date, currency, balance, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, "user", name, card_number, issuer, expiry_date, currency, balance, version, created_at, updated_at
`

type CreateCardParams struct {
	User       string             `json:"user"`
	Name       string             `json:"name"`
	CardNumber string             `json:"card_number"`
	Issuer     string             `json:"issuer"`
	ExpiryDate string             `json:"expiry_date"`
	Currency   string             `json:"currency"`
	Balance    pgtype.Numeric     `json:"balance"`
	Version    int64              `json:"version"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
	UpdatedAt  pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateCard(ctx context.Context, arg CreateCardParams) (Card, error) {
	row := q.db.QueryRow(ctx, createCard,
		arg.User,
		arg.Name,
		arg.CardNumber,
		arg.Issuer,
		arg.ExpiryDate,
		arg.Currency,
		arg.Balance,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i Card
	err := row.Scan(
		&i.ID,
		&i.User,
		&i.Name,
		&i.CardNumber,
		&i.Issuer,
		&i.ExpiryDate,
		&i.Currency,
		&i.Balance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteCard = `-- name: DeleteCard :execrows
DELETE FROM cards WHERE id = $1
`

func (q *Queries) DeleteCard(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCard, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getCardByID = `-- name: GetCardByID :one
SELECT id, "user", name, card_number, issuer, expiry_date, currency, balance, version, created_at, updated_at FROM cards WHERE id = $1
`

func (q *Queries) GetCardByID(ctx context.Context, id int64) (Card, error) {
	row := q.db.QueryRow(ctx, getCardByID, id)
	var i Card
	err := row.Scan(
		&i.ID,
		&i.User,
		&i.Name,
		&i.CardNumber,
		&i.Issuer,
		&i.ExpiryDate,
		&i.Currency,
		&i.Balance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getCardByIDForUpdate = `-- name: GetCardByIDForUpdate :one
SELECT id, "user", name, card_number, issuer, expiry_date, currency, balance, version, created_at, updated_at FROM cards WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetCardByIDForUpdate(ctx context.Context, id int64) (Card, error) {
	row := q.db.QueryRow(ctx, getCardByIDForUpdate, id)
	var i Card
	err := row.Scan(
		&i.ID,
		&i.User,
		&i.Name,
		&i.CardNumber,
		&i.Issuer,
		&i.ExpiryDate,
		&i.Currency,
		&i.Balance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listCards = `-- name: ListCards :many
SELECT id, "user", name, card_number, issuer, expiry_date, currency, balance, version, created_at, updated_at FROM cards
ORDER BY id
LIMIT $1 OFFSET $2
`

type ListCardsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListCards(ctx context.Context, arg ListCardsParams) ([]Card, error) {
	rows, err := q.db.Query(ctx, listCards, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Card{}
	for rows.Next() {
		var i Card
		if err := rows.Scan(
			&i.ID,
			&i.User,
			&i.Name,
			&i.CardNumber,
			&i.Issuer,
			&i.ExpiryDate,
			&i.Currency,
			&i.Balance,
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

const listCardsByUser = `-- name: ListCardsByUser :many
SELECT id, "user", name, card_number, issuer, expiry_date, currency, balance, version, created_at, updated_at FROM cards
WHERE "user" = $1
ORDER BY id
`

func (q *Queries) ListCardsByUser(ctx context.Context, user string) ([]Card, error) {
	rows, err := q.db.Query(ctx, listCardsByUser, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Card{}
	for rows.Next() {
		var i Card
		if err := rows.Scan(
			&i.ID,
			&i.User,
			&i.Name,
			&i.CardNumber,
			&i.Issuer,
			&i.ExpiryDate,
			&i.Currency,
			&i.Balance,
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

const updateCardBalance = `-- name: UpdateCardBalance :execrows
UPDATE cards
SET balance = $3, version = version + 1, updated_at = $4
WHERE id = $1 AND version = $2
`

type UpdateCardBalanceParams struct {
	ID        int64              `json:"id"`
	Version   int64              `json:"version"`
	Balance   pgtype.Numeric     `json:"balance"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateCardBalance(ctx context.Context, arg UpdateCardBalanceParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateCardBalance,
		arg.ID,
		arg.Version,
		arg.Balance,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const updateCardDetails = `-- name: UpdateCardDetails :execrows
UPDATE cards
SET name = $2, card_number = $3, issuer = $4, expiry_date = $5, updated_at = $6
WHERE id = $1
`

type UpdateCardDetailsParams struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	CardNumber string             `json:"card_number"`
	Issuer     string             `json:"issuer"`
	ExpiryDate string             `json:"expiry_date"`
	UpdatedAt  pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateCardDetails(ctx context.Context, arg UpdateCardDetailsParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateCardDetails,
		arg.ID,
		arg.Name,
		arg.CardNumber,
		arg.Issuer,
		arg.ExpiryDate,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
