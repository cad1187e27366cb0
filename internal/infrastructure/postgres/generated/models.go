package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type BalanceEntry struct {
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

type Card struct {
	ID         int64              `json:"id"`
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

type Transaction struct {
	ID        int64              `json:"id"`
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
