package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
)

// SuccessResponse is the envelope for successful calls.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse is the envelope for failed calls. Error carries the HTTP
// status code as a string.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CardResponse represents a card in API responses.
type CardResponse struct {
	ID         int64           `json:"id"`
	User       string          `json:"user"`
	Name       string          `json:"name"`
	CardNumber string          `json:"card_number"`
	Issuer     string          `json:"issuer"`
	ExpiryDate string          `json:"expiry_date"`
	Currency   string          `json:"currency"`
	Balance    decimal.Decimal `json:"balance"`
	Version    int64           `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CardFromDomain converts domain card to response.
func CardFromDomain(c *domain.Card) *CardResponse {
	return &CardResponse{
		ID:         c.ID,
		User:       c.Owner,
		Name:       c.Name,
		CardNumber: c.CardNumber,
		Issuer:     c.Issuer,
		ExpiryDate: c.ExpiryDate,
		Currency:   c.Currency,
		Balance:    c.Balance,
		Version:    c.Version,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// CardsFromDomain converts domain cards to responses.
func CardsFromDomain(cards []*domain.Card) []*CardResponse {
	result := make([]*CardResponse, len(cards))
	for i, c := range cards {
		result[i] = CardFromDomain(c)
	}
	return result
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID        int64           `json:"id"`
	Card      int64           `json:"card"`
	User      string          `json:"user"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Type      string          `json:"type"`
	Date      time.Time       `json:"date"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:        t.ID,
		Card:      t.CardID,
		User:      t.Owner,
		Title:     t.Title,
		Amount:    t.Amount,
		Currency:  t.Currency,
		Type:      string(t.Type),
		Date:      t.Date,
		Version:   t.Version,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(items []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(items))
	for i, t := range items {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// SearchResponse is the search payload: one page plus the total match count.
type SearchResponse struct {
	Data  []*TransactionResponse `json:"data"`
	Count int                    `json:"count"`
}

// SearchFromDomain converts a query result to response.
func SearchFromDomain(res domain.QueryResult) *SearchResponse {
	return &SearchResponse{
		Data:  TransactionsFromDomain(res.Items),
		Count: res.Count,
	}
}

// BalanceEntryResponse represents a balance entry in API responses.
type BalanceEntryResponse struct {
	ID              string          `json:"id"`
	Card            int64           `json:"card"`
	Transaction     *int64          `json:"transaction,omitempty"`
	Kind            string          `json:"kind"`
	Delta           decimal.Decimal `json:"delta"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	CardVersion     int64           `json:"card_version"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BalanceEntriesFromDomain converts domain entries to responses.
func BalanceEntriesFromDomain(entries []*domain.BalanceEntry) []*BalanceEntryResponse {
	result := make([]*BalanceEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = &BalanceEntryResponse{
			ID:              e.ID,
			Card:            e.CardID,
			Transaction:     e.TransactionID,
			Kind:            string(e.Kind),
			Delta:           e.Delta,
			PreviousBalance: e.PreviousBalance,
			CurrentBalance:  e.CurrentBalance,
			CardVersion:     e.CardVersion,
			CreatedAt:       e.CreatedAt,
		}
	}
	return result
}

// ReconciliationResponse represents one card's reconciliation result.
type ReconciliationResponse struct {
	Card              int64           `json:"card"`
	Currency          string          `json:"currency"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	IsReconciled      bool            `json:"is_reconciled"`
	Repaired          bool            `json:"repaired"`
	LastChecked       time.Time       `json:"last_checked"`
}

// ReconciliationFromDomain converts a reconciliation result to response.
func ReconciliationFromDomain(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		Card:              r.CardID,
		Currency:          r.Currency,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		IsReconciled:      r.IsReconciled,
		Repaired:          r.Repaired,
		LastChecked:       r.LastChecked,
	}
}
