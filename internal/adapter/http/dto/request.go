package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
)

// CreateCardRequest represents a request to create a card.
type CreateCardRequest struct {
	Name       string          `json:"name"`
	CardNumber string          `json:"card_number"`
	Issuer     string          `json:"issuer"`
	ExpiryDate string          `json:"expiry_date"`
	Currency   string          `json:"currency"`
	Balance    decimal.Decimal `json:"balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCardRequest) ToUseCaseInput() usecase.CreateCardInput {
	return usecase.CreateCardInput{
		Name:       r.Name,
		CardNumber: r.CardNumber,
		Issuer:     r.Issuer,
		ExpiryDate: r.ExpiryDate,
		Currency:   r.Currency,
		Balance:    r.Balance,
	}
}

// UpdateCardRequest is a partial card edit. Balance is decoded so that an
// attempt to set it can be rejected rather than silently dropped.
type UpdateCardRequest struct {
	Name       *string          `json:"name,omitempty"`
	CardNumber *string          `json:"card_number,omitempty"`
	Issuer     *string          `json:"issuer,omitempty"`
	ExpiryDate *string          `json:"expiry_date,omitempty"`
	Balance    *decimal.Decimal `json:"balance,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateCardRequest) ToUseCaseInput() usecase.UpdateCardInput {
	return usecase.UpdateCardInput{
		Patch: domain.CardPatch{
			Name:       r.Name,
			CardNumber: r.CardNumber,
			Issuer:     r.Issuer,
			ExpiryDate: r.ExpiryDate,
		},
		Balance: r.Balance,
	}
}

// CreateTransactionRequest represents a request to record a transaction.
type CreateTransactionRequest struct {
	Card     int64           `json:"card"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
	Type     string          `json:"type"`
	Title    string          `json:"title"`
	Date     *time.Time      `json:"date,omitempty"`
}

// ToUseCaseInput converts to use case input. The type is parsed here so an
// unknown name fails before any store work.
func (r *CreateTransactionRequest) ToUseCaseInput() (usecase.CreateTransactionInput, error) {
	t, err := domain.ParseTransactionType(r.Type)
	if err != nil {
		return usecase.CreateTransactionInput{}, err
	}

	return usecase.CreateTransactionInput{
		CardID:   r.Card,
		Amount:   r.Amount,
		Currency: r.Currency,
		Type:     t,
		Title:    r.Title,
		Date:     r.Date,
	}, nil
}

// AmendTransactionRequest is a partial transaction edit.
type AmendTransactionRequest struct {
	Title    *string          `json:"title,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Currency *string          `json:"currency,omitempty"`
	Type     *string          `json:"type,omitempty"`
	Date     *time.Time       `json:"date,omitempty"`
	Card     *int64           `json:"card,omitempty"`
}

// ToPatch converts to a domain patch.
func (r *AmendTransactionRequest) ToPatch() (domain.TransactionPatch, error) {
	patch := domain.TransactionPatch{
		Title:    r.Title,
		Amount:   r.Amount,
		Currency: r.Currency,
		Date:     r.Date,
		CardID:   r.Card,
	}

	if r.Type != nil {
		t, err := domain.ParseTransactionType(*r.Type)
		if err != nil {
			return domain.TransactionPatch{}, err
		}
		patch.Type = &t
	}

	return patch, nil
}

// Search query parameters.
const (
	ParamSearchValue = "searchValue"
	ParamSortBy      = "sortBy"
	ParamLimit       = "limit"
	ParamOffset      = "offset"
)

// SearchQuery builds a transaction query from URL parameters. Filters are
// parsed by the domain; scope is filled in by the use case.
func SearchQuery(params map[string][]string) (domain.TransactionQuery, error) {
	filter, err := domain.ParseTransactionFilter(params)
	if err != nil {
		return domain.TransactionQuery{}, err
	}

	first := func(key string) string {
		if v := params[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	return domain.TransactionQuery{
		Filter:     filter,
		SearchText: first(ParamSearchValue),
		SortKey:    first(ParamSortBy),
	}, nil
}
