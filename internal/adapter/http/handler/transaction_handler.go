package handler

import (
	"context"
	"net/http"

	"github.com/iho/paisbank/internal/adapter/http/dto"
	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateTransaction(ctx context.Context, principal string, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	AmendTransaction(ctx context.Context, principal string, id int64, patch domain.TransactionPatch) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, principal string, id int64) error
	GetTransaction(ctx context.Context, principal string, id int64) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, principal string) ([]*domain.Transaction, error)
	SearchTransactions(ctx context.Context, principal string, q domain.TransactionQuery) (domain.QueryResult, error)
}

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	transactions TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactions TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// List returns all of the caller's transactions, newest first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.transactions.ListTransactions(r.Context(), principalID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(items))
}

// Create records a transaction against one of the caller's cards.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	t, err := h.transactions.CreateTransaction(r.Context(), principalID(r), input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}

// Get retrieves one of the caller's transactions.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	t, err := h.transactions.GetTransaction(r.Context(), principalID(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}

// Amend applies a partial update. Served for both PUT and PATCH.
func (h *TransactionHandler) Amend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.AmendTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch, err := req.ToPatch()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	t, err := h.transactions.AmendTransaction(r.Context(), principalID(r), id, patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}

// Delete removes a transaction and reverses its effect on the card balance.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.transactions.DeleteTransaction(r.Context(), principalID(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// Search filters, sorts and pages the caller's transactions.
func (h *TransactionHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := dto.SearchQuery(r.URL.Query())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	q.Limit = parseIntQuery(r, dto.ParamLimit, 0)
	q.Offset = parseIntQuery(r, dto.ParamOffset, 0)

	res, err := h.transactions.SearchTransactions(r.Context(), principalID(r), q)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SearchFromDomain(res))
}
