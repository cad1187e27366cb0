package handler

import (
	"context"
	"net/http"

	"github.com/iho/paisbank/internal/adapter/http/dto"
	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
)

// CardService defines the behavior needed by CardHandler.
type CardService interface {
	CreateCard(ctx context.Context, principal string, input usecase.CreateCardInput) (*domain.Card, error)
	GetCard(ctx context.Context, principal string, id int64) (*domain.Card, error)
	ListCards(ctx context.Context, principal string) ([]*domain.Card, error)
	UpdateCard(ctx context.Context, principal string, id int64, input usecase.UpdateCardInput) (*domain.Card, error)
	DeleteCard(ctx context.Context, principal string, id int64) error
	ListBalanceEntries(ctx context.Context, principal string, cardID int64, limit, offset int) ([]*domain.BalanceEntry, error)
}

// CardReconciler defines the single-card reconciliation used by CardHandler.
type CardReconciler interface {
	ReconcileCard(ctx context.Context, principal string, id int64, repair bool) (*usecase.ReconciliationResult, error)
}

// CardHandler handles card-related HTTP requests.
type CardHandler struct {
	cards      CardService
	reconciler CardReconciler
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cards CardService, reconciler CardReconciler) *CardHandler {
	return &CardHandler{cards: cards, reconciler: reconciler}
}

// List returns the caller's cards.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.ListCards(r.Context(), principalID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardsFromDomain(cards))
}

// Create creates a card for the caller.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.cards.CreateCard(r.Context(), principalID(r), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardFromDomain(card))
}

// Get retrieves one of the caller's cards.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	card, err := h.cards.GetCard(r.Context(), principalID(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardFromDomain(card))
}

// Update edits the descriptive fields of a card.
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.cards.UpdateCard(r.Context(), principalID(r), id, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardFromDomain(card))
}

// Delete removes a card and everything recorded against it.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.cards.DeleteCard(r.Context(), principalID(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// Entries lists the balance history of a card, newest first.
func (h *CardHandler) Entries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, dto.ParamLimit, 50)
	offset := parseIntQuery(r, dto.ParamOffset, 0)

	entries, err := h.cards.ListBalanceEntries(r.Context(), principalID(r), id, limit, offset)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceEntriesFromDomain(entries))
}

// Reconcile compares the card balance with its transactions. It never writes.
func (h *CardHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	h.reconcile(w, r, false)
}

// Repair reconciles the card and resets a drifted balance to the sum of its
// transactions.
func (h *CardHandler) Repair(w http.ResponseWriter, r *http.Request) {
	h.reconcile(w, r, true)
}

func (h *CardHandler) reconcile(w http.ResponseWriter, r *http.Request, repair bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.reconciler.ReconcileCard(r.Context(), principalID(r), id, repair)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(result))
}
