package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/paisbank/internal/domain"
)

// CardUseCase handles card business logic.
type CardUseCase struct {
	ledger
}

// NewCardUseCase creates a new CardUseCase.
func NewCardUseCase(deps Deps) *CardUseCase {
	return &CardUseCase{ledger: newLedger(deps)}
}

// CreateCardInput represents input for creating a card.
type CreateCardInput struct {
	Name       string
	CardNumber string
	Issuer     string
	ExpiryDate string
	Currency   string
	Balance    decimal.Decimal
}

// UpdateCardInput represents a card edit. Balance is accepted only to be
// rejected: it is derived from the card's transactions.
type UpdateCardInput struct {
	Patch   domain.CardPatch
	Balance *decimal.Decimal
}

// CreateCard creates a card owned by principal. A non-zero opening balance
// is recorded as a deposit in the same commit.
func (uc *CardUseCase) CreateCard(ctx context.Context, principal string, input CreateCardInput) (*domain.Card, error) {
	if principal == "" {
		return nil, domain.ErrUnauthorized
	}

	currency := domain.NormalizeCurrency(input.Currency)
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	card := &domain.Card{
		Owner:      principal,
		Name:       strings.TrimSpace(input.Name),
		CardNumber: strings.ReplaceAll(strings.TrimSpace(input.CardNumber), " ", ""),
		Issuer:     strings.TrimSpace(input.Issuer),
		ExpiryDate: strings.TrimSpace(input.ExpiryDate),
		Currency:   currency,
		Balance:    decimal.Zero,
		Version:    1,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	if !input.Balance.IsZero() {
		if err := domain.ValidateAmount(input.Balance); err != nil {
			return nil, err
		}
	}

	var created *domain.Card
	err := uc.mutate(ctx, OpCreateCard, func(ctx context.Context, tx Transaction) error {
		now := uc.Now()
		c := *card
		c.CreatedAt = now
		c.UpdatedAt = now

		if err := uc.Cards.Create(ctx, tx, &c); err != nil {
			return err
		}

		if !input.Balance.IsZero() {
			if err := uc.openingDeposit(ctx, tx, &c, input.Balance, now); err != nil {
				return err
			}
		}

		created = &c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (uc *CardUseCase) openingDeposit(ctx context.Context, tx Transaction, card *domain.Card, amount decimal.Decimal, now time.Time) error {
	change, err := uc.reconciler.OnCreate(card, domain.NewMoney(amount, card.Currency))
	if err != nil {
		return err
	}

	t := &domain.Transaction{
		CardID:    card.ID,
		Owner:     card.Owner,
		Title:     OpeningBalanceTitle,
		Amount:    amount,
		Currency:  card.Currency,
		Type:      domain.TransactionTypeDeposit,
		Date:      now,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.Transactions.Create(ctx, tx, t); err != nil {
		return err
	}

	if err := uc.applyChange(ctx, tx, change, &t.ID, now); err != nil {
		return err
	}

	card.Balance = change.NewBalance
	card.Version = change.NextVersion()

	return nil
}

// GetCard returns a card owned by principal.
func (uc *CardUseCase) GetCard(ctx context.Context, principal string, id int64) (*domain.Card, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	card, err := uc.ownedCard(ctx, principal, id)
	return card, storeError(err)
}

// ListCards returns the principal's cards.
func (uc *CardUseCase) ListCards(ctx context.Context, principal string) ([]*domain.Card, error) {
	if principal == "" {
		return nil, domain.ErrUnauthorized
	}

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	cards, err := uc.Cards.ListByOwner(ctx, principal)
	return cards, storeError(err)
}

// UpdateCard edits a card's descriptive attributes.
func (uc *CardUseCase) UpdateCard(ctx context.Context, principal string, id int64, input UpdateCardInput) (*domain.Card, error) {
	if input.Balance != nil {
		return nil, domain.ErrBalanceDerived
	}

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	card, err := uc.ownedCard(ctx, principal, id)
	if err != nil {
		return nil, storeError(err)
	}

	if input.Patch.IsEmpty() {
		return card, nil
	}

	updated, err := card.Apply(input.Patch)
	if err != nil {
		return nil, err
	}
	updated.UpdatedAt = uc.Now()

	if err := uc.Cards.Update(ctx, updated); err != nil {
		return nil, storeError(notFoundAs(err, domain.ErrCardNotFound))
	}

	return updated, nil
}

// DeleteCard deletes a card with its transactions and balance entries.
func (uc *CardUseCase) DeleteCard(ctx context.Context, principal string, id int64) error {
	return uc.mutate(ctx, OpDeleteCard, func(ctx context.Context, tx Transaction) error {
		if _, err := uc.lockOwnedCard(ctx, tx, principal, id); err != nil {
			return err
		}

		return notFoundAs(uc.Cards.Delete(ctx, tx, id), domain.ErrCardNotFound)
	})
}

// ListBalanceEntries returns the balance history of a card, newest first.
func (uc *CardUseCase) ListBalanceEntries(ctx context.Context, principal string, cardID int64, limit, offset int) ([]*domain.BalanceEntry, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	if _, err := uc.ownedCard(ctx, principal, cardID); err != nil {
		return nil, storeError(err)
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	entries, err := uc.Entries.ListByCard(ctx, cardID, limit, offset)
	return entries, storeError(err)
}
