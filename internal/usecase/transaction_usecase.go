package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/paisbank/internal/domain"
)

// TransactionUseCase handles card transaction business logic.
type TransactionUseCase struct {
	ledger
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(deps Deps) *TransactionUseCase {
	return &TransactionUseCase{ledger: newLedger(deps)}
}

// CreateTransactionInput represents input for recording a transaction.
type CreateTransactionInput struct {
	CardID   int64
	Amount   decimal.Decimal
	Currency string
	Type     domain.TransactionType
	Title    string
	Date     *time.Time
}

// CreateTransaction records a transaction against one of principal's cards
// and moves the card balance by its amount.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, principal string, input CreateTransactionInput) (*domain.Transaction, error) {
	if principal == "" {
		return nil, domain.ErrUnauthorized
	}

	draft := &domain.Transaction{
		CardID: input.CardID,
		Owner:  principal,
		Title:  strings.TrimSpace(input.Title),
		Amount: input.Amount,
		Type:   input.Type,
	}

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Transaction
	err := uc.mutate(ctx, OpCreateTransaction, func(ctx context.Context, tx Transaction) error {
		card, err := uc.lockOwnedCard(ctx, tx, principal, input.CardID)
		if err != nil {
			return err
		}

		change, err := uc.reconciler.OnCreate(card, domain.NewMoney(input.Amount, input.Currency))
		if err != nil {
			return err
		}

		now := uc.Now()
		t := *draft
		t.Currency = card.Currency
		t.Date = now
		if input.Date != nil {
			t.Date = input.Date.UTC()
		}
		t.Version = 1
		t.CreatedAt = now
		t.UpdatedAt = now

		if err := uc.Transactions.Create(ctx, tx, &t); err != nil {
			return err
		}

		if err := uc.applyChange(ctx, tx, change, &t.ID, now); err != nil {
			return err
		}

		created = &t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// AmendTransaction applies patch to a transaction. Only an amount change
// touches the card balance.
func (uc *TransactionUseCase) AmendTransaction(ctx context.Context, principal string, id int64, patch domain.TransactionPatch) (*domain.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var amended *domain.Transaction
	err := uc.mutate(ctx, OpAmendTransaction, func(ctx context.Context, tx Transaction) error {
		card, current, err := uc.lockOwned(ctx, tx, principal, id)
		if err != nil {
			return err
		}

		updated, err := current.Apply(patch)
		if err != nil {
			return err
		}

		currency := ""
		if patch.Currency != nil {
			currency = *patch.Currency
		}

		change, err := uc.reconciler.OnAmend(card,
			domain.NewMoney(current.Amount, ""),
			domain.NewMoney(updated.Amount, currency),
		)
		if err != nil {
			return err
		}

		now := uc.Now()
		updated.UpdatedAt = now

		if err := uc.Transactions.Update(ctx, tx, updated); err != nil {
			return notFoundAs(err, domain.ErrTransactionNotFound)
		}

		if err := uc.applyChange(ctx, tx, change, &updated.ID, now); err != nil {
			return err
		}

		amended = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return amended, nil
}

// DeleteTransaction deletes a transaction and reverses its contribution to
// the card balance.
func (uc *TransactionUseCase) DeleteTransaction(ctx context.Context, principal string, id int64) error {
	return uc.mutate(ctx, OpDeleteTransaction, func(ctx context.Context, tx Transaction) error {
		card, current, err := uc.lockOwned(ctx, tx, principal, id)
		if err != nil {
			return err
		}

		change, err := uc.reconciler.OnDelete(card, domain.NewMoney(current.Amount, ""))
		if err != nil {
			return err
		}

		if err := uc.Transactions.Delete(ctx, tx, current.ID, current.Version); err != nil {
			return notFoundAs(err, domain.ErrTransactionNotFound)
		}

		return uc.applyChange(ctx, tx, change, &current.ID, uc.Now())
	})
}

// lockOwned locks the card and then the transaction, in that order, and
// checks principal owns both. Anything not owned reads as not found.
func (uc *TransactionUseCase) lockOwned(ctx context.Context, tx Transaction, principal string, id int64) (*domain.Card, *domain.Transaction, error) {
	// The card reference never changes, so an unlocked read finds the card
	// to lock first.
	peek, err := uc.Transactions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFoundAs(err, domain.ErrTransactionNotFound)
	}

	if peek.Owner != principal {
		return nil, nil, domain.ErrTransactionNotFound
	}

	card, err := uc.Cards.GetByIDForUpdate(ctx, tx, peek.CardID)
	if err != nil {
		return nil, nil, notFoundAs(err, domain.ErrTransactionNotFound)
	}

	current, err := uc.Transactions.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, nil, notFoundAs(err, domain.ErrTransactionNotFound)
	}

	lookup := func(context.Context, int64) (*domain.Card, error) { return card, nil }

	ok, err := domain.AuthorizeTransaction(ctx, principal, current, lookup)
	if err != nil {
		return nil, nil, err
	}
	if !ok || current.CardID != card.ID {
		return nil, nil, domain.ErrTransactionNotFound
	}

	return card, current, nil
}

// GetTransaction returns a transaction on one of principal's cards.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, principal string, id int64) (*domain.Transaction, error) {
	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	t, err := uc.Transactions.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(notFoundAs(err, domain.ErrTransactionNotFound))
	}

	ok, err := domain.AuthorizeTransaction(ctx, principal, t, uc.Cards.GetByID)
	if err != nil {
		return nil, storeError(err)
	}
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	return t, nil
}

// ListTransactions returns all of principal's transactions, newest first.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, principal string) ([]*domain.Transaction, error) {
	if principal == "" {
		return nil, domain.ErrUnauthorized
	}

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	items, err := uc.Transactions.ListByOwner(ctx, principal)
	return items, storeError(err)
}

// SearchTransactions runs q scoped to principal. The scope owner is always
// the caller, whatever q carries.
func (uc *TransactionUseCase) SearchTransactions(ctx context.Context, principal string, q domain.TransactionQuery) (domain.QueryResult, error) {
	if principal == "" {
		return domain.QueryResult{}, domain.ErrUnauthorized
	}

	q.Scope.Owner = principal
	q = q.Normalize()

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	res, err := uc.Transactions.Search(ctx, q)
	if err != nil {
		return domain.QueryResult{}, storeError(err)
	}

	if res.Items == nil {
		res.Items = []*domain.Transaction{}
	}

	return res, nil
}
