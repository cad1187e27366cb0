package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseTransactionType(t *testing.T) {
	t.Parallel()

	got, err := ParseTransactionType(" Purchase ")
	if err != nil || got != TransactionTypePurchase {
		t.Fatalf("ParseTransactionType = %q, %v", got, err)
	}

	if _, err := ParseTransactionType("gift"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestTransactionApply(t *testing.T) {
	t.Parallel()

	base := &Transaction{
		ID:       7,
		CardID:   1,
		Owner:    "alice",
		Title:    "Coffee",
		Amount:   decimal.RequireFromString("-4.50"),
		Currency: "USD",
		Type:     TransactionTypePurchase,
		Date:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Version:  2,
	}

	t.Run("descriptive fields only", func(t *testing.T) {
		title := "  Espresso "
		patch := TransactionPatch{Title: &title}

		updated, err := base.Apply(patch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Title != "Espresso" {
			t.Errorf("title = %q", updated.Title)
		}
		if patch.ChangesAmount(base) {
			t.Error("title-only patch must not change amount")
		}
		if base.Title != "Coffee" {
			t.Error("Apply must not mutate the receiver")
		}
	})

	t.Run("same card id accepted", func(t *testing.T) {
		card := int64(1)
		if _, err := base.Apply(TransactionPatch{CardID: &card}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("card change rejected", func(t *testing.T) {
		card := int64(2)
		_, err := base.Apply(TransactionPatch{CardID: &card})
		if !errors.Is(err, ErrCardImmutable) || !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrCardImmutable, got %v", err)
		}
	})

	t.Run("amount change detected", func(t *testing.T) {
		amount := decimal.RequireFromString("-4.5")
		patch := TransactionPatch{Amount: &amount}
		if patch.ChangesAmount(base) {
			t.Error("equal decimal must not count as a change")
		}

		amount = decimal.RequireFromString("-6")
		patch = TransactionPatch{Amount: &amount}
		if !patch.ChangesAmount(base) {
			t.Error("expected amount change")
		}
	})

	t.Run("invalid patch fields", func(t *testing.T) {
		zero := decimal.Zero
		if _, err := base.Apply(TransactionPatch{Amount: &zero}); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount, got %v", err)
		}

		bad := TransactionType("gift")
		if _, err := base.Apply(TransactionPatch{Type: &bad}); !errors.Is(err, ErrInvalidType) {
			t.Errorf("expected ErrInvalidType, got %v", err)
		}

		empty := ""
		if _, err := base.Apply(TransactionPatch{Title: &empty}); !errors.Is(err, ErrInvalidTitle) {
			t.Errorf("expected ErrInvalidTitle, got %v", err)
		}
	})
}

func TestCardApply(t *testing.T) {
	t.Parallel()

	card := &Card{ID: 1, Owner: "alice", Name: "Visa", Currency: "USD", Balance: decimal.NewFromInt(10)}

	name := "Visa Platinum"
	number := "4111 1111 1111 1111"
	updated, err := card.Apply(CardPatch{Name: &name, CardNumber: &number})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != name || updated.CardNumber != "4111111111111111" {
		t.Errorf("unexpected card %+v", updated)
	}
	if !updated.Balance.Equal(card.Balance) {
		t.Error("card patch must not touch balance")
	}

	expiry := "99/99"
	if _, err := card.Apply(CardPatch{ExpiryDate: &expiry}); !errors.Is(err, ErrInvalidExpiry) {
		t.Errorf("expected ErrInvalidExpiry, got %v", err)
	}

	if !(CardPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
}
