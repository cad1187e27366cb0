package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/paisbank/internal/domain"
)

func TestAuthorize(t *testing.T) {
	card := &domain.Card{ID: 1, Owner: "alice"}

	assert.True(t, domain.Authorize("alice", card))
	assert.False(t, domain.Authorize("bob", card))
	assert.False(t, domain.Authorize("", &domain.Card{ID: 2}))
	assert.False(t, domain.Authorize("alice", nil))
}

func TestAuthorizeTransaction(t *testing.T) {
	cards := map[int64]*domain.Card{
		1: {ID: 1, Owner: "alice"},
	}
	lookup := func(_ context.Context, id int64) (*domain.Card, error) {
		if c, ok := cards[id]; ok {
			return c, nil
		}
		return nil, domain.ErrCardNotFound
	}
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		ok, err := domain.AuthorizeTransaction(ctx, "alice", &domain.Transaction{CardID: 1, Owner: "alice"}, lookup)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("other principal", func(t *testing.T) {
		ok, err := domain.AuthorizeTransaction(ctx, "bob", &domain.Transaction{CardID: 1, Owner: "alice"}, lookup)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("denormalized owner disagrees with card", func(t *testing.T) {
		ok, err := domain.AuthorizeTransaction(ctx, "bob", &domain.Transaction{CardID: 1, Owner: "bob"}, lookup)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("card missing fails closed", func(t *testing.T) {
		ok, err := domain.AuthorizeTransaction(ctx, "alice", &domain.Transaction{CardID: 99, Owner: "alice"}, lookup)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("store errors propagate", func(t *testing.T) {
		boom := domain.Unavailable(errors.New("connection reset"))
		failing := func(context.Context, int64) (*domain.Card, error) { return nil, boom }

		ok, err := domain.AuthorizeTransaction(ctx, "alice", &domain.Transaction{CardID: 1, Owner: "alice"}, failing)
		assert.False(t, ok)
		require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}
