// Package memory is a process-local entity store. Writes are staged on a
// Tx and applied at commit against a copy of the state, so a failed
// compare-and-swap discards the whole commit.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
)

var errTxDone = errors.New("memory: transaction already finished")

type state struct {
	cards        map[int64]domain.Card
	transactions map[int64]domain.Transaction
	entries      []domain.BalanceEntry
}

func (s *state) clone() *state {
	c := &state{
		cards:        make(map[int64]domain.Card, len(s.cards)),
		transactions: make(map[int64]domain.Transaction, len(s.transactions)),
		entries:      make([]domain.BalanceEntry, len(s.entries)),
	}
	for k, v := range s.cards {
		c.cards[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	copy(c.entries, s.entries)
	return c
}

// Store holds cards, transactions and balance entries.
type Store struct {
	mu      sync.RWMutex
	current *state
	cardSeq atomic.Int64
	txSeq   atomic.Int64
	latency func(ctx context.Context)
}

// Option configures a Store.
type Option func(*Store)

// WithLatency installs a hook run before locked reads and commits. Tests use
// it to widen race windows.
func WithLatency(fn func(ctx context.Context)) Option {
	return func(s *Store) {
		s.latency = fn
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		current: &state{
			cards:        make(map[int64]domain.Card),
			transactions: make(map[int64]domain.Transaction),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) delay(ctx context.Context) {
	if s.latency != nil {
		s.latency(ctx)
	}
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.current)
}

// update applies fn to a copy of the state and publishes the copy only if
// fn succeeds.
func (s *Store) update(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.clone()
	if err := fn(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

// Ping reports the store as reachable.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: m.store}, nil
}

// Tx stages writes until Commit.
type Tx struct {
	store *Store
	ops   []func(st *state) error
	done  bool
}

func (t *Tx) stage(op func(st *state) error) error {
	if t.done {
		return errTxDone
	}
	t.ops = append(t.ops, op)
	return nil
}

// Commit applies every staged write or none of them.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true

	t.store.delay(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.store.update(func(st *state) error {
		for _, op := range t.ops {
			if err := op(st); err != nil {
				return err
			}
		}
		return nil
	})
}

// Rollback discards staged writes. It is a no-op after Commit.
func (t *Tx) Rollback(context.Context) error {
	t.done = true
	t.ops = nil
	return nil
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, errors.New("memory: foreign transaction")
	}
	return t, nil
}
