package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iho/paisbank/internal/usecase"
)

// idempotencySweepInterval bounds how often CheckAndSet scans for expired records.
const idempotencySweepInterval = time.Minute

type idempotencyRecord struct {
	value     []byte
	expiresAt time.Time
}

// IdempotencyStore implements usecase.IdempotencyStore for single-process
// deployments without Redis.
type IdempotencyStore struct {
	mu        sync.Mutex
	records   map[string]idempotencyRecord
	now       func() time.Time
	nextSweep time.Time
}

// NewIdempotencyStore creates an empty IdempotencyStore.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: make(map[string]idempotencyRecord),
		now:     time.Now,
	}
}

// CheckAndSet claims key, storing the pending marker when response is nil.
// Expired records are evicted at most once per idempotencySweepInterval.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if err := ctx.Err(); err != nil {
		return false, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	if rec, ok := s.records[key]; ok && now.Before(rec.expiresAt) {
		return true, rec.value, nil
	}

	value := []byte(usecase.IdempotencyPending)
	if response != nil {
		value = response
	}
	s.records[key] = idempotencyRecord{value: value, expiresAt: now.Add(ttl)}

	return false, nil, nil
}

func (s *IdempotencyStore) sweep(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for key, rec := range s.records {
		if !now.Before(rec.expiresAt) {
			delete(s.records, key)
		}
	}
	s.nextSweep = now.Add(idempotencySweepInterval)
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = idempotencyRecord{value: response, expiresAt: s.now().Add(ttl)}

	return nil
}

// Delete releases key.
func (s *IdempotencyStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)

	return nil
}
