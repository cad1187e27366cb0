package redis

import (
	"context"
	"testing"
	"time"

	"github.com/iho/paisbank/internal/usecase"
)

func TestIdempotencyStore_CheckAndSetExisting(t *testing.T) {
	store, client, _ := newTestStore(t)
	ctx := context.Background()

	if err := client.Set(ctx, store.prefix+"key", "cached", time.Minute).Err(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, "key", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}

	if !exists || string(resp) != "cached" {
		t.Fatalf("expected existing cached response, got exists=%v resp=%s", exists, resp)
	}
}

func TestIdempotencyStore_CheckAndSetLocksNewKey(t *testing.T) {
	store, client, mr := newTestStore(t)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "alice:pending", nil, time.Minute)
	if err != nil || exists || resp != nil {
		t.Fatalf("unexpected result: exists=%v resp=%v err=%v", exists, resp, err)
	}

	val, err := client.Get(ctx, store.prefix+"alice:pending").Result()
	if err != nil || val != usecase.IdempotencyPending {
		t.Fatalf("expected placeholder lock, got val=%s err=%v", val, err)
	}

	if ttl := mr.TTL(store.prefix + "alice:pending"); ttl != time.Minute {
		t.Fatalf("expected ttl of one minute, got %v", ttl)
	}

	exists, resp, err = store.CheckAndSet(ctx, "alice:pending", nil, time.Minute)
	if err != nil || !exists || string(resp) != usecase.IdempotencyPending {
		t.Fatalf("second claim must see the marker: exists=%v resp=%s err=%v", exists, resp, err)
	}
}

func TestIdempotencyStore_UpdateAndExpire(t *testing.T) {
	store, client, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Update(ctx, "complete", []byte("done"), time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	val, err := client.Get(ctx, store.prefix+"complete").Result()
	if err != nil || val != "done" {
		t.Fatalf("expected stored response, got val=%s err=%v", val, err)
	}

	mr.FastForward(2 * time.Minute)

	exists, _, err := store.CheckAndSet(ctx, "complete", nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("expired key must be claimable: exists=%v err=%v", exists, err)
	}
}

func TestIdempotencyStore_Delete(t *testing.T) {
	store, _, mr := newTestStore(t)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "failed", nil, time.Minute); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := store.Delete(ctx, "failed"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if mr.Exists(store.prefix + "failed") {
		t.Fatalf("expected key to be released")
	}
}

func TestIdempotencyStore_Unreachable(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()
	mr.Close()

	store := NewIdempotencyStore(client)
	if _, _, err := store.CheckAndSet(context.Background(), "k", nil, time.Minute); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}
