package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/paisbank/internal/adapter/repository/memory"
	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	deleteFn      func(ctx context.Context, key string) error
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Delete(ctx context.Context, key string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, key)
	}
	return nil
}

type counterStub struct{ n int }

func (c *counterStub) Inc() { c.n++ }

func postWithKey(key, principal string) *http.Request {
	return requestWithKey(http.MethodPost, "/api/v1/transactions", key, principal)
}

func requestWithKey(method, path, key, principal string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, key)
	if principal != "" {
		req = req.WithContext(domain.ContextWithPrincipal(req.Context(), &domain.Principal{ID: principal}))
	}
	return req
}

func TestIdempotencyMiddleware_StoreErrorIsUnavailable(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, 0, nil)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, postWithKey("key-err", "user-1"))

	if called {
		t.Fatalf("handler should not be called when store errors")
	}
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestIdempotencyMiddleware_ReleasesKeyOnFailure(t *testing.T) {
	var updated, deleted bool
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			updated = true
			return nil
		},
		deleteFn: func(ctx context.Context, key string) error {
			deleted = true
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, nil)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})).ServeHTTP(rr, postWithKey("key-fail", "user-1"))

	if updated {
		t.Fatalf("expected error responses not to be cached")
	}
	if !deleted {
		t.Fatalf("expected key to be released so the client can retry")
	}
}

func TestIdempotencyMiddleware_SkipsNonMutatingRequests(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			t.Fatalf("store must not be consulted for GET")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cards", nil)
	req.Header.Set(IdempotencyKeyHeader, "key-get")
	rr := httptest.NewRecorder()

	called := false
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, req)

	if !called {
		t.Fatalf("expected next handler to be called")
	}
}

func TestIdempotencyMiddleware_PendingKeyConflicts(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte(usecase.IdempotencyPending), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 0, nil)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run while the first request is in flight")
	})).ServeHTTP(rr, postWithKey("key-pending", "user-1"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReplaysAgainstMemoryStore(t *testing.T) {
	replays := &counterStub{}
	mw := NewIdempotencyMiddleware(memory.NewIdempotencyStore(), time.Hour, replays)

	calls := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":1}}`))
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, postWithKey("key-1", "user-1"))

	second := httptest.NewRecorder()
	h.ServeHTTP(second, postWithKey("key-1", "user-1"))

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Header().Get(IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected replay header on second response")
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", second.Body.String(), first.Body.String())
	}
	if replays.n != 1 {
		t.Fatalf("expected one replay counted, got %d", replays.n)
	}

	other := httptest.NewRecorder()
	h.ServeHTTP(other, postWithKey("key-1", "user-2"))
	if calls != 2 {
		t.Fatalf("keys must be scoped per principal")
	}
}

func TestIdempotencyMiddleware_KeyScopedToEndpoint(t *testing.T) {
	mw := NewIdempotencyMiddleware(memory.NewIdempotencyStore(), time.Hour, nil)

	calls := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"path":"` + r.URL.Path + `"}}`))
	}))

	create := httptest.NewRecorder()
	h.ServeHTTP(create, requestWithKey(http.MethodPost, "/api/v1/cards", "shared", "user-1"))

	other := httptest.NewRecorder()
	h.ServeHTTP(other, requestWithKey(http.MethodPost, "/api/v1/transactions", "shared", "user-1"))

	if calls != 2 {
		t.Fatalf("expected a different path to run the handler, ran %d times", calls)
	}
	if other.Header().Get(IdempotencyReplayHeader) != "" {
		t.Fatalf("response for another path must not be replayed")
	}

	patch := httptest.NewRecorder()
	h.ServeHTTP(patch, requestWithKey(http.MethodPatch, "/api/v1/cards", "shared", "user-1"))
	if calls != 3 {
		t.Fatalf("expected a different method to run the handler, ran %d times", calls)
	}
}

func TestIdempotencyMiddleware_StoredKeyIncludesMethodAndPath(t *testing.T) {
	var got string
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			got = key
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 0, nil)

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rr, requestWithKey(http.MethodDelete, "/api/v1/cards/7", "k", "user-1"))

	if want := "user-1:DELETE:/api/v1/cards/7:k"; got != want {
		t.Fatalf("expected store key %q, got %q", want, got)
	}
}
