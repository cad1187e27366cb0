package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"
)

// IdempotencyMiddleware replays the first successful response for a
// repeated Idempotency-Key. Keys are scoped to the authenticated principal
// and to the request method and path.
type IdempotencyMiddleware struct {
	store   usecase.IdempotencyStore
	ttl     time.Duration
	replays Counter
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A zero ttl
// uses usecase.IdempotencyKeyTTL; replays may be nil.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, replays Counter) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, replays: replays}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		key = scopedKey(r, key)

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("idempotency check failed")
			writeError(w, http.StatusServiceUnavailable, "idempotency check failed")
			return
		}

		if exists {
			if cached == nil || string(cached) == usecase.IdempotencyPending {
				writeError(w, http.StatusConflict, "a request with this idempotency key is still in progress")
				return
			}

			if m.replays != nil {
				m.replays.Inc()
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotencyReplayHeader, "true")
			_, _ = w.Write(cached)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		// The client may have gone away; the outcome still has to be stored.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		defer cancel()

		if recorder.statusCode >= 200 && recorder.statusCode < 300 {
			err = m.store.Update(ctx, key, recorder.body.Bytes(), m.ttl)
		} else {
			err = m.store.Delete(ctx, key)
		}
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("key", key).Msg("failed to record idempotent response")
		}
	})
}

// scopedKey namespaces a client key so it cannot replay a response recorded
// for another principal or another endpoint.
func scopedKey(r *http.Request, key string) string {
	scope := r.Method + ":" + r.URL.Path + ":" + key
	if p, ok := domain.PrincipalFromContext(r.Context()); ok {
		return p.ID + ":" + scope
	}
	return scope
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
