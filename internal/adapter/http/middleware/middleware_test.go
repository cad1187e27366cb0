package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/infrastructure/auth"
)

type verifierFunc func(token string) (*auth.Claims, error)

func (f verifierFunc) Verify(token string) (*auth.Claims, error) { return f(token) }

func TestAuth(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := manager.Generate(&domain.Principal{ID: "user-1", Email: "u@paisbank.dev"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var seen *domain.Principal
	h := Auth(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = domain.PrincipalFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + token, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cards", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			if tt.status == http.StatusOK && (seen == nil || seen.ID != "user-1") {
				t.Fatalf("expected principal in context, got %+v", seen)
			}
			if tt.status != http.StatusOK && !strings.Contains(rr.Body.String(), `"success":false`) {
				t.Fatalf("expected error envelope, got %s", rr.Body.String())
			}
		})
	}
}

func TestAuthExpiredToken(t *testing.T) {
	h := Auth(verifierFunc(func(string) (*auth.Claims, error) {
		return nil, domain.ErrExpiredToken
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer old")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized || !strings.Contains(rr.Body.String(), "expired") {
		t.Fatalf("unexpected response %d %s", rr.Code, rr.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	hits := &counterStub{}
	rl := NewRateLimiter(1, 2, hits)

	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
	if hits.n != 1 {
		t.Fatalf("expected one rate limit hit, got %d", hits.n)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("other clients must have their own bucket, got %d", rr.Code)
	}
}

func TestRateLimiterKeysByPrincipal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1"
	if got := clientKey(req); got != "ip:10.0.0.1" {
		t.Fatalf("unexpected key %q", got)
	}

	req = req.WithContext(domain.ContextWithPrincipal(req.Context(), &domain.Principal{ID: "user-9"}))
	if got := clientKey(req); got != "user:user-9" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestCleanupLimiters(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(10, 10, nil)
	rl.now = func() time.Time { return now }

	rl.getLimiter("old")
	now = now.Add(time.Hour)
	rl.getLimiter("fresh")

	if removed := rl.CleanupLimiters(30 * time.Minute); removed != 1 {
		t.Fatalf("expected one idle limiter removed, got %d", removed)
	}
	if _, ok := rl.limiters["fresh"]; !ok {
		t.Fatalf("fresh limiter must survive cleanup")
	}
}

type observation struct {
	method, path, status string
}

type observerStub struct {
	seen []observation
}

func (o *observerStub) ObserveHTTP(method, path, status string, _ time.Duration) {
	o.seen = append(o.seen, observation{method, path, status})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	obs := &observerStub{}

	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Get("/api/v1/cards/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/cards/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	if len(obs.seen) != 2 {
		t.Fatalf("expected two observations, got %d", len(obs.seen))
	}
	if obs.seen[0] != (observation{"GET", "/api/v1/cards/{id}", "418"}) {
		t.Fatalf("unexpected observation %+v", obs.seen[0])
	}
	if obs.seen[1].path != "unmatched" || obs.seen[1].status != "404" {
		t.Fatalf("unmatched paths must collapse, got %+v", obs.seen[1])
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"error":"500"`) {
		t.Fatalf("expected error envelope, got %s", rr.Body.String())
	}
}

func TestLoggingAttachesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&buf))

	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cards", nil)
	h.ServeHTTP(httptest.NewRecorder(), req.WithContext(context.Background()))

	out := buf.String()
	if !strings.Contains(out, "inside handler") {
		t.Fatalf("handler log missing: %s", out)
	}
	if !strings.Contains(out, `"status":201`) || !strings.Contains(out, "request completed") {
		t.Fatalf("request log missing: %s", out)
	}
}
