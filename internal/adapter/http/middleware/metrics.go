package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPObserver records served requests.
type HTTPObserver interface {
	ObserveHTTP(method, path, status string, d time.Duration)
}

// Metrics middleware records HTTP metrics labelled by route pattern.
func Metrics(obs HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			obs.ObserveHTTP(r.Method, normalizePath(r), strconv.Itoa(wrapped.statusCode), time.Since(start))
		})
	}
}

// normalizePath returns the matched chi route pattern so that IDs do not
// become label values. Unmatched paths collapse into one label.
func normalizePath(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return "unmatched"
}
