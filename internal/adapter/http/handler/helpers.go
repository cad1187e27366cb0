package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/iho/paisbank/internal/adapter/http/dto"
	"github.com/iho/paisbank/internal/domain"
)

// retryAfterSeconds is advertised on 503 responses.
const retryAfterSeconds = "1"

// writeJSON writes data inside the success envelope.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dto.SuccessResponse{Success: true, Data: data}); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError writes an error envelope with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dto.ErrorResponse{
		Success: false,
		Error:   strconv.Itoa(status),
		Message: message,
	}); err != nil {
		log.Error().Err(err).Msg("failed to encode error response")
	}
}

// writeDomainError maps err to its status and writes it. Unexpected errors
// are logged and hidden behind a generic message.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapDomainError(err)
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// principalID returns the authenticated subject. The auth middleware
// guarantees one on every /api/v1 route.
func principalID(r *http.Request) string {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		return ""
	}
	return p.ID
}

// decodeJSON decodes the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
