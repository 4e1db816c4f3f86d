package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	cartservice "github.com/fjod/go_cart/storefront/internal/cart/service"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondServiceError maps the error kinds returned by services to a status
// and body. Unknown errors are logged and hidden behind a generic 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if v, ok := apperr.IsValidation(err); ok {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Code:   "validation_failed",
			Fields: v.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrBadRequest):
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		respondError(w, http.StatusUnauthorized, "invalid_session", "unknown or expired session")
	case errors.Is(err, cartservice.ErrConcurrentUpdate):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case apperr.IsTransport(err):
		logger.FromContext(r.Context()).WithError(err).Error("dependency unavailable")
		respondError(w, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable")
	default:
		logger.FromContext(r.Context()).WithError(err).Error("unhandled error")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeJSON reads a size-limited JSON body into dst. Unknown fields are allowed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
