package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"signalnet/internal/apperr"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func respondMessage(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}

// respondError maps service errors onto HTTP statuses. Upstream and unknown
// failures are logged and hidden from the client.
func respondError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := statusFor(err)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondMessage(w, logger, status, http.StatusText(status))
		return
	}

	respondMessage(w, logger, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Invalid("invalid request body: %v", err)
	}
	return nil
}

func requireBody(r *http.Request, dst interface{}) error {
	if r.ContentLength == 0 {
		return apperr.Invalid("request body is required")
	}
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return nil
}

// uuidParam reads a path parameter holding a row id.
func uuidParam(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	if err := checkUUID(name, raw); err != nil {
		return "", err
	}
	return raw, nil
}

func checkUUID(field, raw string) error {
	if raw == "" {
		return apperr.Invalid("%s is required", field)
	}
	if _, err := uuid.Parse(raw); err != nil {
		return apperr.Invalid("%s must be a UUID", field)
	}
	return nil
}

var errNoViewer = fmt.Errorf("%w: no authenticated viewer", apperr.ErrForbidden)
