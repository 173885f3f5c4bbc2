// internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, ErrorResponse{Error: message})
}

// handleServiceError maps domain errors onto status codes. Internal errors are
// logged and answered without detail.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, action string) {
	var (
		validation   *domain.ValidationError
		insufficient *domain.InsufficientStockError
	)

	switch {
	case errors.As(err, &validation):
		respondJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: validation.Error(), Field: validation.Field})
	case errors.Is(err, domain.ErrValidation):
		respondError(w, logger, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficient):
		respondJSON(w, logger, http.StatusConflict, map[string]interface{}{
			"error":       insufficient.Error(),
			"item_id":     insufficient.ItemID,
			"location_id": insufficient.LocationID,
			"available":   insufficient.Available,
			"requested":   insufficient.Requested,
		})
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, logger, http.StatusNotFound, rootMessage(err))
	case errors.Is(err, domain.ErrConflict):
		respondError(w, logger, http.StatusConflict, rootMessage(err))
	case r.Context().Err() != nil && errors.Is(err, r.Context().Err()):
		respondError(w, logger, http.StatusServiceUnavailable, "request cancelled")
	default:
		logger.ErrorContext(r.Context(), "failed to "+action,
			slog.String("error", err.Error()))
		respondError(w, logger, http.StatusInternalServerError, "internal server error")
	}
}

// rootMessage strips the "failed to …" wrapping services add
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// decodeJSON reads a JSON body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return domain.NewValidationError("", "request body is required")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return domain.NewValidationError("", "request body is required")
		case errors.As(err, &maxBytes):
			return domain.NewValidationError("", fmt.Sprintf("request body exceeds %d bytes", maxBytes.Limit))
		default:
			return domain.NewValidationError("", "invalid request body: "+err.Error())
		}
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "must be a valid UUID")
	}
	return id, nil
}

func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be a valid UUID")
	}
	return &id, nil
}

func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be an RFC3339 timestamp")
	}
	return &t, nil
}

// pagination reads limit/offset, falling back to page (1-based) when offset is absent
func pagination(r *http.Request) (limit, offset int) {
	q := r.URL.Query()

	limit = defaultLimit
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		limit = min(l, maxLimit)
	}

	if o, err := strconv.Atoi(q.Get("offset")); err == nil && o >= 0 {
		return limit, o
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 1 {
		return limit, (p - 1) * limit
	}
	return limit, 0
}
