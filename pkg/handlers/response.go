package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/museme-app/museme-engine/pkg/apperrors"
)

// ApiResponse is the standard envelope for API responses.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ServiceError maps service-layer errors onto HTTP status codes and stable
// error codes, then writes the error response.
func ServiceError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrProjectNotFound):
		return ErrorResponse(w, http.StatusNotFound, "project_not_found", "Project not found")
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, apperrors.ErrInvalidTimeRange):
		return ErrorResponse(w, http.StatusBadRequest, "invalid_time_range", "Edit time range must satisfy 0 <= start < end")
	case errors.Is(err, apperrors.ErrNoCredentials):
		return ErrorResponse(w, http.StatusServiceUnavailable, "no_credentials", "No generation API credentials available")
	case errors.Is(err, apperrors.ErrRetriesExhausted):
		return ErrorResponse(w, http.StatusServiceUnavailable, "retries_exhausted", "Generation API unavailable after exhausting all credentials")
	case errors.Is(err, apperrors.ErrNoStructuredPayload), errors.Is(err, apperrors.ErrMalformedPayload):
		return ErrorResponse(w, http.StatusBadGateway, "malformed_generation", "Generation API returned an unusable response")
	default:
		return ErrorResponse(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// ParseUUIDPath reads a path value and parses it as a UUID, writing a 400 on
// failure. Returns ok == false when the response has already been written.
func ParseUUIDPath(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_"+name, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
