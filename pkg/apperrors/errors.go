package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrNoCredentials       = errors.New("no credentials available")
	ErrRetriesExhausted    = errors.New("all retry attempts exhausted")
	ErrNoStructuredPayload = errors.New("no structured payload in response")
	ErrMalformedPayload    = errors.New("malformed payload")
	ErrProjectNotFound     = errors.New("project not found")
	ErrInvalidTimeRange    = errors.New("invalid time range")
	ErrPersistenceFailure  = errors.New("persistence failure")
)
