package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a structured upstream failure from the generation API.
type Error struct {
	Message    string // Human-readable message
	StatusCode int    // HTTP status code if known
	Cause      error  // Underlying provider error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 && e.Cause != nil {
		return fmt.Sprintf("%s (HTTP %d): %v", e.Message, e.StatusCode, e.Cause)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// retryablePatterns are the message fragments that mark an upstream failure
// as a rate-limit/quota class error. Case-insensitive.
var retryablePatterns = []string{
	"rate limit",
	"quota",
	"resource_exhausted",
	"rpd",
}

// IsRetryable classifies an upstream failure. An error is retryable iff its
// message contains one of the rate-limit/quota patterns or its status code is
// 429; everything else is fatal. This predicate decides whether the
// dispatcher rotates past a credential or aborts the whole call.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var upstreamErr *Error
	if errors.As(err, &upstreamErr) && upstreamErr.StatusCode == 429 {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
