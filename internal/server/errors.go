package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is an error rendered as the JSON error envelope
// {"success": false, "error": ..., "details": ..., "example": ...}.
type APIError struct {
	Status  int
	Message string
	Details string
	Example any
	// Extra holds additional top-level fields of the envelope.
	Extra map[string]any
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// WithDetails sets the details field.
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// WithExample sets an example request body.
func (e *APIError) WithExample(example any) *APIError {
	e.Example = example
	return e
}

// With adds an extra top-level field.
func (e *APIError) With(key string, value any) *APIError {
	if e.Extra == nil {
		e.Extra = make(map[string]any)
	}
	e.Extra[key] = value
	return e
}

// NewAPIError creates an APIError
func NewAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

// Error constructors by category
var (
	// ValidationError reports a missing or malformed request field
	ValidationError = func(msg string) *APIError {
		return NewAPIError(http.StatusBadRequest, msg)
	}

	// AuthError reports a missing or expired credential
	AuthError = func(msg string) *APIError {
		return NewAPIError(http.StatusUnauthorized, msg)
	}

	// ForbiddenError reports a credential that was presented but rejected
	ForbiddenError = func(msg string) *APIError {
		return NewAPIError(http.StatusForbidden, msg)
	}

	// NotFoundError reports an unknown route
	NotFoundError = func(msg string) *APIError {
		return NewAPIError(http.StatusNotFound, msg)
	}

	// RateLimitError reports a client over its request budget
	RateLimitError = func(msg string) *APIError {
		return NewAPIError(http.StatusTooManyRequests, msg)
	}

	// UpstreamError reports a calendar or model provider failure; the
	// cause is surfaced as details
	UpstreamError = func(msg string, err error) *APIError {
		e := NewAPIError(http.StatusInternalServerError, msg)
		if err != nil {
			e.Details = err.Error()
		}
		return e
	}

	// NotImplementedError reports a known but unavailable feature
	NotImplementedError = func(msg string) *APIError {
		return NewAPIError(http.StatusNotImplemented, msg)
	}

	// UnavailableError reports a feature that is not configured
	UnavailableError = func(msg string) *APIError {
		return NewAPIError(http.StatusServiceUnavailable, msg)
	}
)

// Common response messages
const (
	msgTokenRequired   = "Access token is required. Include it in Authorization header as: Bearer <token>"
	msgInvalidDate     = "Invalid date format. Use YYYY-MM-DD"
	msgNotFound        = "Endpoint not found"
	msgInternal        = "Internal server error"
	msgAINotConfigured = "AI features are not configured"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders e as the error envelope.
func writeError(w http.ResponseWriter, e *APIError) {
	body := make(map[string]any, len(e.Extra)+4)
	for k, v := range e.Extra {
		body[k] = v
	}
	body["success"] = false
	body["error"] = e.Message
	if e.Details != "" {
		body["details"] = e.Details
	}
	if e.Example != nil {
		body["example"] = e.Example
	}
	writeJSON(w, e.Status, body)
}
