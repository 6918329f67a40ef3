package api

import (
	"fmt"
	"strings"
)

// ErrorType represents the category of a client-facing error.
type ErrorType string

const (
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeStreamError     ErrorType = "stream_error"
	ErrorTypeUploadError     ErrorType = "upload_error"
	ErrorTypeTooManyRequests ErrorType = "too_many_requests"
)

// APIError represents a structured error with type, param, and message.
// Every failure surfaced to the user is converted to an APIError at the
// component boundary; none propagate as unhandled faults.
type APIError struct {
	Type    ErrorType `json:"type"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an APIError for JSON serialization.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError creates an APIError for invalid parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewServerError creates an APIError for backend failures.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewStreamError creates an APIError for transport or backend failures
// that occur mid-conversation.
func NewStreamError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeStreamError,
		Message: message,
	}
}

// NewUploadError creates an APIError for upload transport failures.
func NewUploadError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUploadError,
		Message: message,
	}
}

// NewTooManyRequestsError creates an APIError for request throttling.
func NewTooManyRequestsError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeTooManyRequests,
		Message: message,
	}
}

// IsRateLimited reports whether an error represents request throttling,
// either by its type or by the backend's textual "Too many requests"
// signal inside an otherwise generic error payload.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := err.(*APIError); ok && apiErr.Type == ErrorTypeTooManyRequests {
		return true
	}
	return strings.Contains(err.Error(), "Too many requests")
}
