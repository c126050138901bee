package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"storefront-service/internal/domain"
)

// StandardError represents a standardized error response
type StandardError struct {
	Success bool   `json:"success"`           // Always false
	Code    string `json:"error"`             // Error code/type (e.g., "InvalidRequest", "NotFound")
	Message string `json:"message"`           // Human-readable error message
	Details string `json:"details,omitempty"` // Additional details (field name, validation info, etc.)
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case "InvalidRequest", "ValidationError":
		return http.StatusBadRequest
	case "Unauthorized":
		return http.StatusUnauthorized
	case "Forbidden":
		return http.StatusForbidden
	case "NotFound":
		return http.StatusNotFound
	case "InsufficientStock", "InvalidState", "Conflict":
		return http.StatusBadRequest
	case "ConcurrentUpdate":
		return http.StatusLocked
	case "BrokerConnectionError", "ServiceUnavailable":
		return http.StatusServiceUnavailable
	case "DataIntegrity", "DatabaseError", "InternalError":
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewStandardError creates a new StandardError
func NewStandardError(errorCode, message, details string) *StandardError {
	return &StandardError{
		Success: false,
		Code:    errorCode,
		Message: message,
		Details: details,
	}
}

// Common error constructors
func NewInvalidRequest(message, details string) *StandardError {
	return NewStandardError("InvalidRequest", message, details)
}

func NewValidationError(message, field string) *StandardError {
	return NewStandardError("ValidationError", message, fmt.Sprintf("Field: %s", field))
}

func NewUnauthorized(message, details string) *StandardError {
	return NewStandardError("Unauthorized", message, details)
}

func NewForbidden(message string) *StandardError {
	return NewStandardError("Forbidden", message, "")
}

func NewNotFound(message string) *StandardError {
	return NewStandardError("NotFound", message, "")
}

func NewInsufficientStock(message string, available int) *StandardError {
	return NewStandardError("InsufficientStock", message, fmt.Sprintf("Available: %d", available))
}

// NewInternalError hides the cause from the client; callers log it
func NewInternalError(message string) *StandardError {
	return NewStandardError("InternalError", message, "")
}

// FromDomain maps a service error onto the response taxonomy. Unknown errors
// and data integrity failures never expose their cause.
func FromDomain(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	var domainErr *domain.DomainError
	if !stderrors.As(err, &domainErr) {
		return NewInternalError("internal server error")
	}

	switch domainErr.Kind {
	case domain.KindNotFound:
		return NewNotFound(domainErr.Message)
	case domain.KindInvalidState:
		return NewStandardError("InvalidState", domainErr.Message, "")
	case domain.KindInsufficientStock:
		return NewInsufficientStock(domainErr.Message, domainErr.Available)
	case domain.KindConflict:
		return NewStandardError("Conflict", domainErr.Message, "")
	case domain.KindConcurrentUpdate:
		return NewStandardError("ConcurrentUpdate", domainErr.Message, "")
	case domain.KindValidation:
		return NewStandardError("ValidationError", domainErr.Message, "")
	case domain.KindDataIntegrity:
		return NewStandardError("DataIntegrity", "internal server error", "")
	default:
		return NewInternalError("internal server error")
	}
}
