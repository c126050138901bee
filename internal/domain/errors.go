package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures so the transport layer can map them
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NotFound"
	KindInvalidState      ErrorKind = "InvalidState"
	KindInsufficientStock ErrorKind = "InsufficientStock"
	KindDataIntegrity     ErrorKind = "DataIntegrity"
	KindConflict          ErrorKind = "Conflict"
	KindConcurrentUpdate  ErrorKind = "ConcurrentUpdate"
	KindValidation        ErrorKind = "Validation"
)

// Domain errors
var (
	ErrProductNotFound  = &DomainError{Kind: KindNotFound, Message: "product not found"}
	ErrCartNotFound     = &DomainError{Kind: KindNotFound, Message: "cart not found"}
	ErrCartItemNotFound = &DomainError{Kind: KindNotFound, Message: "cart item not found"}
	ErrOrderNotFound    = &DomainError{Kind: KindNotFound, Message: "order not found"}

	ErrProductInactive = &DomainError{Kind: KindInvalidState, Message: "product is not active"}
	ErrInvalidPrice    = &DomainError{Kind: KindDataIntegrity, Message: "product has an invalid price"}

	ErrOrderAlreadyCancelled = &DomainError{Kind: KindConflict, Message: "order is already cancelled"}
	ErrConcurrentUpdate      = &DomainError{Kind: KindConcurrentUpdate, Message: "resource was modified concurrently, please retry"}

	ErrInvalidQuantity       = &DomainError{Kind: KindValidation, Message: "quantity must be at least 1"}
	ErrCustomerNameRequired  = &DomainError{Kind: KindValidation, Message: "customer name is required"}
	ErrCustomerPhoneRequired = &DomainError{Kind: KindValidation, Message: "customer phone is required"}
	ErrOrderItemsRequired    = &DomainError{Kind: KindValidation, Message: "order must contain at least one item"}
	ErrInvalidCatalogItem    = &DomainError{Kind: KindValidation, Message: "invalid catalog item"}
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind
	Message string
	// Available is the remaining stock for InsufficientStock errors
	Available int
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches sentinel errors by kind and message
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// NewInsufficientStock builds an InsufficientStock error carrying the remaining stock
func NewInsufficientStock(productName string, available int) *DomainError {
	message := fmt.Sprintf("insufficient stock, available: %d", available)
	if productName != "" {
		message = fmt.Sprintf("insufficient stock for %s, available: %d", productName, available)
	}
	return &DomainError{
		Kind:      KindInsufficientStock,
		Message:   message,
		Available: available,
	}
}

// NewOrderStatusConflict reports a transition attempted from an incompatible status
func NewOrderStatusConflict(status OrderStatus) *DomainError {
	return &DomainError{
		Kind:    KindConflict,
		Message: fmt.Sprintf("order is already in status %s", status),
	}
}

// NewValidationError builds a validation error with a custom message
func NewValidationError(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message}
}

// KindOf returns the kind of a domain error, or an empty kind for anything else
func KindOf(err error) ErrorKind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// IsKind reports whether err is a domain error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
