package errors

import (
	"fmt"
	"net/http"
	"testing"

	"storefront-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
		wantMsg    string
	}{
		{"not found", domain.ErrProductNotFound, "NotFound", http.StatusNotFound, "product not found"},
		{"wrapped not found", fmt.Errorf("load cart: %w", domain.ErrCartNotFound), "NotFound", http.StatusNotFound, "cart not found"},
		{"inactive", domain.ErrProductInactive, "InvalidState", http.StatusBadRequest, "product is not active"},
		{"insufficient", domain.NewInsufficientStock("", 2), "InsufficientStock", http.StatusBadRequest, "insufficient stock, available: 2"},
		{"conflict", domain.NewOrderStatusConflict(domain.OrderStatusVerified), "Conflict", http.StatusBadRequest, "order is already in status verified"},
		{"concurrent", domain.ErrConcurrentUpdate, "ConcurrentUpdate", http.StatusLocked, domain.ErrConcurrentUpdate.Message},
		{"validation", domain.ErrInvalidQuantity, "ValidationError", http.StatusBadRequest, "quantity must be at least 1"},
		{"data integrity", domain.ErrInvalidPrice, "DataIntegrity", http.StatusInternalServerError, "internal server error"},
		{"unknown", fmt.Errorf("disk I/O error"), "InternalError", http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr := FromDomain(tt.err)
			assert.False(t, stdErr.Success)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantStatus, stdErr.HTTPStatus())
			assert.Equal(t, tt.wantMsg, stdErr.Message)
		})
	}
}

func TestFromDomain_PassesThroughStandardError(t *testing.T) {
	original := NewValidationError("invalid request", "productId")

	assert.Same(t, original, FromDomain(original))
}

func TestInternalErrorHasNoDetails(t *testing.T) {
	stdErr := NewInternalError("internal server error")

	assert.Empty(t, stdErr.Details)
	assert.Equal(t, http.StatusInternalServerError, stdErr.HTTPStatus())
}
