package commands

import (
	"storefront-service/internal/domain"

	"github.com/google/uuid"
)

// OrderItemInput is one requested product in a new order
type OrderItemInput struct {
	ProductID     uuid.UUID
	Quantity      int
	SelectedColor string
	SelectedSize  string
}

// CreateOrderCommand represents a command to place an order.
// Customer is nil for guest orders.
type CreateOrderCommand struct {
	Customer      *domain.Customer
	CustomerName  string
	CustomerPhone string
	Items         []OrderItemInput
}

// VerifyOrderCommand commits an order's stock
type VerifyOrderCommand struct {
	OrderID uuid.UUID
}

// CancelOrderCommand cancels an order, releasing stock if it was verified
type CancelOrderCommand struct {
	OrderID uuid.UUID
	Reason  string
}
