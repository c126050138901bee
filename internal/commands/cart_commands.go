package commands

import (
	"storefront-service/internal/domain"

	"github.com/google/uuid"
)

// AddCartItemCommand reserves quantity units of a product in the customer's cart
type AddCartItemCommand struct {
	Customer      domain.Customer
	ProductID     uuid.UUID
	Quantity      int
	SelectedColor string
	SelectedSize  string
}

// UpdateCartItemCommand sets a cart line to a new quantity (0 removes it)
type UpdateCartItemCommand struct {
	Customer domain.Customer
	ItemID   uuid.UUID
	Quantity int
}

// RemoveCartItemCommand deletes a cart line and releases its stock
type RemoveCartItemCommand struct {
	Customer domain.Customer
	ItemID   uuid.UUID
}

// ClearCartCommand empties the customer's cart
type ClearCartCommand struct {
	Customer domain.Customer
}
