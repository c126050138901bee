package commands

import (
	"storefront-service/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCatalogItemCommand represents a command to create a new catalog item
type CreateCatalogItemCommand struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Colors      []string
	Sizes       []string
	Stock       int
	Images      []domain.ProductImage
}

// AdjustStockCommand represents a command to restock or write off units
type AdjustStockCommand struct {
	ID     uuid.UUID
	Delta  int
	Reason string
}

// SetCatalogItemStatusCommand activates or deactivates a catalog item
type SetCatalogItemStatusCommand struct {
	ID       uuid.UUID
	IsActive bool
}
