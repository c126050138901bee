package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductImage is an image reference held by a catalog item
type ProductImage struct {
	URL       string
	PublicID  string
	IsPrimary bool
}

// CatalogItem represents a product that can be reserved through carts and orders
type CatalogItem struct {
	ID          uuid.UUID
	Name        string
	Price       decimal.Decimal
	Description string
	Category    string
	Colors      []string
	Sizes       []string
	Stock       int
	IsActive    bool
	Images      []ProductImage
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int // For optimistic locking
}

// NewCatalogItem creates a new active catalog item
func NewCatalogItem(name, description, category string, price decimal.Decimal, colors, sizes []string, stock int, images []ProductImage) (*CatalogItem, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("product name is required")
	}
	if !price.IsPositive() {
		return nil, NewValidationError("product price must be greater than zero")
	}
	if len(colors) == 0 {
		return nil, NewValidationError("at least one color is required")
	}
	if len(sizes) == 0 {
		return nil, NewValidationError("at least one size is required")
	}
	if stock < 0 {
		return nil, NewValidationError("stock cannot be negative")
	}
	primaries := 0
	for _, img := range images {
		if img.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return nil, NewValidationError("only one image can be primary")
	}

	now := time.Now().UTC()
	return &CatalogItem{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Price:       price,
		Description: description,
		Category:    category,
		Colors:      colors,
		Sizes:       sizes,
		Stock:       stock,
		IsActive:    true,
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}, nil
}

// HasValidPrice reports whether the unit price is usable for totals
func (i *CatalogItem) HasValidPrice() bool {
	return i.Price.IsPositive()
}

// PrimaryImage returns the primary image, falling back to the first one
func (i *CatalogItem) PrimaryImage() (ProductImage, bool) {
	for _, img := range i.Images {
		if img.IsPrimary {
			return img, true
		}
	}
	if len(i.Images) > 0 {
		return i.Images[0], true
	}
	return ProductImage{}, false
}

// AdjustStock applies an administrative restock or write-off
func (i *CatalogItem) AdjustStock(delta int) error {
	newStock := i.Stock + delta
	if newStock < 0 {
		return NewInsufficientStock(i.Name, i.Stock)
	}
	i.Stock = newStock
	i.UpdatedAt = time.Now().UTC()
	return nil
}
