package repository

import (
	"context"

	"storefront-service/internal/domain"

	"github.com/google/uuid"
)

// CatalogRepository reads and writes catalog items
type CatalogRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error)
	Create(ctx context.Context, item *domain.CatalogItem) error
	// Save writes the item if its version is unchanged since it was read
	Save(ctx context.Context, item *domain.CatalogItem) error
	List(ctx context.Context, filter CatalogFilter) ([]domain.CatalogItem, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CartRepository reads and writes customer carts
type CartRepository interface {
	FindActiveByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	Create(ctx context.Context, cart *domain.Cart) error
	Save(ctx context.Context, cart *domain.Cart) error
}

// OrderRepository reads and writes orders. Line items are written once on Create.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// Save writes status fields only
	Save(ctx context.Context, order *domain.Order) error
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)
}

// Unit exposes repositories bound to one atomic unit (or to the plain store)
type Unit interface {
	Catalog() CatalogRepository
	Carts() CartRepository
	Orders() OrderRepository
}

// UnitOfWork runs fn inside an atomic unit. Any error returned by fn, or a
// panic, rolls back every write made through the unit.
type UnitOfWork interface {
	Unit
	WithinUnit(ctx context.Context, fn func(ctx context.Context, unit Unit) error) error
}

// CatalogFilter narrows catalog listings
type CatalogFilter struct {
	Category      string
	IncludeHidden bool
	Page          int
	Limit         int
}

// OrderFilter narrows order listings
type OrderFilter struct {
	CustomerID string
	Status     domain.OrderStatus
	OrderType  domain.OrderType
	Page       int
	Limit      int
}

// Offset returns the row offset for the filter's page
func (f OrderFilter) Offset() int {
	return offset(f.Page, f.Limit)
}

// Offset returns the row offset for the filter's page
func (f CatalogFilter) Offset() int {
	return offset(f.Page, f.Limit)
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
