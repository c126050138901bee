package services

import (
	"time"

	"storefront-service/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultOrderLimit   = 20
	defaultHistoryLimit = 10
	defaultCatalogLimit = 20
	maxPageLimit        = 100
)

// ProductSummary is the current catalog state of a product held in a cart
type ProductSummary struct {
	ID       uuid.UUID
	Name     string
	Price    decimal.Decimal
	Stock    int
	IsActive bool
	Image    *domain.ProductImage
}

func summarize(item *domain.CatalogItem) *ProductSummary {
	summary := &ProductSummary{
		ID:       item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Stock:    item.Stock,
		IsActive: item.IsActive,
	}
	if img, ok := item.PrimaryImage(); ok {
		summary.Image = &img
	}
	return summary
}

// CartLineView is a cart line joined with its product.
// Product is nil when the product no longer exists.
type CartLineView struct {
	domain.CartLineItem
	Product *ProductSummary
}

// CartView is the full state of a customer's cart returned by every cart operation
type CartView struct {
	ID         uuid.UUID
	CustomerID string
	Items      []CartLineView
	TotalPrice decimal.Decimal
	Status     string
	UpdatedAt  time.Time
}

func newCartView(cart *domain.Cart, products map[uuid.UUID]*domain.CatalogItem) *CartView {
	view := &CartView{
		ID:         cart.ID,
		CustomerID: cart.CustomerID,
		Items:      make([]CartLineView, 0, len(cart.Items)),
		TotalPrice: cart.TotalPrice,
		Status:     cart.Status,
		UpdatedAt:  cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		line := CartLineView{CartLineItem: item}
		if product, ok := products[item.ProductID]; ok {
			line.Product = summarize(product)
		}
		view.Items = append(view.Items, line)
	}
	return view
}

func emptyCartView(customerID string) *CartView {
	return &CartView{
		CustomerID: customerID,
		Items:      make([]CartLineView, 0),
		TotalPrice: decimal.Zero,
		Status:     domain.CartStatusActive,
	}
}

// Pagination describes one page of a listing
type Pagination struct {
	Total int
	Page  int
	Limit int
	Pages int
}

func newPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}

func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// OrderPage is one page of orders, newest first
type OrderPage struct {
	Orders []domain.Order
	Pagination
}

// CatalogPage is one page of catalog items, newest first
type CatalogPage struct {
	Items []domain.CatalogItem
	Pagination
}
