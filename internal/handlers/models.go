package handlers

import (
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddToCartRequest represents the request body for adding a product to the cart
// @Description Request to reserve units of a product in the caller's cart
type AddToCartRequest struct {
	ProductID     string `json:"productId" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity      *int   `json:"quantity" example:"2" default:"1"`
	SelectedColor string `json:"selectedColor" example:"black"`
	SelectedSize  string `json:"selectedSize" example:"M"`
}

// quantityOrDefault returns 1 when quantity was omitted from the body
func (r AddToCartRequest) quantityOrDefault() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// UpdateCartItemRequest represents the request body for changing a cart line quantity
// @Description Quantity 0 removes the line
type UpdateCartItemRequest struct {
	ItemID   string `json:"itemId" binding:"required" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Quantity *int   `json:"quantity" binding:"required" example:"1"`
}

// OrderItemRequest is one product in a new order
type OrderItemRequest struct {
	ProductID     string `json:"productId" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity      int    `json:"quantity" example:"1"`
	SelectedColor string `json:"selectedColor" example:"black"`
	SelectedSize  string `json:"selectedSize" example:"M"`
}

// CreateOrderRequest represents the request body for placing an order.
// Name and phone come from the session when the caller is signed in.
type CreateOrderRequest struct {
	CustomerName  string             `json:"customerName" example:"Ana Gomez"`
	CustomerPhone string             `json:"customerPhone" example:"3001112233"`
	Items         []OrderItemRequest `json:"items"`
}

// CancelOrderRequest represents the optional body of a cancellation
type CancelOrderRequest struct {
	CancellationReason string `json:"cancellationReason" example:"customer unreachable"`
}

// ImageRequest is an image attached to a new catalog item
type ImageRequest struct {
	URL       string `json:"url" binding:"required" example:"https://cdn.example.com/jacket.jpg"`
	PublicID  string `json:"publicId" example:"jacket"`
	IsPrimary bool   `json:"isPrimary" example:"true"`
}

// CreateCatalogItemRequest represents the request body for creating a catalog item
type CreateCatalogItemRequest struct {
	Name        string          `json:"name" binding:"required" example:"Denim jacket"`
	Description string          `json:"description" example:"Classic fit denim jacket"`
	Category    string          `json:"category" example:"jackets"`
	Price       decimal.Decimal `json:"price" swaggertype:"number" example:"189900"`
	Colors      []string        `json:"colors" example:"black,blue"`
	Sizes       []string        `json:"sizes" example:"S,M,L"`
	Stock       int             `json:"stock" example:"25"`
	Images      []ImageRequest  `json:"images"`
}

// AdjustStockRequest represents a restock (positive) or write-off (negative)
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required" example:"10"`
	Reason string `json:"reason" example:"supplier delivery"`
}

// SetCatalogStatusRequest activates or hides a catalog item
type SetCatalogStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required" example:"false"`
}

// ImageResponse is an image reference
type ImageResponse struct {
	URL       string `json:"url" example:"https://cdn.example.com/jacket.jpg"`
	PublicID  string `json:"publicId,omitempty" example:"jacket"`
	IsPrimary bool   `json:"isPrimary,omitempty" example:"true"`
}

// ProductSummaryResponse is the current state of a product held in a cart
type ProductSummaryResponse struct {
	ID       string         `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name     string         `json:"name" example:"Denim jacket"`
	Price    float64        `json:"price" example:"189900"`
	Stock    int            `json:"stock" example:"23"`
	IsActive bool           `json:"isActive" example:"true"`
	Image    *ImageResponse `json:"image,omitempty"`
}

// CartItemResponse is one cart line. Product is null if the product was removed from the catalog.
type CartItemResponse struct {
	ID            string                  `json:"id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	ProductID     string                  `json:"productId" example:"550e8400-e29b-41d4-a716-446655440000"`
	Product       *ProductSummaryResponse `json:"product"`
	Quantity      int                     `json:"quantity" example:"2"`
	SelectedColor string                  `json:"selectedColor" example:"black"`
	SelectedSize  string                  `json:"selectedSize" example:"M"`
}

// CartResponse is the caller's cart
type CartResponse struct {
	ID         string             `json:"id,omitempty" example:"a3bb189e-8bf9-3888-9912-ace4e6543002"`
	UserID     string             `json:"userId" example:"customer-a"`
	Items      []CartItemResponse `json:"items"`
	TotalPrice float64            `json:"totalPrice" example:"379800"`
	Status     string             `json:"status" example:"active"`
	UpdatedAt  *time.Time         `json:"updatedAt,omitempty" example:"2024-01-15T10:30:00Z"`
}

// CartEnvelope wraps cart responses
type CartEnvelope struct {
	Success bool         `json:"success" example:"true"`
	Cart    CartResponse `json:"cart"`
}

// SuccessResponse is returned by operations without a payload
type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"cart cleared"`
}

// OrderItemResponse is the snapshot of one ordered product
type OrderItemResponse struct {
	ProductID     string         `json:"productId" example:"550e8400-e29b-41d4-a716-446655440000"`
	ProductName   string         `json:"productName" example:"Denim jacket"`
	UnitPrice     float64        `json:"unitPrice" example:"189900"`
	Image         *ImageResponse `json:"image,omitempty"`
	SelectedColor string         `json:"selectedColor" example:"black"`
	SelectedSize  string         `json:"selectedSize" example:"M"`
	Quantity      int            `json:"quantity" example:"2"`
	Subtotal      float64        `json:"subtotal" example:"379800"`
}

// OrderResponse is an order with its line snapshots
type OrderResponse struct {
	ID                 string              `json:"id" example:"9b2e6f7a-3c1d-4e5f-8a9b-0c1d2e3f4a5b"`
	UserID             string              `json:"userId,omitempty" example:"customer-a"`
	CustomerName       string              `json:"customerName" example:"Ana Gomez"`
	CustomerPhone      string              `json:"customerPhone" example:"3001112233"`
	OrderType          string              `json:"orderType" example:"registered"`
	Items              []OrderItemResponse `json:"items"`
	TotalAmount        float64             `json:"totalAmount" example:"379800"`
	Status             string              `json:"status" example:"pending"`
	CancellationReason string              `json:"cancellationReason,omitempty" example:"customer unreachable"`
	VerifiedAt         *time.Time          `json:"verifiedAt,omitempty"`
	CancelledAt        *time.Time          `json:"cancelledAt,omitempty"`
	CreatedAt          time.Time           `json:"createdAt" example:"2024-01-15T10:30:00Z"`
	UpdatedAt          time.Time           `json:"updatedAt" example:"2024-01-15T10:30:00Z"`
}

// OrderEnvelope wraps single order responses
type OrderEnvelope struct {
	Success bool          `json:"success" example:"true"`
	Data    OrderResponse `json:"data"`
}

// PaginationResponse describes one page of a listing
type PaginationResponse struct {
	Total int `json:"total" example:"42"`
	Page  int `json:"page" example:"1"`
	Limit int `json:"limit" example:"20"`
	Pages int `json:"pages" example:"3"`
}

// OrderListEnvelope wraps order listings
type OrderListEnvelope struct {
	Success    bool               `json:"success" example:"true"`
	Data       []OrderResponse    `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

// CatalogItemResponse is a catalog item
type CatalogItemResponse struct {
	ID          string          `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name        string          `json:"name" example:"Denim jacket"`
	Description string          `json:"description" example:"Classic fit denim jacket"`
	Category    string          `json:"category" example:"jackets"`
	Price       float64         `json:"price" example:"189900"`
	Colors      []string        `json:"colors"`
	Sizes       []string        `json:"sizes"`
	Stock       int             `json:"stock" example:"25"`
	IsActive    bool            `json:"isActive" example:"true"`
	Images      []ImageResponse `json:"images"`
	CreatedAt   time.Time       `json:"createdAt" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time       `json:"updatedAt" example:"2024-01-15T10:30:00Z"`
}

// CatalogItemEnvelope wraps single catalog item responses
type CatalogItemEnvelope struct {
	Success bool                `json:"success" example:"true"`
	Data    CatalogItemResponse `json:"data"`
}

// CatalogListEnvelope wraps catalog listings
type CatalogListEnvelope struct {
	Success    bool                  `json:"success" example:"true"`
	Data       []CatalogItemResponse `json:"data"`
	Pagination PaginationResponse    `json:"pagination"`
}

func toCartResponse(view *services.CartView) CartResponse {
	resp := CartResponse{
		UserID:     view.CustomerID,
		Items:      make([]CartItemResponse, 0, len(view.Items)),
		TotalPrice: view.TotalPrice.InexactFloat64(),
		Status:     view.Status,
	}
	if view.ID != uuid.Nil {
		resp.ID = view.ID.String()
		updatedAt := view.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	for _, line := range view.Items {
		item := CartItemResponse{
			ID:            line.ID.String(),
			ProductID:     line.ProductID.String(),
			Quantity:      line.Quantity,
			SelectedColor: line.SelectedColor,
			SelectedSize:  line.SelectedSize,
		}
		if p := line.Product; p != nil {
			item.Product = &ProductSummaryResponse{
				ID:       p.ID.String(),
				Name:     p.Name,
				Price:    p.Price.InexactFloat64(),
				Stock:    p.Stock,
				IsActive: p.IsActive,
			}
			if p.Image != nil {
				img := toImageResponse(*p.Image)
				item.Product.Image = &img
			}
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func toImageResponse(img domain.ProductImage) ImageResponse {
	return ImageResponse{URL: img.URL, PublicID: img.PublicID, IsPrimary: img.IsPrimary}
}

func toOrderResponse(order *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:                 order.ID.String(),
		UserID:             order.CustomerID,
		CustomerName:       order.CustomerName,
		CustomerPhone:      order.CustomerPhone,
		OrderType:          string(order.OrderType),
		Items:              make([]OrderItemResponse, 0, len(order.Items)),
		TotalAmount:        order.TotalAmount.InexactFloat64(),
		Status:             string(order.Status),
		CancellationReason: order.CancellationReason,
		VerifiedAt:         order.VerifiedAt,
		CancelledAt:        order.CancelledAt,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	for _, item := range order.Items {
		line := OrderItemResponse{
			ProductID:     item.ProductID.String(),
			ProductName:   item.ProductName,
			UnitPrice:     item.UnitPrice.InexactFloat64(),
			SelectedColor: item.SelectedColor,
			SelectedSize:  item.SelectedSize,
			Quantity:      item.Quantity,
			Subtotal:      item.Subtotal.InexactFloat64(),
		}
		if item.Image != nil {
			line.Image = &ImageResponse{URL: item.Image.URL, PublicID: item.Image.PublicID}
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}

func toOrderList(page *services.OrderPage) OrderListEnvelope {
	data := make([]OrderResponse, 0, len(page.Orders))
	for i := range page.Orders {
		data = append(data, toOrderResponse(&page.Orders[i]))
	}
	return OrderListEnvelope{Success: true, Data: data, Pagination: toPagination(page.Pagination)}
}

func toCatalogItemResponse(item *domain.CatalogItem) CatalogItemResponse {
	images := make([]ImageResponse, 0, len(item.Images))
	for _, img := range item.Images {
		images = append(images, toImageResponse(img))
	}
	return CatalogItemResponse{
		ID:          item.ID.String(),
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Price:       item.Price.InexactFloat64(),
		Colors:      item.Colors,
		Sizes:       item.Sizes,
		Stock:       item.Stock,
		IsActive:    item.IsActive,
		Images:      images,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func toCatalogList(page *services.CatalogPage) CatalogListEnvelope {
	data := make([]CatalogItemResponse, 0, len(page.Items))
	for i := range page.Items {
		data = append(data, toCatalogItemResponse(&page.Items[i]))
	}
	return CatalogListEnvelope{Success: true, Data: data, Pagination: toPagination(page.Pagination)}
}

func toPagination(p services.Pagination) PaginationResponse {
	return PaginationResponse{Total: p.Total, Page: p.Page, Limit: p.Limit, Pages: p.Pages}
}
