package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusVerified  OrderStatus = "verified"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusCompleted OrderStatus = "completed"
)

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusVerified, OrderStatusCancelled, OrderStatusCompleted:
		return true
	}
	return false
}

// OrderType tells registered-customer orders apart from guest orders
type OrderType string

const (
	OrderTypeRegistered OrderType = "registered"
	OrderTypeGuest      OrderType = "guest"
)

// Valid reports whether t is a known order type
func (t OrderType) Valid() bool {
	return t == OrderTypeRegistered || t == OrderTypeGuest
}

// ImageRef is the single image captured in an order snapshot
type ImageRef struct {
	URL      string
	PublicID string
}

// OrderLineItem is an immutable snapshot of a product taken at order creation
type OrderLineItem struct {
	ProductID     uuid.UUID
	ProductName   string
	UnitPrice     decimal.Decimal
	Image         *ImageRef
	SelectedColor string
	SelectedSize  string
	Quantity      int
	Subtotal      decimal.Decimal
}

// NewOrderLineItem snapshots a catalog item for an order
func NewOrderLineItem(item *CatalogItem, quantity int, color, size string) OrderLineItem {
	line := OrderLineItem{
		ProductID:     item.ID,
		ProductName:   item.Name,
		UnitPrice:     item.Price,
		SelectedColor: color,
		SelectedSize:  size,
		Quantity:      quantity,
		Subtotal:      item.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
	if img, ok := item.PrimaryImage(); ok {
		line.Image = &ImageRef{URL: img.URL, PublicID: img.PublicID}
	}
	return line
}

// Order is a request to buy a set of products, confirmed manually by an admin
type Order struct {
	ID                 uuid.UUID
	CustomerID         string // empty for guest orders
	CustomerName       string
	CustomerPhone      string
	OrderType          OrderType
	Items              []OrderLineItem
	TotalAmount        decimal.Decimal
	Status             OrderStatus
	CancellationReason string
	VerifiedAt         *time.Time
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewOrder creates a pending order. An empty customerID makes it a guest order.
func NewOrder(customerID, customerName, customerPhone string, items []OrderLineItem) (*Order, error) {
	customerName = strings.TrimSpace(customerName)
	customerPhone = strings.TrimSpace(customerPhone)
	if customerName == "" {
		return nil, ErrCustomerNameRequired
	}
	if customerPhone == "" {
		return nil, ErrCustomerPhoneRequired
	}
	if len(items) == 0 {
		return nil, ErrOrderItemsRequired
	}

	orderType := OrderTypeGuest
	if customerID != "" {
		orderType = OrderTypeRegistered
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}

	now := time.Now().UTC()
	return &Order{
		ID:            uuid.New(),
		CustomerID:    customerID,
		CustomerName:  customerName,
		CustomerPhone: customerPhone,
		OrderType:     orderType,
		Items:         items,
		TotalAmount:   total,
		Status:        OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsGuest reports whether the order has no owning customer
func (o *Order) IsGuest() bool {
	return o.CustomerID == ""
}

// RequiredStock sums line quantities per product, in first-seen order
func (o *Order) RequiredStock() ([]uuid.UUID, map[uuid.UUID]int) {
	ids := make([]uuid.UUID, 0, len(o.Items))
	quantities := make(map[uuid.UUID]int, len(o.Items))
	for _, item := range o.Items {
		if _, seen := quantities[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}
	return ids, quantities
}

// CanVerify returns a Conflict unless the order is pending
func (o *Order) CanVerify() error {
	if o.Status != OrderStatusPending {
		return NewOrderStatusConflict(o.Status)
	}
	return nil
}

// MarkVerified moves a pending order to verified
func (o *Order) MarkVerified(at time.Time) error {
	if err := o.CanVerify(); err != nil {
		return err
	}
	o.Status = OrderStatusVerified
	o.VerifiedAt = &at
	o.UpdatedAt = at
	return nil
}

// CanCancel returns a Conflict for cancelled and completed orders
func (o *Order) CanCancel() error {
	switch o.Status {
	case OrderStatusCancelled:
		return ErrOrderAlreadyCancelled
	case OrderStatusCompleted:
		return NewOrderStatusConflict(o.Status)
	}
	return nil
}

// MarkCancelled cancels the order and reports whether stock had been committed
func (o *Order) MarkCancelled(reason string, at time.Time) (bool, error) {
	if err := o.CanCancel(); err != nil {
		return false, err
	}
	wasVerified := o.Status == OrderStatusVerified
	o.Status = OrderStatusCancelled
	o.CancellationReason = strings.TrimSpace(reason)
	o.CancelledAt = &at
	o.UpdatedAt = at
	return wasVerified, nil
}
