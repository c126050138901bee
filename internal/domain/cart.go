package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartStatusActive is the only status this service mutates
const CartStatusActive = "active"

// CartLineItem is one product held in a cart
type CartLineItem struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	Quantity      int
	SelectedColor string
	SelectedSize  string
}

// Cart is the per-customer aggregate of reserved products
type Cart struct {
	ID         uuid.UUID
	CustomerID string
	Items      []CartLineItem
	TotalPrice decimal.Decimal
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewCart creates an empty active cart for a customer
func NewCart(customerID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:         uuid.New(),
		CustomerID: customerID,
		Items:      make([]CartLineItem, 0),
		TotalPrice: decimal.Zero,
		Status:     CartStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ItemForProduct returns the line holding productID, if any
func (c *Cart) ItemForProduct(productID uuid.UUID) *CartLineItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// FindItem returns the line with the given id
func (c *Cart) FindItem(itemID uuid.UUID) (*CartLineItem, error) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i], nil
		}
	}
	return nil, ErrCartItemNotFound
}

// AddItem merges quantity into the product's existing line or appends a new one
func (c *Cart) AddItem(productID uuid.UUID, quantity int, color, size string) (*CartLineItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if existing := c.ItemForProduct(productID); existing != nil {
		existing.Quantity += quantity
		c.UpdatedAt = time.Now().UTC()
		return existing, nil
	}

	c.Items = append(c.Items, CartLineItem{
		ID:            uuid.New(),
		ProductID:     productID,
		Quantity:      quantity,
		SelectedColor: color,
		SelectedSize:  size,
	})
	c.UpdatedAt = time.Now().UTC()
	return &c.Items[len(c.Items)-1], nil
}

// SetQuantity changes a line's quantity; zero removes the line
func (c *Cart) SetQuantity(itemID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return NewValidationError("quantity cannot be negative")
	}
	if quantity == 0 {
		_, err := c.RemoveItem(itemID)
		return err
	}
	item, err := c.FindItem(itemID)
	if err != nil {
		return err
	}
	item.Quantity = quantity
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveItem deletes a line and returns it
func (c *Cart) RemoveItem(itemID uuid.UUID) (CartLineItem, error) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			removed := c.Items[i]
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = time.Now().UTC()
			return removed, nil
		}
	}
	return CartLineItem{}, ErrCartItemNotFound
}

// Clear empties the cart and returns the lines it held
func (c *Cart) Clear() []CartLineItem {
	removed := c.Items
	c.Items = make([]CartLineItem, 0)
	c.TotalPrice = decimal.Zero
	c.UpdatedAt = time.Now().UTC()
	return removed
}

// Recalculate sets TotalPrice from current unit prices. Lines whose product
// has no known price count as zero.
func (c *Cart) Recalculate(prices map[uuid.UUID]decimal.Decimal) {
	total := decimal.Zero
	for _, item := range c.Items {
		price, ok := prices[item.ProductID]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	c.TotalPrice = total
}
