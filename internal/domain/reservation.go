package domain

import "time"

// ReservationPolicy decides how holding units of a product affects its stock.
// Carts reserve on add and release on removal; orders reserve on verification
// and release when a verified order is cancelled.
type ReservationPolicy interface {
	// Available returns how many units can still be reserved
	Available(item *CatalogItem) int
	// Reserve holds quantity units or fails with InsufficientStock
	Reserve(item *CatalogItem, quantity int) error
	// Release returns quantity previously reserved units
	Release(item *CatalogItem, quantity int)
}

// DecrementOnReserve treats stock as a single counter: reserving decrements it
// and releasing increments it, so stock always means "available to reserve".
type DecrementOnReserve struct{}

// NewDecrementOnReserve returns the default reservation policy
func NewDecrementOnReserve() ReservationPolicy {
	return DecrementOnReserve{}
}

func (DecrementOnReserve) Available(item *CatalogItem) int {
	return item.Stock
}

func (DecrementOnReserve) Reserve(item *CatalogItem, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if item.Stock < quantity {
		return NewInsufficientStock(item.Name, item.Stock)
	}
	item.Stock -= quantity
	item.UpdatedAt = time.Now().UTC()
	return nil
}

func (DecrementOnReserve) Release(item *CatalogItem, quantity int) {
	if quantity <= 0 {
		return
	}
	item.Stock += quantity
	item.UpdatedAt = time.Now().UTC()
}
