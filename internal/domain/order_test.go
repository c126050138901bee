package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, customerID string) *Order {
	t.Helper()
	item := newTestItem(t, 10)
	order, err := NewOrder(customerID, "Dewi", "0812000000", []OrderLineItem{
		NewOrderLineItem(item, 2, "white", "M"),
	})
	require.NoError(t, err)
	return order
}

func TestNewOrderLineItem_Snapshot(t *testing.T) {
	item := newTestItem(t, 10)

	line := NewOrderLineItem(item, 3, "navy", "L")
	item.Name = "Renamed"
	item.Price = decimal.NewFromInt(1)

	assert.Equal(t, "Linen Shirt", line.ProductName)
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(150000)))
	assert.True(t, line.Subtotal.Equal(decimal.NewFromInt(450000)))
	require.NotNil(t, line.Image)
	assert.Equal(t, "b", line.Image.PublicID)
}

func TestNewOrder(t *testing.T) {
	guest := newTestOrder(t, "")
	assert.Equal(t, OrderTypeGuest, guest.OrderType)
	assert.True(t, guest.IsGuest())
	assert.Equal(t, OrderStatusPending, guest.Status)
	assert.True(t, guest.TotalAmount.Equal(decimal.NewFromInt(300000)))

	registered := newTestOrder(t, "customer-1")
	assert.Equal(t, OrderTypeRegistered, registered.OrderType)
}

func TestNewOrder_Validation(t *testing.T) {
	line := OrderLineItem{ProductID: uuid.New(), Quantity: 1, Subtotal: decimal.NewFromInt(1)}

	_, err := NewOrder("", "", "0812", []OrderLineItem{line})
	assert.ErrorIs(t, err, ErrCustomerNameRequired)

	_, err = NewOrder("", "Dewi", " ", []OrderLineItem{line})
	assert.ErrorIs(t, err, ErrCustomerPhoneRequired)

	_, err = NewOrder("", "Dewi", "0812", nil)
	assert.ErrorIs(t, err, ErrOrderItemsRequired)
}

func TestOrderStateMachine(t *testing.T) {
	now := time.Now().UTC()

	t.Run("pending to verified to cancelled", func(t *testing.T) {
		order := newTestOrder(t, "")
		require.NoError(t, order.MarkVerified(now))
		assert.Equal(t, OrderStatusVerified, order.Status)
		assert.NotNil(t, order.VerifiedAt)

		err := order.MarkVerified(now)
		assert.True(t, IsKind(err, KindConflict))
		assert.Equal(t, "order is already in status verified", err.Error())

		wasVerified, err := order.MarkCancelled(" out of stock ", now)
		require.NoError(t, err)
		assert.True(t, wasVerified)
		assert.Equal(t, "out of stock", order.CancellationReason)
		assert.NotNil(t, order.CancelledAt)
	})

	t.Run("pending to cancelled", func(t *testing.T) {
		order := newTestOrder(t, "")
		wasVerified, err := order.MarkCancelled("", now)
		require.NoError(t, err)
		assert.False(t, wasVerified)

		_, err = order.MarkCancelled("", now)
		assert.ErrorIs(t, err, ErrOrderAlreadyCancelled)
		assert.True(t, IsKind(order.MarkVerified(now), KindConflict))
	})

	t.Run("completed is terminal", func(t *testing.T) {
		order := newTestOrder(t, "")
		order.Status = OrderStatusCompleted
		_, err := order.MarkCancelled("", now)
		assert.True(t, IsKind(err, KindConflict))
		assert.True(t, IsKind(order.MarkVerified(now), KindConflict))
	})
}

func TestOrderRequiredStock(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	order := &Order{Items: []OrderLineItem{
		{ProductID: p1, Quantity: 2},
		{ProductID: p2, Quantity: 1},
		{ProductID: p1, Quantity: 3},
	}}

	ids, quantities := order.RequiredStock()

	assert.Equal(t, []uuid.UUID{p1, p2}, ids)
	assert.Equal(t, 5, quantities[p1])
	assert.Equal(t, 1, quantities[p2])
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderStatusCompleted.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
	assert.True(t, OrderTypeGuest.Valid())
	assert.False(t, OrderType("vip").Valid())
}
