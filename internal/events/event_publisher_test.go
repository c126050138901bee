package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event interface{}) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestEventType_AllTypes(t *testing.T) {
	testCases := []struct {
		name     string
		event    interface{}
		expected string
	}{
		{"StockReserved", StockReservedEvent{}, "StockReserved"},
		{"StockReleased", StockReleasedEvent{}, "StockReleased"},
		{"StockAdjusted", StockAdjustedEvent{}, "StockAdjusted"},
		{"CatalogItemCreated", CatalogItemCreatedEvent{}, "CatalogItemCreated"},
		{"OrderCreated", OrderCreatedEvent{}, "OrderCreated"},
		{"OrderVerified", OrderVerifiedEvent{}, "OrderVerified"},
		{"OrderCancelled", OrderCancelledEvent{}, "OrderCancelled"},
		{"Unknown", "unknown", "Unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EventType(tc.event))
		})
	}
}

func TestPartitionKey(t *testing.T) {
	productID := uuid.New()
	orderID := uuid.New()

	assert.Equal(t, productID.String(), PartitionKey(StockReservedEvent{ProductID: productID}))
	assert.Equal(t, orderID.String(), PartitionKey(OrderCancelledEvent{OrderID: orderID}))
	assert.Empty(t, PartitionKey(42))
}

func TestIsOrderEvent(t *testing.T) {
	assert.True(t, IsOrderEvent(OrderCreatedEvent{}))
	assert.True(t, IsOrderEvent(OrderVerifiedEvent{}))
	assert.True(t, IsOrderEvent(OrderCancelledEvent{}))
	assert.False(t, IsOrderEvent(StockReservedEvent{}))
}

func TestInMemoryEventPublisher_Publish(t *testing.T) {
	publisher := NewEventPublisher(zap.NewNop())

	assert.NoError(t, publisher.Publish(context.Background(), StockReservedEvent{Quantity: 1}))
	assert.NoError(t, publisher.Publish(context.Background(), OrderCreatedEvent{}))

	published := publisher.Events()
	assert.Len(t, published, 2)
	assert.IsType(t, StockReservedEvent{}, published[0])
	assert.IsType(t, OrderCreatedEvent{}, published[1])
}

func TestMultiPublisher_DeliversToAll(t *testing.T) {
	first := new(MockEventPublisher)
	second := new(MockEventPublisher)
	event := OrderVerifiedEvent{OrderID: uuid.New()}

	first.On("Publish", mock.Anything, event).Return(errors.New("broker down"))
	second.On("Publish", mock.Anything, event).Return(nil)

	multi := NewMultiPublisher(first, second)
	err := multi.Publish(context.Background(), event)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}
