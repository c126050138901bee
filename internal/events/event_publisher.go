package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event interface{}) error
}

// Stock domain events
type StockReservedEvent struct {
	ProductID  uuid.UUID `json:"productId"`
	Quantity   int       `json:"quantity"`
	Stock      int       `json:"stock"`
	CustomerID string    `json:"customerId,omitempty"`
	OrderID    string    `json:"orderId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type StockReleasedEvent struct {
	ProductID  uuid.UUID `json:"productId"`
	Quantity   int       `json:"quantity"`
	Stock      int       `json:"stock"`
	CustomerID string    `json:"customerId,omitempty"`
	OrderID    string    `json:"orderId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type StockAdjustedEvent struct {
	ProductID  uuid.UUID `json:"productId"`
	Delta      int       `json:"delta"`
	Stock      int       `json:"stock"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type CatalogItemCreatedEvent struct {
	ProductID  uuid.UUID       `json:"productId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Order domain events
type OrderLine struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderCreatedEvent struct {
	OrderID       uuid.UUID       `json:"orderId"`
	OrderType     string          `json:"orderType"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	Items         []OrderLine     `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

type OrderVerifiedEvent struct {
	OrderID       uuid.UUID `json:"orderId"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type OrderCancelledEvent struct {
	OrderID        uuid.UUID `json:"orderId"`
	CustomerName   string    `json:"customerName"`
	CustomerPhone  string    `json:"customerPhone"`
	Reason         string    `json:"reason,omitempty"`
	StockRestored  bool      `json:"stockRestored"`
	PreviousStatus string    `json:"previousStatus"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// EventType returns the wire name of an event
func EventType(event interface{}) string {
	switch event.(type) {
	case StockReservedEvent:
		return "StockReserved"
	case StockReleasedEvent:
		return "StockReleased"
	case StockAdjustedEvent:
		return "StockAdjusted"
	case CatalogItemCreatedEvent:
		return "CatalogItemCreated"
	case OrderCreatedEvent:
		return "OrderCreated"
	case OrderVerifiedEvent:
		return "OrderVerified"
	case OrderCancelledEvent:
		return "OrderCancelled"
	default:
		return "Unknown"
	}
}

// IsOrderEvent reports whether the event describes an order transition
func IsOrderEvent(event interface{}) bool {
	switch event.(type) {
	case OrderCreatedEvent, OrderVerifiedEvent, OrderCancelledEvent:
		return true
	}
	return false
}

// PartitionKey returns the aggregate id the event belongs to
func PartitionKey(event interface{}) string {
	switch e := event.(type) {
	case StockReservedEvent:
		return e.ProductID.String()
	case StockReleasedEvent:
		return e.ProductID.String()
	case StockAdjustedEvent:
		return e.ProductID.String()
	case CatalogItemCreatedEvent:
		return e.ProductID.String()
	case OrderCreatedEvent:
		return e.OrderID.String()
	case OrderVerifiedEvent:
		return e.OrderID.String()
	case OrderCancelledEvent:
		return e.OrderID.String()
	}
	return ""
}

// InMemoryEventPublisher keeps events in memory. Used when no broker is configured.
type InMemoryEventPublisher struct {
	mu     sync.Mutex
	logger *zap.Logger
	events []interface{}
}

func NewEventPublisher(logger *zap.Logger) *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		logger: logger,
		events: make([]interface{}, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, event interface{}) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	p.logger.Debug("Event published (in-memory)", zap.String("event-type", EventType(event)))
	return nil
}

// Events returns a copy of the published events
func (p *InMemoryEventPublisher) Events() []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]interface{}, len(p.events))
	copy(out, p.events)
	return out
}

// MultiPublisher fans an event out to every publisher
type MultiPublisher struct {
	publishers []EventPublisher
}

func NewMultiPublisher(publishers ...EventPublisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

// Publish delivers to all publishers and joins their errors
func (m *MultiPublisher) Publish(ctx context.Context, event interface{}) error {
	var errs error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}
