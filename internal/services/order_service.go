package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-service/internal/commands"
	"storefront-service/internal/domain"
	"storefront-service/internal/events"
	"storefront-service/internal/observability"
	"storefront-service/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderService creates orders and moves them through verification and cancellation
type OrderService struct {
	store     repository.UnitOfWork
	policy    domain.ReservationPolicy
	publisher events.EventPublisher
	tracer    observability.Tracer
	logger    *zap.Logger
}

func NewOrderService(
	store repository.UnitOfWork,
	policy domain.ReservationPolicy,
	publisher events.EventPublisher,
	tracer observability.Tracer,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		store:     store,
		policy:    policy,
		publisher: publisher,
		tracer:    tracer,
		logger:    logger,
	}
}

// CreateOrder snapshots the requested products into a pending order.
// Stock is checked but not reserved until the order is verified.
func (s *OrderService) CreateOrder(ctx context.Context, cmd commands.CreateOrderCommand) (order *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.Bool("order.guest", cmd.Customer == nil),
		attribute.Int("order.items", len(cmd.Items)),
	)

	if len(cmd.Items) == 0 {
		return nil, domain.ErrOrderItemsRequired
	}
	for _, item := range cmd.Items {
		if item.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
	}

	customerID, name, phone := "", cmd.CustomerName, cmd.CustomerPhone
	if cmd.Customer != nil {
		customerID = cmd.Customer.ID
		if strings.TrimSpace(cmd.Customer.Name) != "" {
			name = cmd.Customer.Name
		}
		if strings.TrimSpace(cmd.Customer.Phone) != "" {
			phone = cmd.Customer.Phone
		}
	}

	err = s.store.WithinUnit(ctx, func(ctx context.Context, unit repository.Unit) error {
		products := make(map[uuid.UUID]*domain.CatalogItem, len(cmd.Items))
		requested := make(map[uuid.UUID]int, len(cmd.Items))
		lines := make([]domain.OrderLineItem, 0, len(cmd.Items))

		for _, item := range cmd.Items {
			product, ok := products[item.ProductID]
			if !ok {
				found, err := unit.Catalog().FindByID(ctx, item.ProductID)
				if err != nil {
					return err
				}
				product = found
				products[item.ProductID] = product
			}
			if !product.IsActive {
				return domain.ErrProductInactive
			}
			requested[product.ID] += item.Quantity
			if available := s.policy.Available(product); available < requested[product.ID] {
				return domain.NewInsufficientStock(product.Name, available)
			}
			if !product.HasValidPrice() {
				s.logger.Error("Catalog item has an invalid price",
					zap.String("product_id", product.ID.String()),
					zap.String("price", product.Price.String()),
				)
				return domain.ErrInvalidPrice
			}
			lines = append(lines, domain.NewOrderLineItem(product, item.Quantity, item.SelectedColor, item.SelectedSize))
		}

		created, err := domain.NewOrder(customerID, name, phone, lines)
		if err != nil {
			return err
		}
		if err := unit.Orders().Create(ctx, created); err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Failed to create order", err, zap.String("customer_id", customerID))
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	publishAll(ctx, s.publisher, s.logger, []interface{}{orderCreated(order)})
	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_type", string(order.OrderType)),
		zap.String("total_amount", order.TotalAmount.String()),
	)
	return order, nil
}

// Verify commits stock for every line of a pending order. Either every product
// has enough stock and all are decremented, or nothing changes.
func (s *OrderService) Verify(ctx context.Context, cmd commands.VerifyOrderCommand) (order *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Verify")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("order.id", cmd.OrderID.String()))

	var pending []interface{}
	err = s.store.WithinUnit(ctx, func(ctx context.Context, unit repository.Unit) error {
		found, err := unit.Orders().FindByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if err := found.CanVerify(); err != nil {
			return err
		}

		ids, quantities := found.RequiredStock()
		products := make([]*domain.CatalogItem, 0, len(ids))
		for _, id := range ids {
			product, err := unit.Catalog().FindByID(ctx, id)
			if err != nil {
				return err
			}
			if available := s.policy.Available(product); available < quantities[id] {
				return domain.NewInsufficientStock(product.Name, available)
			}
			products = append(products, product)
		}

		now := time.Now().UTC()
		for _, product := range products {
			if err := s.policy.Reserve(product, quantities[product.ID]); err != nil {
				return err
			}
			if err := unit.Catalog().Save(ctx, product); err != nil {
				return err
			}
			pending = append(pending, events.StockReservedEvent{
				ProductID:  product.ID,
				Quantity:   quantities[product.ID],
				Stock:      product.Stock,
				OrderID:    found.ID.String(),
				OccurredAt: now,
			})
		}

		if err := found.MarkVerified(now); err != nil {
			return err
		}
		if err := unit.Orders().Save(ctx, found); err != nil {
			return err
		}
		order = found
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Failed to verify order", err, zap.String("order_id", cmd.OrderID.String()))
		return nil, err
	}

	pending = append(pending, events.OrderVerifiedEvent{
		OrderID:       order.ID,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		OccurredAt:    *order.VerifiedAt,
	})
	publishAll(ctx, s.publisher, s.logger, pending)
	s.logger.Info("Order verified", zap.String("order_id", order.ID.String()))
	return order, nil
}

// Cancel cancels an order. Stock is restored only if the order had been verified.
func (s *OrderService) Cancel(ctx context.Context, cmd commands.CancelOrderCommand) (order *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Cancel")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("order.id", cmd.OrderID.String()))

	var pending []interface{}
	var previous domain.OrderStatus
	var restored bool
	err = s.store.WithinUnit(ctx, func(ctx context.Context, unit repository.Unit) error {
		found, err := unit.Orders().FindByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		previous = found.Status

		now := time.Now().UTC()
		wasVerified, err := found.MarkCancelled(cmd.Reason, now)
		if err != nil {
			return err
		}

		if wasVerified {
			ids, quantities := found.RequiredStock()
			for _, id := range ids {
				product, err := unit.Catalog().FindByID(ctx, id)
				if errors.Is(err, domain.ErrProductNotFound) {
					s.logger.Warn("Product of cancelled order no longer exists, skipping stock release",
						zap.String("order_id", found.ID.String()),
						zap.String("product_id", id.String()),
						zap.Int("quantity", quantities[id]),
					)
					continue
				}
				if err != nil {
					return err
				}
				s.policy.Release(product, quantities[id])
				if err := unit.Catalog().Save(ctx, product); err != nil {
					return err
				}
				pending = append(pending, events.StockReleasedEvent{
					ProductID:  product.ID,
					Quantity:   quantities[id],
					Stock:      product.Stock,
					OrderID:    found.ID.String(),
					OccurredAt: now,
				})
			}
		}
		restored = wasVerified

		if err := unit.Orders().Save(ctx, found); err != nil {
			return err
		}
		order = found
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Failed to cancel order", err, zap.String("order_id", cmd.OrderID.String()))
		return nil, err
	}

	pending = append(pending, events.OrderCancelledEvent{
		OrderID:        order.ID,
		CustomerName:   order.CustomerName,
		CustomerPhone:  order.CustomerPhone,
		Reason:         order.CancellationReason,
		StockRestored:  restored,
		PreviousStatus: string(previous),
		OccurredAt:     *order.CancelledAt,
	})
	publishAll(ctx, s.publisher, s.logger, pending)
	s.logger.Info("Order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("previous_status", string(previous)),
		zap.Bool("stock_restored", restored),
	)
	return order, nil
}

// GetByID returns one order
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (order *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetByID")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("order.id", id.String()))

	return s.store.Orders().FindByID(ctx, id)
}

// List returns a page of orders filtered by status and type
func (s *OrderService) List(ctx context.Context, status domain.OrderStatus, orderType domain.OrderType, page, limit int) (result *OrderPage, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.List")
	defer func() { endSpan(span, err) }()

	if status != "" && !status.Valid() {
		return nil, domain.NewValidationError("invalid order status")
	}
	if orderType != "" && !orderType.Valid() {
		return nil, domain.NewValidationError("invalid order type")
	}

	page, limit = normalizePage(page, limit, defaultOrderLimit)
	return s.list(ctx, repository.OrderFilter{Status: status, OrderType: orderType, Page: page, Limit: limit})
}

// ListForCustomer returns the customer's own order history
func (s *OrderService) ListForCustomer(ctx context.Context, customer domain.Customer, status domain.OrderStatus, page, limit int) (result *OrderPage, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListForCustomer")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("customer.id", customer.ID))

	if status != "" && !status.Valid() {
		return nil, domain.NewValidationError("invalid order status")
	}

	page, limit = normalizePage(page, limit, defaultHistoryLimit)
	return s.list(ctx, repository.OrderFilter{CustomerID: customer.ID, Status: status, Page: page, Limit: limit})
}

func (s *OrderService) list(ctx context.Context, filter repository.OrderFilter) (*OrderPage, error) {
	orders, total, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		logFailure(s.logger, "Failed to list orders", err)
		return nil, err
	}
	return &OrderPage{
		Orders:     orders,
		Pagination: newPagination(total, filter.Page, filter.Limit),
	}, nil
}

func orderCreated(order *domain.Order) events.OrderCreatedEvent {
	lines := make([]events.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, events.OrderLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		})
	}
	return events.OrderCreatedEvent{
		OrderID:       order.ID,
		OrderType:     string(order.OrderType),
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		Items:         lines,
		TotalAmount:   order.TotalAmount,
		OccurredAt:    order.CreatedAt,
	}
}
