package services

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/commands"
	"storefront-service/internal/domain"
	"storefront-service/internal/events"
	"storefront-service/internal/observability"
	"storefront-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CartService runs cart operations. Each mutation reads and writes stock and
// the cart inside one unit of work.
type CartService struct {
	store     repository.UnitOfWork
	policy    domain.ReservationPolicy
	publisher events.EventPublisher
	tracer    observability.Tracer
	logger    *zap.Logger
}

func NewCartService(
	store repository.UnitOfWork,
	policy domain.ReservationPolicy,
	publisher events.EventPublisher,
	tracer observability.Tracer,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		store:     store,
		policy:    policy,
		publisher: publisher,
		tracer:    tracer,
		logger:    logger,
	}
}

// GetCart returns the customer's active cart, or an empty one
func (s *CartService) GetCart(ctx context.Context, customer domain.Customer) (view *CartView, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetCart")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("customer.id", customer.ID))

	cart, err := s.store.Carts().FindActiveByCustomer(ctx, customer.ID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return emptyCartView(customer.ID), nil
	}
	if err != nil {
		logFailure(s.logger, "Failed to load cart", err, zap.String("customer_id", customer.ID))
		return nil, err
	}

	products, err := loadCartProducts(ctx, s.store.Catalog(), cart, nil)
	if err != nil {
		return nil, err
	}
	cart.Recalculate(pricesOf(products))
	return newCartView(cart, products), nil
}

// AddItem reserves stock and adds it to the customer's cart, merging with an
// existing line for the same product
func (s *CartService) AddItem(ctx context.Context, cmd commands.AddCartItemCommand) (view *CartView, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("customer.id", cmd.Customer.ID),
		attribute.String("product.id", cmd.ProductID.String()),
		attribute.Int("cart.quantity", cmd.Quantity),
	)

	if cmd.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	var pending []interface{}
	err = s.store.WithinUnit(ctx, func(ctx context.Context, unit repository.Unit) error {
		product, err := unit.Catalog().FindByID(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return domain.ErrProductInactive
		}
		// Stock already held by this cart is not part of Available, so only the
		// incremental quantity needs to fit
		if available := s.policy.Available(product); available < cmd.Quantity {
			return domain.NewInsufficientStock("", available)
		}
		if !product.HasValidPrice() {
			s.logger.Error("Catalog item has an invalid price",
				zap.String("product_id", product.ID.String()),
				zap.String("price", product.Price.String()),
			)
			return domain.ErrInvalidPrice
		}

		cart, isNew, err := s.loadOrCreateCart(ctx, unit, cmd.Customer.ID)
		if err != nil {
			return err
		}
		if _, err := cart.AddItem(product.ID, cmd.Quantity, cmd.SelectedColor, cmd.SelectedSize); err != nil {
			return err
		}
		if err := s.policy.Reserve(product, cmd.Quantity); err != nil {
			return err
		}

		products, err := loadCartProducts(ctx, unit.Catalog(), cart, product)
		if err != nil {
			return err
		}
		cart.Recalculate(pricesOf(products))

		if isNew {
			err = unit.Carts().Create(ctx, cart)
		} else {
			err = unit.Carts().Save(ctx, cart)
		}
		if err != nil {
			return err
		}
		if err := unit.Catalog().Save(ctx, product); err != nil {
			return err
		}

		view = newCartView(cart, products)
		pending = append(pending, events.StockReservedEvent{
			ProductID:  product.ID,
			Quantity:   cmd.Quantity,
			Stock:      product.Stock,
			CustomerID: cmd.Customer.ID,
			OccurredAt: time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Failed to add item to cart", err,
			zap.String("customer_id", cmd.Customer.ID),
			zap.String("product_id", cmd.ProductID.String()),
			zap.Int("quantity", cmd.Quantity),
		)
		return nil, err
	}

	publishAll(ctx, s.publisher, s.logger, pending)
	s.logger.Info("Item added to cart",
		zap.String("customer_id", cmd.Customer.ID),
		zap.String("product_id", cmd.ProductID.String()),
		zap.Int("quantity", cmd.Quantity),
	)
	return view, nil
}

// UpdateItem sets a line's quantity, reserving or releasing the difference.
// A quantity of zero removes the line.
func (s *CartService) UpdateItem(ctx context.Context, cmd commands.UpdateCartItemCommand) (view *CartView, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateItem")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("customer.id", cmd.Customer.ID),
		attribute.String("cart.item_id", cmd.ItemID.String()),
		attribute.Int("cart.quantity", cmd.Quantity),
	)

	if cmd.Quantity < 0 {
		return nil, domain.NewValidationError("quantity cannot be negative")
	}

	var pending []interface{}
	err = s.store.WithinUnit(ctx, func(ctx context.Context, unit repository.Unit) error {
		cart, err := unit.Carts().FindActiveByCustomer(ctx, cmd.Customer.ID)
		if err != nil {
			return err
		}
		line, err := cart.FindItem(cmd.ItemID)
		if err != nil {
			return err
		}
		productID, oldQuantity := line.ProductID, line.Quantity

		product, err := unit.Catalog().FindByID(ctx, productID)
		if err != nil {
			return err
		}

		diff := cmd.Quantity - oldQuantity
		switch {
		case diff > 0:
			if err := s.policy.Reserve(product, diff); err != nil {
				return err
			}
		case diff < 0:
			s.policy.Release(product, -diff)
		}

		if err := cart.SetQuantity(cmd.ItemID, cmd.Quantity); err != nil {
			return err
		}

		products, err := loadCartProducts(ctx, unit.Catalog(), cart, product)
		if err != nil {
			return err
		}
		cart.Recalculate(pricesOf(products))

		if err := unit.Carts().Save(ctx, cart); err != nil {
			return err
		}
		if diff != 0 {
			if err := unit.Catalog().Save(ctx, product); err != nil {
				return err
			}
		}

		view = newCartView(cart, products)
		if event := stockMovement(product, diff, cmd.Customer.ID); event != nil {
			pending = append(pending, event)
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Failed to update cart item", err,
			zap.String("customer_id", cmd.Customer.ID),
			zap.String("item_id", cmd.ItemID.String()),
			zap.Int("quantity", cmd.Quantity),
		)
		return nil, err
	}

	publishAll(ctx, s.publisher, s.logger, pending)
	s.logger.Info("Cart item updated",
		zap.String("customer_id", cmd.Customer.ID),
		zap.String("item_id", cmd.ItemID.String()),
		zap.Int("quantity", cmd.Quantity),
	)
	return view, nil
}

// RemoveItem deletes a line and releases its full quantity
func (s *CartService) RemoveItem(ctx context.Context, cmd commands.RemoveCartItemCommand) (view *CartView, err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("customer.id", cmd.Customer.ID),
		attribute.String("cart.item_id", cmd.ItemID.String()),
	)

	var pending []interface{}
	err = s.store.WithinUnit(ctx, func(ctx context.Context, unit repository.Unit) error {
		cart, err := unit.Carts().FindActiveByCustomer(ctx, cmd.Customer.ID)
		if err != nil {
			return err
		}
		removed, err := cart.RemoveItem(cmd.ItemID)
		if err != nil {
			return err
		}

		product, err := s.releaseLine(ctx, unit, removed)
		if err != nil {
			return err
		}

		products, err := loadCartProducts(ctx, unit.Catalog(), cart, nil)
		if err != nil {
			return err
		}
		cart.Recalculate(pricesOf(products))
		if err := unit.Carts().Save(ctx, cart); err != nil {
			return err
		}

		view = newCartView(cart, products)
		if product != nil {
			pending = append(pending, stockMovement(product, -removed.Quantity, cmd.Customer.ID))
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Failed to remove cart item", err,
			zap.String("customer_id", cmd.Customer.ID),
			zap.String("item_id", cmd.ItemID.String()),
		)
		return nil, err
	}

	publishAll(ctx, s.publisher, s.logger, pending)
	s.logger.Info("Cart item removed",
		zap.String("customer_id", cmd.Customer.ID),
		zap.String("item_id", cmd.ItemID.String()),
	)
	return view, nil
}

// ClearCart releases every line and empties the cart. A missing cart is a no-op.
func (s *CartService) ClearCart(ctx context.Context, cmd commands.ClearCartCommand) (err error) {
	ctx, span := s.tracer.Start(ctx, "CartService.ClearCart")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("customer.id", cmd.Customer.ID))

	var pending []interface{}
	err = s.store.WithinUnit(ctx, func(ctx context.Context, unit repository.Unit) error {
		cart, err := unit.Carts().FindActiveByCustomer(ctx, cmd.Customer.ID)
		if errors.Is(err, domain.ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return nil
		}

		for _, line := range cart.Clear() {
			product, err := s.releaseLine(ctx, unit, line)
			if err != nil {
				return err
			}
			if product != nil {
				pending = append(pending, stockMovement(product, -line.Quantity, cmd.Customer.ID))
			}
		}
		return unit.Carts().Save(ctx, cart)
	})
	if err != nil {
		logFailure(s.logger, "Failed to clear cart", err, zap.String("customer_id", cmd.Customer.ID))
		return err
	}

	publishAll(ctx, s.publisher, s.logger, pending)
	s.logger.Info("Cart cleared",
		zap.String("customer_id", cmd.Customer.ID),
		zap.Int("released_lines", len(pending)),
	)
	return nil
}

func (s *CartService) loadOrCreateCart(ctx context.Context, unit repository.Unit, customerID string) (*domain.Cart, bool, error) {
	cart, err := unit.Carts().FindActiveByCustomer(ctx, customerID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return domain.NewCart(customerID), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cart, false, nil
}

// releaseLine returns a line's quantity to its product. A product that no
// longer exists is skipped and nil is returned.
func (s *CartService) releaseLine(ctx context.Context, unit repository.Unit, line domain.CartLineItem) (*domain.CatalogItem, error) {
	product, err := unit.Catalog().FindByID(ctx, line.ProductID)
	if errors.Is(err, domain.ErrProductNotFound) {
		s.logger.Warn("Product of cart line no longer exists, skipping stock release",
			zap.String("product_id", line.ProductID.String()),
			zap.Int("quantity", line.Quantity),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.policy.Release(product, line.Quantity)
	if err := unit.Catalog().Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// loadCartProducts reads the current state of every product in the cart.
// Products already loaded in this unit are passed as known so their
// in-flight stock is used. Vanished products are left out.
func loadCartProducts(ctx context.Context, catalog repository.CatalogRepository, cart *domain.Cart, known ...*domain.CatalogItem) (map[uuid.UUID]*domain.CatalogItem, error) {
	products := make(map[uuid.UUID]*domain.CatalogItem, len(cart.Items))
	for _, k := range known {
		if k != nil {
			products[k.ID] = k
		}
	}
	for _, item := range cart.Items {
		if _, ok := products[item.ProductID]; ok {
			continue
		}
		product, err := catalog.FindByID(ctx, item.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		products[item.ProductID] = product
	}
	return products, nil
}

func pricesOf(products map[uuid.UUID]*domain.CatalogItem) map[uuid.UUID]decimal.Decimal {
	prices := make(map[uuid.UUID]decimal.Decimal, len(products))
	for id, product := range products {
		prices[id] = product.Price
	}
	return prices
}

// stockMovement builds the event for a signed stock change, or nil for none
func stockMovement(product *domain.CatalogItem, diff int, customerID string) interface{} {
	now := time.Now().UTC()
	switch {
	case diff > 0:
		return events.StockReservedEvent{
			ProductID:  product.ID,
			Quantity:   diff,
			Stock:      product.Stock,
			CustomerID: customerID,
			OccurredAt: now,
		}
	case diff < 0:
		return events.StockReleasedEvent{
			ProductID:  product.ID,
			Quantity:   -diff,
			Stock:      product.Stock,
			CustomerID: customerID,
			OccurredAt: now,
		}
	}
	return nil
}
