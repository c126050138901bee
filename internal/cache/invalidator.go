package cache

import (
	"context"
	"fmt"

	"storefront-service/internal/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	catalogItemPrefix = "catalog:item:"
	catalogListPrefix = "catalog:list:"
)

// CatalogListPattern matches every cached catalog page
const CatalogListPattern = catalogListPrefix + "*"

// CatalogItemKey is the cache key of a single catalog item
func CatalogItemKey(id uuid.UUID) string {
	return catalogItemPrefix + id.String()
}

// CatalogListKey is the cache key of one public catalog page
func CatalogListKey(category string, page, limit int) string {
	return fmt.Sprintf("%s%s:%d:%d", catalogListPrefix, category, page, limit)
}

// Invalidator drops cached catalog entries whenever stock moves.
// It is registered as an event publisher so every committed stock change reaches it.
type Invalidator struct {
	cache  Cache
	logger *zap.Logger
}

func NewInvalidator(cache Cache, logger *zap.Logger) *Invalidator {
	return &Invalidator{cache: cache, logger: logger}
}

func (i *Invalidator) Publish(ctx context.Context, event interface{}) error {
	var productID uuid.UUID
	switch e := event.(type) {
	case events.StockReservedEvent:
		productID = e.ProductID
	case events.StockReleasedEvent:
		productID = e.ProductID
	case events.StockAdjustedEvent:
		productID = e.ProductID
	case events.CatalogItemCreatedEvent:
		productID = e.ProductID
	default:
		return nil
	}

	if err := i.cache.Delete(ctx, CatalogItemKey(productID)); err != nil {
		i.logger.Warn("Failed to invalidate catalog item", zap.String("product_id", productID.String()), zap.Error(err))
		return err
	}
	if err := i.cache.DeleteByPattern(ctx, CatalogListPattern); err != nil {
		i.logger.Warn("Failed to invalidate catalog pages", zap.Error(err))
		return err
	}
	i.logger.Debug("Catalog cache invalidated", zap.String("product_id", productID.String()))
	return nil
}
