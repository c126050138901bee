package services

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/cache"
	"storefront-service/internal/commands"
	"storefront-service/internal/domain"
	"storefront-service/internal/events"
	"storefront-service/internal/observability"
	"storefront-service/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CatalogService covers the catalog administration needed to seed and restock
// products, plus cached public reads
type CatalogService struct {
	store     repository.UnitOfWork
	cache     cache.Cache
	cacheTTL  time.Duration
	publisher events.EventPublisher
	tracer    observability.Tracer
	logger    *zap.Logger
}

func NewCatalogService(
	store repository.UnitOfWork,
	c cache.Cache,
	cacheTTL time.Duration,
	publisher events.EventPublisher,
	tracer observability.Tracer,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		store:     store,
		cache:     c,
		cacheTTL:  cacheTTL,
		publisher: publisher,
		tracer:    tracer,
		logger:    logger,
	}
}

// Create adds a new active catalog item
func (s *CatalogService) Create(ctx context.Context, cmd commands.CreateCatalogItemCommand) (item *domain.CatalogItem, err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Create")
	defer func() { endSpan(span, err) }()

	item, err = domain.NewCatalogItem(cmd.Name, cmd.Description, cmd.Category, cmd.Price, cmd.Colors, cmd.Sizes, cmd.Stock, cmd.Images)
	if err != nil {
		return nil, err
	}
	if err := s.store.Catalog().Create(ctx, item); err != nil {
		logFailure(s.logger, "Failed to create catalog item", err, zap.String("name", cmd.Name))
		return nil, err
	}

	span.SetAttributes(attribute.String("product.id", item.ID.String()))
	publishAll(ctx, s.publisher, s.logger, []interface{}{events.CatalogItemCreatedEvent{
		ProductID:  item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Stock:      item.Stock,
		OccurredAt: item.CreatedAt,
	}})
	s.logger.Info("Catalog item created",
		zap.String("product_id", item.ID.String()),
		zap.String("name", item.Name),
		zap.Int("stock", item.Stock),
	)
	return item, nil
}

// GetByID returns a catalog item, reading through the cache.
// Inactive items are only visible with includeHidden.
func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID, includeHidden bool) (item *domain.CatalogItem, err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetByID")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("product.id", id.String()))

	key := cache.CatalogItemKey(id)
	var cached domain.CatalogItem
	if s.cache != nil {
		if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return visible(&cached, includeHidden)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	item, err = s.store.Catalog().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, item, s.cacheTTL); err != nil {
			s.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
		} else {
			s.dropIfChanged(ctx, key, item)
		}
	}
	return visible(item, includeHidden)
}

// dropIfChanged evicts a fill that lost the race with a committed write.
// Invalidation runs after commit, so a write committed before this re-read
// may already have evicted the key ahead of our fill.
func (s *CatalogService) dropIfChanged(ctx context.Context, key string, filled *domain.CatalogItem) {
	current, err := s.store.Catalog().FindByID(ctx, filled.ID)
	if err == nil && current.Version == filled.Version {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to drop stale catalog fill", zap.String("key", key), zap.Error(err))
	}
}

func visible(item *domain.CatalogItem, includeHidden bool) (*domain.CatalogItem, error) {
	if !item.IsActive && !includeHidden {
		return nil, domain.ErrProductNotFound
	}
	return item, nil
}

// List returns a page of catalog items. Public pages are cached.
func (s *CatalogService) List(ctx context.Context, category string, includeHidden bool, page, limit int) (result *CatalogPage, err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.List")
	defer func() { endSpan(span, err) }()

	page, limit = normalizePage(page, limit, defaultCatalogLimit)
	key := cache.CatalogListKey(category, page, limit)
	useCache := s.cache != nil && !includeHidden

	if useCache {
		var cached CatalogPage
		if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &cached, nil
		}
	}

	items, total, err := s.store.Catalog().List(ctx, repository.CatalogFilter{
		Category:      category,
		IncludeHidden: includeHidden,
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		logFailure(s.logger, "Failed to list catalog items", err)
		return nil, err
	}

	result = &CatalogPage{Items: items, Pagination: newPagination(total, page, limit)}
	if useCache {
		if err := cache.SetJSON(ctx, s.cache, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

// AdjustStock applies an administrative restock (positive delta) or write-off
// (negative delta). Stock cannot go below zero.
func (s *CatalogService) AdjustStock(ctx context.Context, cmd commands.AdjustStockCommand) (item *domain.CatalogItem, err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.AdjustStock")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("product.id", cmd.ID.String()),
		attribute.Int("stock.delta", cmd.Delta),
	)

	if cmd.Delta == 0 {
		return nil, domain.NewValidationError("delta must not be zero")
	}

	err = s.store.WithinUnit(ctx, func(ctx context.Context, unit repository.Unit) error {
		found, err := unit.Catalog().FindByID(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if err := found.AdjustStock(cmd.Delta); err != nil {
			return err
		}
		if err := unit.Catalog().Save(ctx, found); err != nil {
			return err
		}
		item = found
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Failed to adjust stock", err,
			zap.String("product_id", cmd.ID.String()),
			zap.Int("delta", cmd.Delta),
		)
		return nil, err
	}

	publishAll(ctx, s.publisher, s.logger, []interface{}{events.StockAdjustedEvent{
		ProductID:  item.ID,
		Delta:      cmd.Delta,
		Stock:      item.Stock,
		Reason:     cmd.Reason,
		OccurredAt: time.Now().UTC(),
	}})
	s.logger.Info("Stock adjusted",
		zap.String("product_id", item.ID.String()),
		zap.Int("delta", cmd.Delta),
		zap.Int("stock", item.Stock),
	)
	return item, nil
}

// SetStatus activates or deactivates a catalog item
func (s *CatalogService) SetStatus(ctx context.Context, cmd commands.SetCatalogItemStatusCommand) (item *domain.CatalogItem, err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.SetStatus")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("product.id", cmd.ID.String()),
		attribute.Bool("product.active", cmd.IsActive),
	)

	err = s.store.WithinUnit(ctx, func(ctx context.Context, unit repository.Unit) error {
		found, err := unit.Catalog().FindByID(ctx, cmd.ID)
		if err != nil {
			return err
		}
		found.IsActive = cmd.IsActive
		if err := unit.Catalog().Save(ctx, found); err != nil {
			return err
		}
		item = found
		return nil
	})
	if err != nil {
		logFailure(s.logger, "Failed to change catalog item status", err, zap.String("product_id", cmd.ID.String()))
		return nil, err
	}

	s.invalidate(ctx, item.ID)
	s.logger.Info("Catalog item status changed",
		zap.String("product_id", item.ID.String()),
		zap.Bool("is_active", item.IsActive),
	)
	return item, nil
}

// Delete removes a catalog item. Carts holding it keep their lines; releasing
// those lines later skips the missing product.
func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Delete")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("product.id", id.String()))

	if err := s.store.Catalog().Delete(ctx, id); err != nil {
		logFailure(s.logger, "Failed to delete catalog item", err, zap.String("product_id", id.String()))
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("Catalog item deleted", zap.String("product_id", id.String()))
	return nil
}

// invalidate drops cached copies of an item for changes that are not stock movements
func (s *CatalogService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.CatalogItemKey(id)); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", zap.String("product_id", id.String()), zap.Error(err))
	}
	if err := s.cache.DeleteByPattern(ctx, cache.CatalogListPattern); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
	}
}
