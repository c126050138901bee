package services

import (
	"context"
	"path/filepath"
	"testing"

	"storefront-service/internal/cache"
	"storefront-service/internal/commands"
	"storefront-service/internal/config"
	"storefront-service/internal/database"
	"storefront-service/internal/domain"
	"storefront-service/internal/events"
	"storefront-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

var (
	customerA = domain.Customer{ID: "customer-a", Name: "Ana Gomez", Phone: "3001112233"}
	customerB = domain.Customer{ID: "customer-b", Name: "Luis Perez", Phone: "3004445566"}
)

type testEnv struct {
	db        *database.DB
	cache     *cache.InMemoryCache
	publisher *events.InMemoryEventPublisher
	spans     *tracetest.SpanRecorder
	carts     *CartService
	orders    *OrderService
	catalog   *CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		SQLitePath:         filepath.Join(t.TempDir(), "storefront_test.db"),
		SQLiteMaxOpenConns: 4,
		SQLiteBusyTimeout:  5000,
	}
	db, err := database.NewDB(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return newTestEnvWithStore(t, db, db)
}

// newTestEnvWithStore builds the services over store, which may wrap db
func newTestEnvWithStore(t *testing.T, db *database.DB, store repository.UnitOfWork) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := tp.Tracer("storefront-test")

	memCache := cache.NewInMemoryCache(logger)
	memPublisher := events.NewEventPublisher(logger)
	publisher := events.NewMultiPublisher(memPublisher, cache.NewInvalidator(memCache, logger))
	policy := domain.NewDecrementOnReserve()

	return &testEnv{
		db:        db,
		cache:     memCache,
		publisher: memPublisher,
		spans:     spans,
		carts:     NewCartService(store, policy, publisher, tracer, logger),
		orders:    NewOrderService(store, policy, publisher, tracer, logger),
		catalog:   NewCatalogService(store, memCache, cache.TTL(300), publisher, tracer, logger),
	}
}

func (e *testEnv) seedProduct(t *testing.T, name string, price int64, stock int) *domain.CatalogItem {
	t.Helper()
	item, err := e.catalog.Create(context.Background(), commands.CreateCatalogItemCommand{
		Name:     name,
		Category: "tops",
		Price:    decimal.NewFromInt(price),
		Colors:   []string{"black", "white"},
		Sizes:    []string{"S", "M", "L"},
		Stock:    stock,
		Images: []domain.ProductImage{
			{URL: "https://cdn.example.com/" + name + "-back.jpg", PublicID: name + "-back"},
			{URL: "https://cdn.example.com/" + name + ".jpg", PublicID: name, IsPrimary: true},
		},
	})
	require.NoError(t, err)
	return item
}

// seedCorruptProduct stores an item whose price fails validation
func (e *testEnv) seedCorruptProduct(t *testing.T, stock int) *domain.CatalogItem {
	t.Helper()
	item, err := domain.NewCatalogItem("broken", "", "tops", decimal.NewFromInt(1), []string{"black"}, []string{"M"}, stock, nil)
	require.NoError(t, err)
	item.Price = decimal.Zero
	require.NoError(t, e.db.Catalog().Create(context.Background(), item))
	return item
}

func (e *testEnv) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	item, err := e.db.Catalog().FindByID(context.Background(), id)
	require.NoError(t, err)
	return item.Stock
}

// heldInCarts sums the quantity of productID across the given customers' carts
func (e *testEnv) heldInCarts(t *testing.T, productID uuid.UUID, customers ...domain.Customer) int {
	t.Helper()
	held := 0
	for _, customer := range customers {
		view, err := e.carts.GetCart(context.Background(), customer)
		require.NoError(t, err)
		for _, line := range view.Items {
			if line.ProductID == productID {
				held += line.Quantity
			}
		}
	}
	return held
}

func (e *testEnv) addToCart(t *testing.T, customer domain.Customer, productID uuid.UUID, quantity int) *CartView {
	t.Helper()
	view, err := e.carts.AddItem(context.Background(), commands.AddCartItemCommand{
		Customer:  customer,
		ProductID: productID,
		Quantity:  quantity,
	})
	require.NoError(t, err)
	return view
}

func (e *testEnv) eventsOfType(eventType string) []interface{} {
	matched := make([]interface{}, 0)
	for _, event := range e.publisher.Events() {
		if events.EventType(event) == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

// faultyStore wraps a unit of work and makes selected writes fail inside units
type faultyStore struct {
	repository.UnitOfWork
	catalogSaveErr error
	cartSaveErr    error
	orderSaveErr   error
}

func (f *faultyStore) WithinUnit(ctx context.Context, fn func(ctx context.Context, unit repository.Unit) error) error {
	return f.UnitOfWork.WithinUnit(ctx, func(ctx context.Context, unit repository.Unit) error {
		return fn(ctx, faultyUnit{Unit: unit, store: f})
	})
}

type faultyUnit struct {
	repository.Unit
	store *faultyStore
}

func (u faultyUnit) Catalog() repository.CatalogRepository {
	return faultyCatalog{CatalogRepository: u.Unit.Catalog(), err: u.store.catalogSaveErr}
}

func (u faultyUnit) Carts() repository.CartRepository {
	return faultyCarts{CartRepository: u.Unit.Carts(), err: u.store.cartSaveErr}
}

func (u faultyUnit) Orders() repository.OrderRepository {
	return faultyOrders{OrderRepository: u.Unit.Orders(), err: u.store.orderSaveErr}
}

type faultyCatalog struct {
	repository.CatalogRepository
	err error
}

func (c faultyCatalog) Save(ctx context.Context, item *domain.CatalogItem) error {
	if c.err != nil {
		return c.err
	}
	return c.CatalogRepository.Save(ctx, item)
}

type faultyCarts struct {
	repository.CartRepository
	err error
}

func (c faultyCarts) Create(ctx context.Context, cart *domain.Cart) error {
	if c.err != nil {
		return c.err
	}
	return c.CartRepository.Create(ctx, cart)
}

func (c faultyCarts) Save(ctx context.Context, cart *domain.Cart) error {
	if c.err != nil {
		return c.err
	}
	return c.CartRepository.Save(ctx, cart)
}

type faultyOrders struct {
	repository.OrderRepository
	err error
}

func (o faultyOrders) Save(ctx context.Context, order *domain.Order) error {
	if o.err != nil {
		return o.err
	}
	return o.OrderRepository.Save(ctx, order)
}

func (e *testEnv) cached(key string) bool {
	_, err := e.cache.Get(context.Background(), key)
	return err == nil
}

// racingStore runs onRead once, right after the next catalog read outside a unit
type racingStore struct {
	repository.UnitOfWork
	onRead func()
}

func (r *racingStore) Catalog() repository.CatalogRepository {
	return racingCatalog{CatalogRepository: r.UnitOfWork.Catalog(), store: r}
}

type racingCatalog struct {
	repository.CatalogRepository
	store *racingStore
}

func (c racingCatalog) FindByID(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	item, err := c.CatalogRepository.FindByID(ctx, id)
	if hook := c.store.onRead; hook != nil {
		c.store.onRead = nil
		hook()
	}
	return item, err
}
