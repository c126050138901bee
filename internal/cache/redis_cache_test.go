package cache

import (
	"context"
	"testing"
	"time"

	"storefront-service/internal/config"
	"storefront-service/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewCache_DisabledUsesInMemory(t *testing.T) {
	c := NewCache(&config.Config{UseCache: false}, zap.NewNop())
	_, ok := c.(*InMemoryCache)
	assert.True(t, ok)
}

func TestInMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(zap.NewNop())

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))
	val, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), val)

	assert.True(t, has(c, "key"))

	require.NoError(t, c.Delete(ctx, "key"))
	assert.False(t, has(c, "key"))
}

func TestInMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(zap.NewNop())

	require.NoError(t, c.Set(ctx, "short", []byte("v"), -time.Second))
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestInMemoryCache_SetNX(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(zap.NewNop())

	ok, err := c.SetNX(ctx, "lock", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	val, _ := c.Get(ctx, "lock")
	assert.Equal(t, []byte("1"), val)
}

func TestInMemoryCache_DeleteByPattern(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(zap.NewNop())

	_ = c.Set(ctx, "catalog:list::1:20", []byte("a"), time.Minute)
	_ = c.Set(ctx, "catalog:list:shirts:1:20", []byte("b"), time.Minute)
	_ = c.Set(ctx, "catalog:item:x", []byte("c"), time.Minute)

	require.NoError(t, c.DeleteByPattern(ctx, "catalog:list:*"))

	assert.False(t, has(c, "catalog:list::1:20"))
	assert.False(t, has(c, "catalog:list:shirts:1:20"))
	assert.True(t, has(c, "catalog:item:x"))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(zap.NewNop())

	type payload struct {
		Name  string `json:"name"`
		Stock int    `json:"stock"`
	}

	require.NoError(t, SetJSON(ctx, c, "p", payload{Name: "Shirt", Stock: 3}, TTL(60)))

	var out payload
	require.NoError(t, GetJSON(ctx, c, "p", &out))
	assert.Equal(t, payload{Name: "Shirt", Stock: 3}, out)
	assert.Equal(t, time.Minute, TTL(60))
}

func TestInvalidator_StockEventsDropCatalogEntries(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(zap.NewNop())
	inv := NewInvalidator(c, zap.NewNop())
	productID := uuid.New()

	_ = c.Set(ctx, CatalogItemKey(productID), []byte("cached"), time.Minute)
	_ = c.Set(ctx, CatalogListKey("", 1, 20), []byte("page"), time.Minute)

	require.NoError(t, inv.Publish(ctx, events.StockReservedEvent{ProductID: productID, Quantity: 1}))

	assert.False(t, has(c, CatalogItemKey(productID)))
	assert.False(t, has(c, CatalogListKey("", 1, 20)))
}

func TestInvalidator_IgnoresOrderEvents(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(zap.NewNop())
	inv := NewInvalidator(c, zap.NewNop())

	_ = c.Set(ctx, CatalogListKey("", 1, 20), []byte("page"), time.Minute)
	require.NoError(t, inv.Publish(ctx, events.OrderCreatedEvent{OrderID: uuid.New()}))

	assert.True(t, has(c, CatalogListKey("", 1, 20)))
}

func has(c Cache, key string) bool {
	_, err := c.Get(context.Background(), key)
	return err == nil
}
