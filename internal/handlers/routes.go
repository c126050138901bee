package handlers

import (
	"storefront-service/internal/auth"
	"storefront-service/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Router holds what the API routes need
type Router struct {
	Carts       *CartHandler
	Orders      *OrderHandler
	Catalog     *CatalogHandler
	JWT         *auth.JWTManager
	Idempotency gin.HandlerFunc
	Logger      *zap.Logger
}

// Register mounts the cart, order and catalog routes on v1.
// Idempotency runs after authentication so replays are scoped to the caller.
func (r Router) Register(v1 *gin.RouterGroup) {
	customer := middleware.CustomerAuth(r.JWT, r.Logger)
	admin := middleware.AdminAuth(r.JWT, r.Logger)
	optional := middleware.OptionalAuth(r.JWT, r.Logger)
	idempotent := r.Idempotency
	if idempotent == nil {
		idempotent = func(c *gin.Context) { c.Next() }
	}

	cart := v1.Group("/cart", customer, idempotent)
	{
		cart.GET("", r.Carts.GetCart)
		cart.POST("/add", r.Carts.AddItem)
		cart.PUT("/update", r.Carts.UpdateItem)
		cart.DELETE("/item/:itemId", r.Carts.RemoveItem)
		cart.DELETE("/clear", r.Carts.ClearCart)
	}

	orders := v1.Group("/orders")
	{
		orders.POST("", optional, idempotent, r.Orders.CreateOrder)
		orders.GET("/user/history", customer, r.Orders.OrderHistory)
		orders.GET("", admin, r.Orders.ListOrders)
		orders.GET("/:id", admin, r.Orders.GetOrder)
		orders.PATCH("/:id/verify", admin, idempotent, r.Orders.VerifyOrder)
		orders.PATCH("/:id/cancel", admin, idempotent, r.Orders.CancelOrder)
	}

	catalogs := v1.Group("/catalogs")
	{
		catalogs.GET("", optional, r.Catalog.ListItems)
		catalogs.GET("/:id", optional, r.Catalog.GetItem)
		catalogs.POST("", admin, idempotent, r.Catalog.CreateItem)
		catalogs.POST("/:id/adjust", admin, idempotent, r.Catalog.AdjustStock)
		catalogs.PATCH("/:id/status", admin, idempotent, r.Catalog.SetStatus)
		catalogs.DELETE("/:id", admin, r.Catalog.DeleteItem)
	}
}
