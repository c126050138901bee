package handlers

import (
	"context"
	"net/http"
	"strconv"

	"storefront-service/internal/commands"
	"storefront-service/internal/domain"
	"storefront-service/internal/services"
	"storefront-service/pkg/errors"
	"storefront-service/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService is the order surface the handler depends on
type OrderService interface {
	CreateOrder(ctx context.Context, cmd commands.CreateOrderCommand) (*domain.Order, error)
	Verify(ctx context.Context, cmd commands.VerifyOrderCommand) (*domain.Order, error)
	Cancel(ctx context.Context, cmd commands.CancelOrderCommand) (*domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, status domain.OrderStatus, orderType domain.OrderType, page, limit int) (*services.OrderPage, error)
	ListForCustomer(ctx context.Context, customer domain.Customer, status domain.OrderStatus, page, limit int) (*services.OrderPage, error)
}

type OrderHandler struct {
	logger  *zap.Logger
	service OrderService
}

func NewOrderHandler(service OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{logger: logger, service: service}
}

// CreateOrder handles POST /api/v1/orders
// @Summary      Place an order
// @Description  Creates a pending order from a snapshot of the requested products. Stock is checked, not reserved.
// @Description  Signed-in callers get a registered order with name and phone taken from the session; anyone else places a guest order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Request-ID  header    string              false  "Request ID for idempotency"
// @Param        request       body      CreateOrderRequest  true   "Order items and contact"
// @Success      201           {object}  OrderEnvelope
// @Failure      400           {object}  errors.StandardError  "Validation error, inactive product or insufficient stock"
// @Failure      404           {object}  errors.StandardError  "Product not found"
// @Failure      500           {object}  errors.StandardError
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid create order request", zap.Error(err))
		c.Error(errors.NewValidationError("invalid request", "items"))
		return
	}

	items := make([]commands.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, ok := parseUUID(c, item.ProductID, "productId")
		if !ok {
			return
		}
		items = append(items, commands.OrderItemInput{
			ProductID:     productID,
			Quantity:      item.Quantity,
			SelectedColor: item.SelectedColor,
			SelectedSize:  item.SelectedSize,
		})
	}

	cmd := commands.CreateOrderCommand{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Items:         items,
	}
	if customer, ok := middleware.CurrentCustomer(c); ok {
		cmd.Customer = &customer
	}

	order, err := h.service.CreateOrder(c.Request.Context(), cmd)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, OrderEnvelope{Success: true, Data: toOrderResponse(order)})
}

// VerifyOrder handles PATCH /api/v1/orders/:id/verify
// @Summary      Verify an order
// @Description  Commits stock for every line of a pending order. Either all lines have enough stock or nothing changes.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID (UUID)"
// @Success      200  {object}  OrderEnvelope
// @Failure      400  {object}  errors.StandardError  "Order not pending or insufficient stock"
// @Failure      403  {object}  errors.StandardError
// @Failure      404  {object}  errors.StandardError
// @Failure      423  {object}  errors.StandardError
// @Router       /orders/{id}/verify [patch]
func (h *OrderHandler) VerifyOrder(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "order id")
	if !ok {
		return
	}

	order, err := h.service.Verify(c.Request.Context(), commands.VerifyOrderCommand{OrderID: id})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, OrderEnvelope{Success: true, Data: toOrderResponse(order)})
}

// CancelOrder handles PATCH /api/v1/orders/:id/cancel
// @Summary      Cancel an order
// @Description  Cancels a pending or verified order. Stock is restored only for verified orders.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string              true   "Order ID (UUID)"
// @Param        request  body      CancelOrderRequest  false  "Cancellation reason"
// @Success      200      {object}  OrderEnvelope
// @Failure      400      {object}  errors.StandardError  "Order already cancelled or completed"
// @Failure      403      {object}  errors.StandardError
// @Failure      404      {object}  errors.StandardError
// @Router       /orders/{id}/cancel [patch]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "order id")
	if !ok {
		return
	}

	// The body is optional
	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewValidationError("invalid request", "cancellationReason"))
			return
		}
	}

	order, err := h.service.Cancel(c.Request.Context(), commands.CancelOrderCommand{OrderID: id, Reason: req.CancellationReason})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, OrderEnvelope{Success: true, Data: toOrderResponse(order)})
}

// GetOrder handles GET /api/v1/orders/:id
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID (UUID)"
// @Success      200  {object}  OrderEnvelope
// @Failure      404  {object}  errors.StandardError
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "order id")
	if !ok {
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, OrderEnvelope{Success: true, Data: toOrderResponse(order)})
}

// ListOrders handles GET /api/v1/orders
// @Summary      List orders
// @Description  Newest first. Defaults: page 1, limit 20.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "pending, verified, cancelled or completed"
// @Param        orderType  query     string  false  "registered or guest"
// @Param        page       query     int     false  "Page number"
// @Param        limit      query     int     false  "Page size (max 100)"
// @Success      200        {object}  OrderListEnvelope
// @Failure      400        {object}  errors.StandardError
// @Failure      403        {object}  errors.StandardError
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.service.List(c.Request.Context(),
		domain.OrderStatus(c.Query("status")),
		domain.OrderType(c.Query("orderType")),
		page, limit,
	)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toOrderList(result))
}

// OrderHistory handles GET /api/v1/orders/user/history
// @Summary      The caller's order history
// @Description  Newest first. Defaults: page 1, limit 10.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Order status filter"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  OrderListEnvelope
// @Failure      401     {object}  errors.StandardError
// @Router       /orders/user/history [get]
func (h *OrderHandler) OrderHistory(c *gin.Context) {
	customer, ok := requireCustomer(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	result, err := h.service.ListForCustomer(c.Request.Context(), customer, domain.OrderStatus(c.Query("status")), page, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toOrderList(result))
}

// pageParams reads page and limit; missing or malformed values fall back to the service defaults
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return page, limit
}
