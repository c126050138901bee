package handlers

import (
	"context"
	"net/http"

	"storefront-service/internal/commands"
	"storefront-service/internal/domain"
	"storefront-service/internal/services"
	"storefront-service/pkg/errors"
	"storefront-service/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService is the cart surface the handler depends on
type CartService interface {
	GetCart(ctx context.Context, customer domain.Customer) (*services.CartView, error)
	AddItem(ctx context.Context, cmd commands.AddCartItemCommand) (*services.CartView, error)
	UpdateItem(ctx context.Context, cmd commands.UpdateCartItemCommand) (*services.CartView, error)
	RemoveItem(ctx context.Context, cmd commands.RemoveCartItemCommand) (*services.CartView, error)
	ClearCart(ctx context.Context, cmd commands.ClearCartCommand) error
}

type CartHandler struct {
	logger  *zap.Logger
	service CartService
}

func NewCartHandler(service CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{logger: logger, service: service}
}

// GetCart handles GET /api/v1/cart
// @Summary      Get the caller's cart
// @Description  Returns the active cart with each line's current product data. A customer without a cart gets an empty one.
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  CartEnvelope
// @Failure      401  {object}  errors.StandardError
// @Router       /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	customer, ok := requireCustomer(c)
	if !ok {
		return
	}

	view, err := h.service.GetCart(c.Request.Context(), customer)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, CartEnvelope{Success: true, Cart: toCartResponse(view)})
}

// AddItem handles POST /api/v1/cart/add
// @Summary      Add a product to the cart
// @Description  Reserves quantity units of the product (1 when omitted). Adding a product already in the cart increases that line.
// @Description  **Idempotency**: send X-Request-ID to have retries return the first response (valid for 5 minutes).
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Request-ID  header    string            false  "Request ID for idempotency"
// @Param        request       body      AddToCartRequest  true   "Product and quantity"
// @Success      200           {object}  CartEnvelope
// @Failure      400           {object}  errors.StandardError  "Validation error, inactive product or insufficient stock"
// @Failure      401           {object}  errors.StandardError
// @Failure      404           {object}  errors.StandardError  "Product not found"
// @Failure      423           {object}  errors.StandardError  "Concurrent update, retry"
// @Failure      500           {object}  errors.StandardError
// @Router       /cart/add [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	customer, ok := requireCustomer(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid add to cart request", zap.Error(err))
		c.Error(errors.NewValidationError("invalid request", "productId"))
		return
	}
	productID, ok := parseUUID(c, req.ProductID, "productId")
	if !ok {
		return
	}

	view, err := h.service.AddItem(c.Request.Context(), commands.AddCartItemCommand{
		Customer:      customer,
		ProductID:     productID,
		Quantity:      req.quantityOrDefault(),
		SelectedColor: req.SelectedColor,
		SelectedSize:  req.SelectedSize,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, CartEnvelope{Success: true, Cart: toCartResponse(view)})
}

// UpdateItem handles PUT /api/v1/cart/update
// @Summary      Change a cart line quantity
// @Description  Increases reserve only the difference; decreases release it. Quantity 0 removes the line.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Request-ID  header    string                 false  "Request ID for idempotency"
// @Param        request       body      UpdateCartItemRequest  true   "Line and new quantity"
// @Success      200           {object}  CartEnvelope
// @Failure      400           {object}  errors.StandardError
// @Failure      401           {object}  errors.StandardError
// @Failure      404           {object}  errors.StandardError  "Cart, line or product not found"
// @Failure      423           {object}  errors.StandardError
// @Router       /cart/update [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	customer, ok := requireCustomer(c)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid cart update request", zap.Error(err))
		c.Error(errors.NewValidationError("invalid request", "itemId, quantity"))
		return
	}
	itemID, ok := parseUUID(c, req.ItemID, "itemId")
	if !ok {
		return
	}

	view, err := h.service.UpdateItem(c.Request.Context(), commands.UpdateCartItemCommand{
		Customer: customer,
		ItemID:   itemID,
		Quantity: *req.Quantity,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, CartEnvelope{Success: true, Cart: toCartResponse(view)})
}

// RemoveItem handles DELETE /api/v1/cart/item/:itemId
// @Summary      Remove a cart line
// @Description  Removes the line and returns its full quantity to stock
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        itemId  path      string  true  "Cart line ID (UUID)"
// @Success      200     {object}  CartEnvelope
// @Failure      400     {object}  errors.StandardError
// @Failure      401     {object}  errors.StandardError
// @Failure      404     {object}  errors.StandardError
// @Router       /cart/item/{itemId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	customer, ok := requireCustomer(c)
	if !ok {
		return
	}
	itemID, ok := parseUUID(c, c.Param("itemId"), "itemId")
	if !ok {
		return
	}

	view, err := h.service.RemoveItem(c.Request.Context(), commands.RemoveCartItemCommand{
		Customer: customer,
		ItemID:   itemID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, CartEnvelope{Success: true, Cart: toCartResponse(view)})
}

// ClearCart handles DELETE /api/v1/cart/clear
// @Summary      Empty the cart
// @Description  Releases every line's stock. Succeeds when there is no cart.
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SuccessResponse
// @Failure      401  {object}  errors.StandardError
// @Router       /cart/clear [delete]
func (h *CartHandler) ClearCart(c *gin.Context) {
	customer, ok := requireCustomer(c)
	if !ok {
		return
	}

	if err := h.service.ClearCart(c.Request.Context(), commands.ClearCartCommand{Customer: customer}); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "cart cleared"})
}

// requireCustomer returns the signed-in caller. Routes using it sit behind CustomerAuth.
func requireCustomer(c *gin.Context) (domain.Customer, bool) {
	customer, ok := middleware.CurrentCustomer(c)
	if !ok || customer.ID == "" {
		c.Error(errors.NewUnauthorized("authentication required", "Header: Authorization"))
		return domain.Customer{}, false
	}
	return customer, true
}

func parseUUID(c *gin.Context, raw, field string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.Error(errors.NewInvalidRequest("invalid "+field, "Expected a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
