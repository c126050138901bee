package handlers

import (
	"context"
	"net/http"

	"storefront-service/internal/auth"
	"storefront-service/internal/commands"
	"storefront-service/internal/domain"
	"storefront-service/internal/services"
	"storefront-service/pkg/errors"
	"storefront-service/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService is the catalog surface the handler depends on
type CatalogService interface {
	Create(ctx context.Context, cmd commands.CreateCatalogItemCommand) (*domain.CatalogItem, error)
	GetByID(ctx context.Context, id uuid.UUID, includeHidden bool) (*domain.CatalogItem, error)
	List(ctx context.Context, category string, includeHidden bool, page, limit int) (*services.CatalogPage, error)
	AdjustStock(ctx context.Context, cmd commands.AdjustStockCommand) (*domain.CatalogItem, error)
	SetStatus(ctx context.Context, cmd commands.SetCatalogItemStatusCommand) (*domain.CatalogItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CatalogHandler struct {
	logger  *zap.Logger
	service CatalogService
}

func NewCatalogHandler(service CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{logger: logger, service: service}
}

// CreateItem handles POST /api/v1/catalogs
// @Summary      Create a catalog item
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Request-ID  header    string                    false  "Request ID for idempotency"
// @Param        request       body      CreateCatalogItemRequest  true   "Catalog item"
// @Success      201           {object}  CatalogItemEnvelope
// @Failure      400           {object}  errors.StandardError
// @Failure      403           {object}  errors.StandardError
// @Router       /catalogs [post]
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req CreateCatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid create catalog item request", zap.Error(err))
		c.Error(errors.NewValidationError("invalid request", "name, price"))
		return
	}

	images := make([]domain.ProductImage, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, domain.ProductImage{URL: img.URL, PublicID: img.PublicID, IsPrimary: img.IsPrimary})
	}

	item, err := h.service.Create(c.Request.Context(), commands.CreateCatalogItemCommand{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Colors:      req.Colors,
		Sizes:       req.Sizes,
		Stock:       req.Stock,
		Images:      images,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, CatalogItemEnvelope{Success: true, Data: toCatalogItemResponse(item)})
}

// GetItem handles GET /api/v1/catalogs/:id
// @Summary      Get a catalog item
// @Description  Hidden items are only returned to admins
// @Tags         catalog
// @Produce      json
// @Param        id   path      string  true  "Catalog item ID (UUID)"
// @Success      200  {object}  CatalogItemEnvelope
// @Failure      404  {object}  errors.StandardError
// @Router       /catalogs/{id} [get]
func (h *CatalogHandler) GetItem(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "catalog item id")
	if !ok {
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), id, middleware.CurrentRole(c) == auth.RoleAdmin)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, CatalogItemEnvelope{Success: true, Data: toCatalogItemResponse(item)})
}

// ListItems handles GET /api/v1/catalogs
// @Summary      List catalog items
// @Description  Active items only, unless an admin passes all=true
// @Tags         catalog
// @Produce      json
// @Param        category  query     string  false  "Category filter"
// @Param        all       query     bool    false  "Include hidden items (admin only)"
// @Param        page      query     int     false  "Page number"
// @Param        limit     query     int     false  "Page size (max 100)"
// @Success      200       {object}  CatalogListEnvelope
// @Router       /catalogs [get]
func (h *CatalogHandler) ListItems(c *gin.Context) {
	includeHidden := c.Query("all") == "true" && middleware.CurrentRole(c) == auth.RoleAdmin
	page, limit := pageParams(c)

	result, err := h.service.List(c.Request.Context(), c.Query("category"), includeHidden, page, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toCatalogList(result))
}

// AdjustStock handles POST /api/v1/catalogs/:id/adjust
// @Summary      Restock or write off units
// @Description  Positive delta adds stock, negative removes it. Stock cannot go below zero.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string              true  "Catalog item ID (UUID)"
// @Param        request  body      AdjustStockRequest  true  "Stock delta"
// @Success      200      {object}  CatalogItemEnvelope
// @Failure      400      {object}  errors.StandardError
// @Failure      404      {object}  errors.StandardError
// @Failure      423      {object}  errors.StandardError
// @Router       /catalogs/{id}/adjust [post]
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "catalog item id")
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("invalid request", "delta"))
		return
	}

	item, err := h.service.AdjustStock(c.Request.Context(), commands.AdjustStockCommand{ID: id, Delta: req.Delta, Reason: req.Reason})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, CatalogItemEnvelope{Success: true, Data: toCatalogItemResponse(item)})
}

// SetStatus handles PATCH /api/v1/catalogs/:id/status
// @Summary      Show or hide a catalog item
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Catalog item ID (UUID)"
// @Param        request  body      SetCatalogStatusRequest  true  "New status"
// @Success      200      {object}  CatalogItemEnvelope
// @Failure      400      {object}  errors.StandardError
// @Failure      404      {object}  errors.StandardError
// @Router       /catalogs/{id}/status [patch]
func (h *CatalogHandler) SetStatus(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "catalog item id")
	if !ok {
		return
	}

	var req SetCatalogStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("invalid request", "isActive"))
		return
	}

	item, err := h.service.SetStatus(c.Request.Context(), commands.SetCatalogItemStatusCommand{ID: id, IsActive: *req.IsActive})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, CatalogItemEnvelope{Success: true, Data: toCatalogItemResponse(item)})
}

// DeleteItem handles DELETE /api/v1/catalogs/:id
// @Summary      Delete a catalog item
// @Description  Cart lines holding the item stay until removed; their stock is not returned.
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Catalog item ID (UUID)"
// @Success      200  {object}  SuccessResponse
// @Failure      404  {object}  errors.StandardError
// @Router       /catalogs/{id} [delete]
func (h *CatalogHandler) DeleteItem(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "catalog item id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "catalog item deleted"})
}
