package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-service/internal/commands"
	"storefront-service/internal/domain"
	"storefront-service/internal/services"
	"storefront-service/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockCartService is a mock implementation of CartService
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) GetCart(ctx context.Context, customer domain.Customer) (*services.CartView, error) {
	args := m.Called(ctx, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CartView), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, cmd commands.AddCartItemCommand) (*services.CartView, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CartView), args.Error(1)
}

func (m *MockCartService) UpdateItem(ctx context.Context, cmd commands.UpdateCartItemCommand) (*services.CartView, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CartView), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, cmd commands.RemoveCartItemCommand) (*services.CartView, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CartView), args.Error(1)
}

func (m *MockCartService) ClearCart(ctx context.Context, cmd commands.ClearCartCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

// MockOrderService is a mock implementation of OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, cmd commands.CreateOrderCommand) (*domain.Order, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) Verify(ctx context.Context, cmd commands.VerifyOrderCommand) (*domain.Order, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, cmd commands.CancelOrderCommand) (*domain.Order, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, status domain.OrderStatus, orderType domain.OrderType, page, limit int) (*services.OrderPage, error) {
	args := m.Called(ctx, status, orderType, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.OrderPage), args.Error(1)
}

func (m *MockOrderService) ListForCustomer(ctx context.Context, customer domain.Customer, status domain.OrderStatus, page, limit int) (*services.OrderPage, error) {
	args := m.Called(ctx, customer, status, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.OrderPage), args.Error(1)
}

// MockCatalogService is a mock implementation of CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Create(ctx context.Context, cmd commands.CreateCatalogItemCommand) (*domain.CatalogItem, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CatalogItem), args.Error(1)
}

func (m *MockCatalogService) GetByID(ctx context.Context, id uuid.UUID, includeHidden bool) (*domain.CatalogItem, error) {
	args := m.Called(ctx, id, includeHidden)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CatalogItem), args.Error(1)
}

func (m *MockCatalogService) List(ctx context.Context, category string, includeHidden bool, page, limit int) (*services.CatalogPage, error) {
	args := m.Called(ctx, category, includeHidden, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CatalogPage), args.Error(1)
}

func (m *MockCatalogService) AdjustStock(ctx context.Context, cmd commands.AdjustStockCommand) (*domain.CatalogItem, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CatalogItem), args.Error(1)
}

func (m *MockCatalogService) SetStatus(ctx context.Context, cmd commands.SetCatalogItemStatusCommand) (*domain.CatalogItem, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CatalogItem), args.Error(1)
}

func (m *MockCatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var testCustomer = domain.Customer{ID: "customer-a", Name: "Ana Gomez", Phone: "3001112233"}

// asCaller stands in for the auth middlewares. An empty role leaves the request anonymous.
func asCaller(role string, customer domain.Customer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role != "" {
			c.Set(middleware.UserIDContextKey, customer.ID)
			c.Set(middleware.RoleContextKey, role)
			c.Set(middleware.CustomerContextKey, customer)
		}
		c.Next()
	}
}

func setupTestRouter(role string, register func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zap.NewNop()), asCaller(role, testCustomer))
	register(router)
	return router
}

func doJSON(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sampleOrder(status domain.OrderStatus) *domain.Order {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	productID := uuid.New()
	return &domain.Order{
		ID:            uuid.New(),
		CustomerName:  "Guest Buyer",
		CustomerPhone: "3107778899",
		OrderType:     domain.OrderTypeGuest,
		Items: []domain.OrderLineItem{{
			ProductID:   productID,
			ProductName: "jacket",
			UnitPrice:   decimal.NewFromInt(200000),
			Image:       &domain.ImageRef{URL: "https://cdn.example.com/jacket.jpg", PublicID: "jacket"},
			Quantity:    2,
			Subtotal:    decimal.NewFromInt(400000),
		}},
		TotalAmount: decimal.NewFromInt(400000),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func sampleCatalogItem() *domain.CatalogItem {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return &domain.CatalogItem{
		ID:        uuid.New(),
		Name:      "jacket",
		Price:     decimal.NewFromInt(200000),
		Category:  "jackets",
		Colors:    []string{"black"},
		Sizes:     []string{"M"},
		Stock:     10,
		IsActive:  true,
		Images:    []domain.ProductImage{{URL: "https://cdn.example.com/jacket.jpg", PublicID: "jacket", IsPrimary: true}},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}
