package handlers

import (
	"net/http"
	"testing"

	"storefront-service/internal/auth"
	"storefront-service/internal/commands"
	"storefront-service/internal/domain"
	"storefront-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func orderRouter(role string, svc OrderService) *gin.Engine {
	h := NewOrderHandler(svc, zap.NewNop())
	return setupTestRouter(role, func(r *gin.Engine) {
		r.POST("/orders", h.CreateOrder)
		r.GET("/orders", h.ListOrders)
		r.GET("/orders/user/history", h.OrderHistory)
		r.GET("/orders/:id", h.GetOrder)
		r.PATCH("/orders/:id/verify", h.VerifyOrder)
		r.PATCH("/orders/:id/cancel", h.CancelOrder)
	})
}

func TestOrderHandler_CreateOrder_Guest(t *testing.T) {
	svc := new(MockOrderService)
	router := orderRouter("", svc)
	order := sampleOrder(domain.OrderStatusPending)
	productID := order.Items[0].ProductID

	svc.On("CreateOrder", mock.Anything, commands.CreateOrderCommand{
		CustomerName:  "Guest Buyer",
		CustomerPhone: "3107778899",
		Items:         []commands.OrderItemInput{{ProductID: productID, Quantity: 2, SelectedColor: "black", SelectedSize: "M"}},
	}).Return(order, nil)

	w := doJSON(router, http.MethodPost, "/orders", map[string]interface{}{
		"customerName":  "Guest Buyer",
		"customerPhone": "3107778899",
		"items": []map[string]interface{}{
			{"productId": productID.String(), "quantity": 2, "selectedColor": "black", "selectedSize": "M"},
		},
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "guest", data["orderType"])
	assert.Equal(t, float64(400000), data["totalAmount"])
	assert.NotContains(t, data, "userId")
	assert.NotContains(t, data, "verifiedAt")
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "jacket", items[0].(map[string]interface{})["productName"])
	svc.AssertExpectations(t)
}

func TestOrderHandler_CreateOrder_SignedInPassesSession(t *testing.T) {
	svc := new(MockOrderService)
	router := orderRouter(auth.RoleCustomer, svc)
	order := sampleOrder(domain.OrderStatusPending)

	svc.On("CreateOrder", mock.Anything, mock.MatchedBy(func(cmd commands.CreateOrderCommand) bool {
		return cmd.Customer != nil && *cmd.Customer == testCustomer
	})).Return(order, nil)

	w := doJSON(router, http.MethodPost, "/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"productId": uuid.New().String(), "quantity": 1}},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestOrderHandler_CreateOrder_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		body       map[string]interface{}
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed product id",
			body:       map[string]interface{}{"items": []map[string]interface{}{{"productId": "x", "quantity": 1}}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "InvalidRequest",
		},
		{
			name:       "no items",
			body:       map[string]interface{}{"customerName": "a", "customerPhone": "1"},
			serviceErr: domain.ErrOrderItemsRequired,
			wantStatus: http.StatusBadRequest,
			wantCode:   "ValidationError",
		},
		{
			name:       "insufficient stock",
			body:       map[string]interface{}{"items": []map[string]interface{}{{"productId": uuid.New().String(), "quantity": 50}}},
			serviceErr: domain.NewInsufficientStock("jacket", 10),
			wantStatus: http.StatusBadRequest,
			wantCode:   "InsufficientStock",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockOrderService)
			if tc.serviceErr != nil {
				svc.On("CreateOrder", mock.Anything, mock.AnythingOfType("commands.CreateOrderCommand")).Return(nil, tc.serviceErr)
			}
			router := orderRouter("", svc)

			w := doJSON(router, http.MethodPost, "/orders", tc.body)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantCode, decode(t, w)["error"])
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_VerifyOrder(t *testing.T) {
	svc := new(MockOrderService)
	router := orderRouter(auth.RoleAdmin, svc)
	order := sampleOrder(domain.OrderStatusVerified)
	conflicted := uuid.New()

	svc.On("Verify", mock.Anything, commands.VerifyOrderCommand{OrderID: order.ID}).Return(order, nil)
	svc.On("Verify", mock.Anything, commands.VerifyOrderCommand{OrderID: conflicted}).
		Return(nil, domain.NewOrderStatusConflict(domain.OrderStatusVerified))

	w := doJSON(router, http.MethodPatch, "/orders/"+order.ID.String()+"/verify", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "verified", decode(t, w)["data"].(map[string]interface{})["status"])

	w = doJSON(router, http.MethodPatch, "/orders/"+conflicted.String()+"/verify", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Conflict", body["error"])
	assert.Equal(t, "order is already in status verified", body["message"])

	w = doJSON(router, http.MethodPatch, "/orders/nope/verify", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	svc := new(MockOrderService)
	router := orderRouter(auth.RoleAdmin, svc)
	order := sampleOrder(domain.OrderStatusCancelled)
	order.CancellationReason = "out of reach"

	svc.On("Cancel", mock.Anything, commands.CancelOrderCommand{OrderID: order.ID, Reason: "out of reach"}).Return(order, nil)
	svc.On("Cancel", mock.Anything, commands.CancelOrderCommand{OrderID: order.ID}).Return(nil, domain.ErrOrderAlreadyCancelled)

	w := doJSON(router, http.MethodPatch, "/orders/"+order.ID.String()+"/cancel", map[string]interface{}{"cancellationReason": "out of reach"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "out of reach", decode(t, w)["data"].(map[string]interface{})["cancellationReason"])

	// No body at all
	w = doJSON(router, http.MethodPatch, "/orders/"+order.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "order is already cancelled", decode(t, w)["message"])

	svc.AssertExpectations(t)
}

func TestOrderHandler_ListOrders(t *testing.T) {
	svc := new(MockOrderService)
	router := orderRouter(auth.RoleAdmin, svc)
	order := sampleOrder(domain.OrderStatusPending)

	svc.On("List", mock.Anything, domain.OrderStatusPending, domain.OrderTypeGuest, 2, 5).Return(&services.OrderPage{
		Orders:     []domain.Order{*order},
		Pagination: services.Pagination{Total: 6, Page: 2, Limit: 5, Pages: 2},
	}, nil)
	svc.On("List", mock.Anything, domain.OrderStatus("shipped"), domain.OrderType(""), 0, 0).
		Return(nil, domain.NewValidationError("invalid order status"))

	w := doJSON(router, http.MethodGet, "/orders?status=pending&orderType=guest&page=2&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["data"], 1)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(6), pagination["total"])
	assert.Equal(t, float64(2), pagination["page"])
	assert.Equal(t, float64(2), pagination["pages"])

	w = doJSON(router, http.MethodGet, "/orders?status=shipped&page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestOrderHandler_OrderHistory(t *testing.T) {
	svc := new(MockOrderService)
	router := orderRouter(auth.RoleCustomer, svc)

	svc.On("ListForCustomer", mock.Anything, testCustomer, domain.OrderStatus(""), 0, 0).Return(&services.OrderPage{
		Orders:     []domain.Order{},
		Pagination: services.Pagination{Page: 1, Limit: 10},
	}, nil)

	w := doJSON(router, http.MethodGet, "/orders/user/history", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["data"])
	svc.AssertExpectations(t)
}

func TestOrderHandler_GetOrder_NotFound(t *testing.T) {
	svc := new(MockOrderService)
	router := orderRouter(auth.RoleAdmin, svc)
	id := uuid.New()
	svc.On("GetByID", mock.Anything, id).Return(nil, domain.ErrOrderNotFound)

	w := doJSON(router, http.MethodGet, "/orders/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "order not found", decode(t, w)["message"])
}
