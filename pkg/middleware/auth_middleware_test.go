package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-service/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-key-min-32-chars-for-testing"

func setupAuthMiddlewareTestRouter(jwtManager *auth.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := zap.NewNop()

	whoami := func(c *gin.Context) {
		customer, ok := CurrentCustomer(c)
		c.JSON(http.StatusOK, gin.H{
			"authenticated": ok,
			"id":            customer.ID,
			"name":          customer.Name,
			"role":          CurrentRole(c),
		})
	}

	router.GET("/customer", CustomerAuth(jwtManager, logger), whoami)
	router.GET("/admin", AdminAuth(jwtManager, logger), whoami)
	router.GET("/optional", OptionalAuth(jwtManager, logger), whoami)
	return router
}

func issue(t *testing.T, jwtManager *auth.JWTManager, userID, role string) string {
	t.Helper()
	token, _, err := jwtManager.GenerateToken(userID, role, "Ana Gomez", "3001112233")
	require.NoError(t, err)
	return token
}

func call(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCustomerAuth_ValidToken(t *testing.T) {
	jwtManager := auth.NewJWTManager(testSecret, time.Hour, zap.NewNop())
	router := setupAuthMiddlewareTestRouter(jwtManager)

	w := call(router, "/customer", "Bearer "+issue(t, jwtManager, "customer-a", auth.RoleCustomer))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "customer-a", body["id"])
	assert.Equal(t, "Ana Gomez", body["name"])
	assert.Equal(t, auth.RoleCustomer, body["role"])
}

func TestCustomerAuth_Rejections(t *testing.T) {
	jwtManager := auth.NewJWTManager(testSecret, time.Hour, zap.NewNop())
	otherManager := auth.NewJWTManager("another-secret-key-min-32-chars-long!", time.Hour, zap.NewNop())
	router := setupAuthMiddlewareTestRouter(jwtManager)

	testCases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no Bearer prefix", "invalid-token"},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"foreign signature", "Bearer " + issue(t, otherManager, "customer-a", auth.RoleCustomer)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(router, "/customer", tc.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Unauthorized", body["error"])
		})
	}
}

func TestCustomerAuth_ExpiredToken(t *testing.T) {
	jwtManager := auth.NewJWTManager(testSecret, time.Millisecond, zap.NewNop())
	router := setupAuthMiddlewareTestRouter(jwtManager)
	token := issue(t, jwtManager, "customer-a", auth.RoleCustomer)
	time.Sleep(1100 * time.Millisecond)

	w := call(router, "/customer", "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")
}

func TestAdminAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager(testSecret, time.Hour, zap.NewNop())
	router := setupAuthMiddlewareTestRouter(jwtManager)

	w := call(router, "/admin", "Bearer "+issue(t, jwtManager, "customer-a", auth.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(router, "/admin", "Bearer "+issue(t, jwtManager, "admin-1", auth.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)

	// Admins may use customer routes
	w = call(router, "/customer", "Bearer "+issue(t, jwtManager, "admin-1", auth.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager(testSecret, time.Hour, zap.NewNop())
	router := setupAuthMiddlewareTestRouter(jwtManager)

	testCases := []struct {
		name          string
		header        string
		authenticated bool
	}{
		{"guest", "", false},
		{"invalid token is treated as guest", "Bearer nope", false},
		{"signed in", "Bearer " + issue(t, jwtManager, "customer-a", auth.RoleCustomer), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(router, "/optional", tc.header)
			require.Equal(t, http.StatusOK, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.authenticated, body["authenticated"])
		})
	}
}
