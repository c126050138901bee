package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGinMiddleware_LogsRouteAndCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Set("user_id", "customer-a")
		c.Set("role", "customer")
		c.Next()
	})
	router.DELETE("/cart/item/:itemId", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	traceID := trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})
	req := httptest.NewRequest(http.MethodDelete, "/cart/item/abc?x=1", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), spanCtx))
	router.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, "/cart/item/abc", fields["path"])
	assert.Equal(t, "/cart/item/:itemId", fields["route"])
	assert.Equal(t, "x=1", fields["query"])
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "customer-a", fields["user_id"])
	assert.Equal(t, "customer", fields["role"])
	assert.Equal(t, traceID.String(), fields["trace_id"])
}

func TestGinMiddleware_LevelsByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.NotContains(t, entries[0].ContextMap(), "user_id")
	assert.NotContains(t, entries[0].ContextMap(), "trace_id")
}

func TestNew_TagsService(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger := New(env)
		require.NotNil(t, logger)
		assert.Equal(t, env == "development", logger.Core().Enabled(zapcore.DebugLevel))
	}
}
