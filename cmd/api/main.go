package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/internal/auth"
	"storefront-service/internal/cache"
	"storefront-service/internal/config"
	"storefront-service/internal/database"
	"storefront-service/internal/domain"
	"storefront-service/internal/events"
	"storefront-service/internal/handlers"
	"storefront-service/internal/observability"
	"storefront-service/internal/services"
	"storefront-service/pkg/logger"
	"storefront-service/pkg/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	_ "storefront-service/docs" // Import docs for Swagger
)

// @title           Storefront Service API
// @version         1.0
// @description     Carts, orders and stock reservation for the storefront catalog

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	appLogger := logger.New(cfg.Environment)
	defer appLogger.Sync()

	appLogger.Info("🚀 Starting Storefront Service",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	ctx := context.Background()

	_, shutdownTracing, err := observability.SetupTracingSDK(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to set up tracing", zap.Error(err))
	}
	if cfg.OtelEndpoint != "" {
		appLogger.Info("📡 Tracing enabled",
			zap.String("endpoint", cfg.OtelEndpoint),
			zap.String("path", cfg.OtelURLPath),
		)
	}

	appLogger.Info("🔧 Opening SQLite store...", zap.String("path", cfg.SQLitePath))
	db, err := database.NewDB(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open database", zap.Error(err))
	}
	appLogger.Info("✅ SQLite store ready")

	appCache := cache.NewCache(cfg, appLogger)

	publishers := []events.EventPublisher{
		events.NewEventPublisher(appLogger),
		cache.NewInvalidator(appCache, appLogger),
	}

	var kafkaPublisher *events.KafkaEventPublisher
	if cfg.UseKafka {
		appLogger.Info("📡 Kafka Configuration",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic_stock", cfg.KafkaTopicStock),
			zap.String("topic_orders", cfg.KafkaTopicOrders),
			zap.String("client_id", cfg.KafkaClientID),
			zap.String("acks", cfg.KafkaAcks),
			zap.Int("retries", cfg.KafkaRetries),
		)
		kafkaPublisher, err = events.NewKafkaEventPublisher(cfg, appLogger)
		if err != nil {
			appLogger.Warn("Kafka unavailable, domain events stay in process", zap.Error(err))
		} else {
			publishers = append(publishers, kafkaPublisher)
		}
	}

	var channelPool *events.ChannelPool
	if cfg.UseRabbitMQ {
		channelPool, err = events.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.RabbitMQChannelPoolSize, appLogger)
		if err != nil {
			appLogger.Warn("RabbitMQ unavailable, order notifications disabled", zap.Error(err))
		} else {
			publishers = append(publishers, events.NewRabbitMQPublisher(channelPool, cfg.RabbitMQQueue, appLogger))
		}
	}

	publisher := events.NewMultiPublisher(publishers...)
	tracer := observability.NewTracer()
	policy := domain.NewDecrementOnReserve()

	cartService := services.NewCartService(db, policy, publisher, tracer, appLogger)
	orderService := services.NewOrderService(db, policy, publisher, tracer, appLogger)
	catalogService := services.NewCatalogService(db, appCache, time.Duration(cfg.CacheTTL)*time.Second, publisher, tracer, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute, appLogger)

	var requestIDStore middleware.RequestIDStore
	if cfg.UseCache {
		requestIDStore = middleware.NewCacheRequestIDStore(appCache)
	} else {
		memoryStore := middleware.NewInMemoryRequestIDStore()
		defer memoryStore.Close()
		requestIDStore = memoryStore
	}
	idempotencyTTL := time.Duration(cfg.IdempotencyTTLSeconds) * time.Second

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// CORS middleware (must be first to handle preflight requests)
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(logger.GinMiddleware(appLogger))
	router.Use(middleware.RequestIDMiddleware(appLogger))
	router.Use(middleware.ErrorHandler(appLogger))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	v1.GET("/health", healthCheck(db))

	if !cfg.IsProduction() {
		authHandler := auth.NewAuthHandler(jwtManager, appLogger)
		v1.POST("/auth/token", authHandler.IssueToken)
	}

	handlers.Router{
		Carts:       handlers.NewCartHandler(cartService, appLogger),
		Orders:      handlers.NewOrderHandler(orderService, appLogger),
		Catalog:     handlers.NewCatalogHandler(catalogService, appLogger),
		JWT:         jwtManager,
		Idempotency: middleware.IdempotencyMiddleware(requestIDStore, appLogger, idempotencyTTL),
		Logger:      appLogger,
	}.Register(v1)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(router, "storefront-http",
			otelhttp.WithTracerProvider(otel.GetTracerProvider()),
		),
	}

	go func() {
		appLogger.Info("Starting storefront service",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			appLogger.Warn("Failed to close Kafka producer", zap.Error(err))
		}
	}
	if channelPool != nil {
		channelPool.Close()
	}
	if err := db.Close(); err != nil {
		appLogger.Warn("Failed to close database", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Warn("Failed to flush traces", zap.Error(err))
	}

	appLogger.Info("Server exited")
}

// healthCheck godoc
// @Summary      Health check endpoint
// @Description  Reports whether the service and its SQLite store are reachable
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func healthCheck(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"service": "storefront-service",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "storefront-service",
		})
	}
}
