package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"commerce-service/internal/handler"
	mid "commerce-service/internal/middleware"
	"commerce-service/internal/service"
	"commerce-service/pkg/config"
	"commerce-service/pkg/database"
	"commerce-service/pkg/jwtutil"
	"commerce-service/pkg/logger"
	"commerce-service/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting commerce-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize the persistent store
	store, err := database.New(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer store.Close()
	log.Info("Database connection established")

	// Wire the engine: version chain, stock ledger, cart sync, order
	// lifecycle, category CRUD
	versions := service.NewVersionService(store)
	stock := service.NewStockService(store, versions)
	carts := service.NewCartService(store, versions)
	orders := service.NewOrderService(store, versions, stock, carts, appConfig.Checkout)
	categories := service.NewCategoryService(store)

	productHandler := &handler.ProductHandler{Versions: versions, Stock: stock, Categories: categories}
	categoryHandler := &handler.CategoryHandler{Categories: categories}
	cartHandler := &handler.CartHandler{Carts: carts}
	orderHandler := &handler.OrderHandler{Orders: orders}

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Product API routes - Apply auth middleware to validate JWT and extract tenant ID
	productAPI := e.Group("/api/products", mid.AuthMiddleware)
	productAPI.GET("", productHandler.ListProducts)
	productAPI.GET("/:id", productHandler.GetProduct)
	productAPI.POST("", productHandler.CreateProduct)
	productAPI.PUT("/:id", productHandler.UpdateProduct)
	productAPI.DELETE("/:id", productHandler.DeleteProduct)
	productAPI.GET("/:id/versions", productHandler.ListVersions)
	productAPI.GET("/:id/versions/:version", productHandler.GetVersion)
	productAPI.POST("/:id/restore", productHandler.RestoreVersion)
	productAPI.PUT("/:id/stock", productHandler.SetStock)
	productAPI.PUT("/:id/variants/:variantId/stock", productHandler.AdjustVariantStock)

	// Category API routes
	categoryAPI := e.Group("/api/categories", mid.AuthMiddleware)
	categoryAPI.GET("", categoryHandler.ListCategories)
	categoryAPI.GET("/:id", categoryHandler.GetCategory)
	categoryAPI.POST("", categoryHandler.CreateCategory)
	categoryAPI.PUT("/:id", categoryHandler.UpdateCategory)
	categoryAPI.DELETE("/:id", categoryHandler.DeleteCategory)

	// Cart API routes
	cartAPI := e.Group("/api/carts", mid.AuthMiddleware)
	cartAPI.GET("/:sessionId", cartHandler.GetCart)
	cartAPI.POST("/:sessionId/items", cartHandler.AddItem)
	cartAPI.PUT("/:sessionId/items", cartHandler.UpdateItem)
	cartAPI.DELETE("/:sessionId/items/:productId", cartHandler.RemoveItem)
	cartAPI.POST("/:sessionId/sync", cartHandler.SyncCart)

	// Order API routes
	orderAPI := e.Group("/api/orders", mid.AuthMiddleware)
	orderAPI.GET("", orderHandler.ListOrders)
	orderAPI.GET("/:id", orderHandler.GetOrder)
	orderAPI.POST("/checkout", orderHandler.Checkout)
	orderAPI.PUT("/:id/status", orderHandler.TransitionStatus)
	orderAPI.PUT("/:id/tracking", orderHandler.SetTracking)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
