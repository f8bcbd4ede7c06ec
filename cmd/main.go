package main

import (
	"identity-service/internal/handler"
	"identity-service/internal/middleware"
	"identity-service/internal/provider"
	"identity-service/pkg/config"
	"identity-service/pkg/database"
	"identity-service/pkg/jwtutil"
	"identity-service/pkg/logger"
	"identity-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting identity service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT verification with the provider's token settings
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT verification initialized")

	// Initialize the identity provider admin client
	provider.Initialize(&cfg.Provider)
	log.Info("Identity provider client initialized", zap.String("base_url", cfg.Provider.BaseURL))

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover()) // Add recovery middleware
	e.Use(echomiddleware.CORS())    // Add CORS middleware
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/", handler.Welcome)
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Token smoke test, from the original API surface
	e.GET("/protected", handler.Protected, middleware.AuthMiddleware)

	// Provider lifecycle events - authenticated by webhook signature, not by
	// a user token; this is the trigger path that mirrors accounts locally
	hooks := e.Group("/hooks")
	hooks.Use(middleware.WebhookSignature(cfg.Provider.WebhookSecret))
	hooks.POST("/identity", handler.IdentityWebhook)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Profile management - always scoped to the caller's own row
	users := api.Group("/users")
	users.GET("/me", handler.GetProfile)
	users.PATCH("/me", handler.UpdateProfile)
	users.DELETE("/me", handler.DeleteAccount)

	// Device registry - always scoped to the caller's own rows
	devices := api.Group("/devices")
	devices.POST("", handler.RegisterDevice)
	devices.GET("", handler.ListDevices)
	devices.GET("/:id", handler.GetDevice)
	devices.PATCH("/:id", handler.RefreshDevice)
	devices.DELETE("/:id", handler.DeleteDevice)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
