package main

import (
	"fmt"
	"net/http"
	"os"

	"domira/internal/chain"
	"domira/internal/config"
	"domira/internal/database"
	"domira/internal/handlers"
	"domira/internal/logger"
	"domira/internal/middleware"
	"domira/internal/services"
	"domira/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "domira/internal/docs" // Import swagger docs
)

// @title           Domira API
// @version         1.0
// @description     Domira is a fractional real-estate platform: property registry, secondary marketplace, and rental income distribution.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	passportService := services.NewPassportService()
	propertyService := services.NewPropertyService(db, passportService)
	marketplaceService := services.NewMarketplaceService(db, propertyService)

	// Chain client is optional: without an RPC endpoint the API runs with
	// database-only KYC and explicit holder snapshots.
	var holderSource services.HolderSource
	var whitelister services.Whitelister
	if appConfig.EthRPCURL != "" {
		chainClient, err := chain.New(chain.Config{
			RPCURL:          appConfig.EthRPCURL,
			ContractAddress: appConfig.ContractAddress,
			AdminPrivateKey: appConfig.AdminPrivateKey,
			ChainID:         appConfig.ChainID,
		})
		if err != nil {
			return fmt.Errorf("failed to create chain client: %w", err)
		}
		holderSource = chain.NewHolderSource(chainClient, userService, appConfig.PoolAddress)
		whitelister = chainClient
		log.Infof("Chain client connected to %s", appConfig.EthRPCURL)
	} else {
		log.Warn("ETH_RPC_URL not set, running without chain integration")
	}

	distributionService := services.NewDistributionService(db, propertyService, holderSource)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	propertyHandler := handlers.NewPropertyHandler(propertyService)
	marketplaceHandler := handlers.NewMarketplaceHandler(marketplaceService, userService)
	distributionHandler := handlers.NewDistributionHandler(distributionService)
	webhookHandler := handlers.NewWebhookHandler(userService, whitelister, appConfig.StripeWebhookSecret)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Stripe Identity webhook (signature-verified, not JWT-protected)
	router.POST("/webhooks/stripe", webhookHandler.HandleStripeIdentity)

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	v1.GET("/properties", propertyHandler.ListProperties)
	v1.GET("/properties/:id", propertyHandler.GetProperty)
	v1.GET("/properties/:id/passport", propertyHandler.GetPassport)
	v1.GET("/properties/:id/distributions", distributionHandler.ListDistributions)
	v1.GET("/marketplace/listings", marketplaceHandler.ListListings)
	v1.GET("/marketplace/listings/:id", marketplaceHandler.GetListing)
	v1.GET("/users/:id/kyc-status", userHandler.GetKYCStatus)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.PATCH("/users/wallet", userHandler.UpdateWallet)

	// Property registry routes
	properties := protected.Group("/properties")
	properties.POST("", propertyHandler.CreateProperty)
	properties.PATCH("/:id/token", propertyHandler.SetTokenID)
	properties.PATCH("/:id/availability", propertyHandler.AdjustAvailability)

	// Marketplace routes
	listings := protected.Group("/marketplace/listings")
	listings.POST("", marketplaceHandler.CreateListing)
	listings.POST("/:id/cancel", marketplaceHandler.CancelListing)
	listings.POST("/:id/buy", marketplaceHandler.Buy)

	// Distribution routes
	protected.POST("/distributions", distributionHandler.Distribute)

	log.Infof("Starting Domira backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
