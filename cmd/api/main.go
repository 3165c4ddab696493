package main

import (
	"fmt"
	"net/http"
	"os"
	"tally/internal/config"
	"tally/internal/database"
	"tally/internal/handlers"
	"tally/internal/logger"
	"tally/internal/middleware"
	"tally/internal/notify"
	"tally/internal/rates"
	"tally/internal/services"
	"tally/internal/validator"

	"github.com/gin-gonic/gin"
)

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
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Change notifications. The broker publisher is optional; the in-process
	// notifier always runs so subscribers see mutations either way.
	notifier := notify.NewNotifier()
	if appConfig.AMQPURL != "" {
		publisher, err := notify.NewAMQPPublisher(appConfig.AMQPURL, "tally.events", "ledger-changes")
		if err != nil {
			log.Warnf("AMQP publisher disabled: %v", err)
		} else {
			defer publisher.Close()
			publisher.Attach(notifier)
		}
	}

	// Exchange rate client
	ratesClient := rates.NewClient(nil, appConfig.RatesURLs)

	// Initialize services
	db := dbManager.DB()
	entryService := services.NewEntryService(db, notifier)
	ledgerService := services.NewLedgerService(db, ratesClient, notifier,
		appConfig.MainCurrency, appConfig.ViewportBack, appConfig.ViewportForward)
	groupService := services.NewGroupService(db, notifier)
	tagService := services.NewTagService(db, notifier)

	// Initialize handlers
	entryHandler := handlers.NewEntryHandler(entryService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	groupHandler := handlers.NewGroupHandler(groupService)
	tagHandler := handlers.NewTagHandler(tagService)
	ratesHandler := handlers.NewRatesHandler(ratesClient, appConfig.MainCurrency)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Entry routes
	entries := v1.Group("/entries")
	entries.POST("", entryHandler.CreateEntry)
	entries.GET("", entryHandler.ListEntries)
	entries.GET("/:id", entryHandler.GetEntry)
	entries.POST("/toggle", entryHandler.ToggleFulfilled)
	entries.POST("/delete", entryHandler.DeleteEntry)
	entries.POST("/edit", entryHandler.EditEntry)

	// Ledger routes
	ledger := v1.Group("/ledger")
	ledger.GET("", ledgerHandler.GetLedger)
	ledger.GET("/summaries", ledgerHandler.GetSummaries)

	// Group routes
	groups := v1.Group("/groups")
	groups.POST("", groupHandler.CreateGroup)
	groups.GET("", groupHandler.ListGroups)
	groups.PUT("/:id", groupHandler.UpdateGroup)
	groups.DELETE("/:id", groupHandler.DeleteGroup)

	// Tag routes
	tags := v1.Group("/tags")
	tags.POST("", tagHandler.CreateTag)
	tags.GET("", tagHandler.ListTags)
	tags.GET("/suggested", tagHandler.SuggestedTags)
	tags.PUT("/:id", tagHandler.UpdateTag)
	tags.DELETE("/:id", tagHandler.DeleteTag)

	// Exchange rate routes
	v1.GET("/rates", ratesHandler.GetRates)

	log.Infof("Starting Tally backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
