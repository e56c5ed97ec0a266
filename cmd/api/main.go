package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/MQuirosP/backend-bancas-sub001/docs"
	"github.com/MQuirosP/backend-bancas-sub001/internal/bizday"
	"github.com/MQuirosP/backend-bancas-sub001/internal/cache"
	"github.com/MQuirosP/backend-bancas-sub001/internal/config"
	"github.com/MQuirosP/backend-bancas-sub001/internal/handler"
	"github.com/MQuirosP/backend-bancas-sub001/internal/middleware"
	"github.com/MQuirosP/backend-bancas-sub001/internal/repository"
	"github.com/MQuirosP/backend-bancas-sub001/internal/service"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
)

// @title Account Statement API
// @version 1.0
// @description API for per-day account statements, cash movements, and ledger reconciliation
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email soporte@bancas.example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel)
	logger.GetLogger().Info("Starting Account Statement Service")

	loc, err := bizday.Location(cfg.App.BusinessTimeZone)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Invalid business time zone")
	}

	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	logger.GetLogger().Info("Database connection established")

	redisClient := connectRedis(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}
	statementCache := cache.NewStatementCache(redisClient, cfg.App.PendingTTL, cfg.App.SettledTTL)

	// Initialize repositories
	salesRepo := repository.NewSalesRepository(db, loc)
	stmtRepo := repository.NewStatementRepository(db)
	mvRepo := repository.NewMovementRepository(db)

	// Initialize services
	calcService := service.NewCalculatorService(salesRepo, stmtRepo, mvRepo)
	stmtService := service.NewStatementService(calcService, salesRepo, stmtRepo, mvRepo, statementCache, cfg.App, loc)
	paymentService := service.NewPaymentService(calcService, stmtRepo, mvRepo, statementCache, cfg.App, loc)
	salesService := service.NewSalesService(salesRepo, loc, cfg.App.BatchSize)

	// Initialize handlers
	stmtHandler := handler.NewStatementHandler(stmtService, loc)
	paymentHandler := handler.NewPaymentHandler(paymentService, loc)
	salesHandler := handler.NewSalesHandler(salesService)

	docs.SwaggerInfo.BasePath = "/"

	router := setupRouter(stmtHandler, paymentHandler, salesHandler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.GetLogger().WithField("address", addr).Info("Server starting")

	if err := router.Run(addr); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to start server")
	}
}

func connectDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// connectRedis returns nil when Redis is disabled or unreachable; the
// cache degrades to a no-op and every read recomputes.
func connectRedis(cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		logger.GetLogger().Info("Statement cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithError(err).Warn("Redis unreachable, statement cache disabled")
		client.Close()
		return nil
	}

	logger.GetLogger().Info("Redis connection established")
	return client
}

func setupRouter(stmtHandler *handler.StatementHandler, paymentHandler *handler.PaymentHandler, salesHandler *handler.SalesHandler) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Statement routes
		statements := v1.Group("/statements")
		{
			statements.GET("", stmtHandler.GetStatements)
			statements.GET("/breakdown", stmtHandler.GetBreakdown)
			statements.DELETE("", stmtHandler.DeleteStatement)
		}

		// Payment routes
		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.RegisterPayment)
			payments.POST("/:id/reverse", paymentHandler.ReversePayment)
			payments.GET("/:id", paymentHandler.GetPayment)
		}

		// Sales routes
		sales := v1.Group("/sales")
		{
			sales.POST("/import", salesHandler.ImportSales)
		}
	}

	return router
}
