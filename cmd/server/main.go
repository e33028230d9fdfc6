package main

import (
	"context" // context package is needed for Redis operations

	"expense_ledger/internal/api"    // Custom package for API handlers
	"expense_ledger/internal/config" // Custom package for configuration
	"expense_ledger/internal/db"     // Database connection
	"expense_ledger/internal/ledger" // Ledger engine and services
	"expense_ledger/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Setup logger
	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logger.SetFormatter(&logrus.JSONFormatter{}) // Machine readable in production
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel) // Checked by Validate
	logger.SetLevel(level)

	// Connect to the database
	conn, err := db.Open(cfg)
	if err != nil {
		logger.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Fatalf("failed to connect to Redis: %v", err)
	}

	// Ledger wiring
	store := db.NewLedgerStore(conn)
	engine := ledger.NewEngine(logrus.NewEntry(logger))
	validator := ledger.NewValidator(ledger.Rules{
		MinDate:                cfg.LedgerMinDate,          // Earliest accepted date
		MaxFutureDays:          cfg.LedgerMaxFutureDays,    // Future window
		RequireExpenseCategory: cfg.RequireExpenseCategory, // Category rule
	})

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		Service:   ledger.NewService(store, engine, validator),
		Balances:  ledger.NewBalances(store),
		Users:     store,
		Cache:     utils.NewLedgerCache(redisClient, cfg.CacheTTL),
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logger.Fatalf("failed to set trusted proxies: %v", err)
	}

	logger.Info("Server running on " + cfg.AppPort) // Log server start
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
