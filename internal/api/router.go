package api

import (
	"expense_ledger/internal/ledger"     // Ledger services
	"expense_ledger/internal/middleware" // Custom package for middleware
	"expense_ledger/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Deps are the collaborators the HTTP surface needs
type Deps struct {
	Service   *ledger.Service    // Mutations
	Balances  *ledger.Balances   // Balance and history reads
	Users     ledger.Reader      // Login and admin lookups
	Cache     *utils.LedgerCache // Redis backed cache
	JWTSecret string             // Token signing key
	Logger    *logrus.Logger     // Base logger for request logs
}

// NewRouter builds the gin engine with every route
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()                                            // Gin router instance
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger)) // Panic recovery and request logs

	// Auth routes
	r.POST("/user", RegisterHandler(d.Service))        // Registration endpoint
	r.GET("/user", LoginHandler(d.Users, d.JWTSecret)) // Login endpoint
	auth := middleware.JWTAuthMiddleware(d.JWTSecret)  // JWT guard
	r.PUT("/user/initial-balance", auth, SetInitialBalanceHandler(d.Service, d.Cache))

	// Transaction routes (protected by JWT)
	txGroup := r.Group("/transactions", auth)
	txGroup.POST("", CreateTransactionHandler(d.Service, d.Cache))       // Create transaction
	txGroup.GET("", ListTransactionsHandler(d.Balances, d.Cache))        // Ledger history
	txGroup.GET("/:id", GetTransactionHandler(d.Service))                // Single transaction
	txGroup.PUT("/:id", UpdateTransactionHandler(d.Service, d.Cache))    // Update transaction
	txGroup.DELETE("/:id", DeleteTransactionHandler(d.Service, d.Cache)) // Delete transaction

	// Balance routes (protected by JWT)
	balanceGroup := r.Group("/balance", auth)
	balanceGroup.GET("", GetBalanceHandler(d.Balances, d.Cache))              // Current or as-of balance
	balanceGroup.POST("/recalculate", RecalculateHandler(d.Service, d.Cache)) // Full rebuild
	balanceGroup.GET("/audit", AuditHandler(d.Service))                       // Drift check

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin", auth, middleware.AdminOnlyMiddleware(d.Users))
	adminGroup.GET("/users", ListUsersHandler(d.Users, d.Balances))                        // List users
	adminGroup.POST("/users/:id/recalculate", AdminRecalculateHandler(d.Service, d.Cache)) // Rebuild a user's ledger
	adminGroup.GET("/users/:id/audit", AdminAuditHandler(d.Service))                       // Audit a user's ledger

	return r
}
