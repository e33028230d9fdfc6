package api

import (
	"net/http" // HTTP status codes

	"expense_ledger/internal/domain"     // Importing domain models
	"expense_ledger/internal/ledger"     // Ledger services
	"expense_ledger/internal/middleware" // Request logger
	"expense_ledger/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact decimal money
	"github.com/sirupsen/logrus"    // Logging library
)

// GetBalanceHandler returns the caller's current balance, or the balance as of the
// date given in ?as_of=YYYY-MM-DD. Only the current balance is cached.
func GetBalanceHandler(balances *ledger.Balances, cache *utils.LedgerCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if asOf := c.Query("as_of"); asOf != "" {
			date, err := domain.ParseDate(asOf)
			if err != nil {
				badRequest(c, "as_of", "must be a YYYY-MM-DD date")
				return
			}
			b, err := balances.BalanceAsOf(ctx, userID, date)
			if err != nil {
				respondError(c, err, "Get balance", logrus.Fields{"as_of": asOf})
				return
			}
			c.JSON(http.StatusOK, gin.H{"balance": b, "cached": false})
			return
		}
		var b domain.Balance
		cached, err := cache.Balance(ctx, userID, &b, func() (any, error) {
			return balances.CurrentBalance(ctx, userID)
		})
		if err != nil {
			respondError(c, err, "Get balance", logrus.Fields{})
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": b, "cached": cached})
	}
}

// InitialBalanceRequest sets a new opening balance
type InitialBalanceRequest struct {
	InitialBalance decimal.Decimal `json:"initial_balance"` // May be negative
}

// SetInitialBalanceHandler changes the caller's opening balance
func SetInitialBalanceHandler(svc *ledger.Service, cache *utils.LedgerCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var req InitialBalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := svc.SetInitialBalance(c.Request.Context(), userID, req.InitialBalance); err != nil {
			respondError(c, err, "Set initial balance", logrus.Fields{"initial_balance": req.InitialBalance.String()})
			return
		}
		cache.Invalidate(c.Request.Context(), userID)
		middleware.Logger(c).WithField("initial_balance", req.InitialBalance.String()).Info("Initial balance updated")
		c.JSON(http.StatusOK, gin.H{"message": "Initial balance updated"})
	}
}

// RecalculateHandler rebuilds the caller's cumulative deltas from scratch
func RecalculateHandler(svc *ledger.Service, cache *utils.LedgerCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		recalculate(c, svc, cache, userID)
	}
}

// AuditHandler checks the caller's cumulative deltas without changing them
func AuditHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		audit(c, svc, userID)
	}
}

// recalculate runs a full rebuild for userID and reports how many rows changed
func recalculate(c *gin.Context, svc *ledger.Service, cache *utils.LedgerCache, userID uint) {
	touched, err := svc.Recalculate(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Recalculate balance", logrus.Fields{"target_user_id": userID})
		return
	}
	cache.Invalidate(c.Request.Context(), userID)
	log := middleware.Logger(c).WithFields(logrus.Fields{"target_user_id": userID, "touched": touched})
	if touched > 0 {
		log.Warn("Ledger drift repaired") // A consistent ledger rewrites nothing
	} else {
		log.Info("Ledger recalculated")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ledger recalculated", "recalculated": touched})
}

// audit reports whether userID's ledger is consistent
func audit(c *gin.Context, svc *ledger.Service, userID uint) {
	if err := svc.Audit(c.Request.Context(), userID); err != nil {
		respondError(c, err, "Audit ledger", logrus.Fields{"target_user_id": userID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ledger consistent"})
}
