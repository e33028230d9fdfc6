package api

import (
	"net/http" // HTTP status codes

	"expense_ledger/internal/domain" // Importing domain models
	"expense_ledger/internal/ledger" // Ledger services
	"expense_ledger/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact decimal money
	"github.com/sirupsen/logrus"    // Logging library
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID             uint            `json:"id"`              // User ID
	Username       string          `json:"username"`        // Username
	Role           string          `json:"role"`            // User role
	InitialBalance decimal.Decimal `json:"initial_balance"` // Opening balance
	Balance        decimal.Decimal `json:"balance"`         // Current balance
}

// ListUsersHandler returns one page of users with their current balances
func ListUsersHandler(users ledger.Reader, balances *ledger.Balances) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := parsePage(c)
		list, total, err := users.ListUsers(c.Request.Context(), page, pageSize)
		if err != nil {
			respondError(c, err, "List users", logrus.Fields{"page": page})
			return
		}
		resp := make([]UserAdminResponse, len(list)) // Prepare response data
		for i, u := range list {
			b, err := balances.CurrentBalance(c.Request.Context(), u.ID)
			if err != nil {
				respondError(c, err, "List users", logrus.Fields{"target_user_id": u.ID})
				return
			}
			resp[i] = UserAdminResponse{
				ID:             u.ID,             // User ID
				Username:       u.Username,       // Username
				Role:           u.Role,           // User role
				InitialBalance: u.InitialBalance, // Opening balance
				Balance:        b.Balance,        // Derived balance
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"users":       resp,                        // List of users
			"page":        page,                        // Current page
			"page_size":   pageSize,                    // Page size
			"total":       total,                       // Total number of users
			"total_pages": totalPages(total, pageSize), // Total pages
		})
	}
}

// AdminRecalculateHandler rebuilds another user's ledger
func AdminRecalculateHandler(svc *ledger.Service, cache *utils.LedgerCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "id")
		if !ok {
			respondError(c, domain.ErrUserNotFound, "Recalculate balance", logrus.Fields{"target_user_id": c.Param("id")})
			return
		}
		recalculate(c, svc, cache, userID)
	}
}

// AdminAuditHandler checks another user's ledger
func AdminAuditHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathID(c, "id")
		if !ok {
			respondError(c, domain.ErrUserNotFound, "Audit ledger", logrus.Fields{"target_user_id": c.Param("id")})
			return
		}
		audit(c, svc, userID)
	}
}
