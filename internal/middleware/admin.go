package middleware

import (
	"context"  // Request scoping
	"net/http" // HTTP status codes

	"expense_ledger/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// UserFinder loads users for role checks
type UserFinder interface {
	FindUser(ctx context.Context, userID uint) (*domain.User, error)
}

// AdminOnlyMiddleware checks the user's role from the database on each request
func AdminOnlyMiddleware(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c) // Get userID from context
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, err := users.FindUser(c.Request.Context(), userID) // Fetch user from database
		if err != nil || user.Role != domain.RoleAdmin {
			// Unknown user, lookup failure or plain user: all look the same
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next() // If admin, proceed to the next handler
	}
}
