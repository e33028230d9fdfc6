package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // Pagination parsing

	"expense_ledger/internal/domain"     // Error taxonomy
	"expense_ledger/internal/middleware" // Request logger

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// respondError maps a service error onto an HTTP response and logs it.
// Not-found answers never say whether the id exists for another user.
func respondError(c *gin.Context, err error, action string, fields logrus.Fields) {
	log := middleware.Logger(c).WithFields(fields).WithField("error", err.Error())
	var verrs domain.ValidationErrors
	var drift *domain.DriftError
	switch {
	case errors.As(err, &verrs):
		log.Info(action + " rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": verrs})
	case domain.IsValidation(err):
		log.Info(action + " rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.IsNotFound(err):
		log.Info(action + " target not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &drift):
		log.Warn(action + " found ledger drift")
		c.JSON(http.StatusConflict, gin.H{"error": "Ledger drift detected", "drifts": drift.Drifts})
	case domain.IsConflict(err):
		log.Warn(action + " hit a concurrent mutation")
		c.JSON(http.StatusConflict, gin.H{"error": "Ledger is busy, retry the request"})
	case errors.Is(err, domain.ErrAlreadyExists):
		log.Info(action + " conflicts with existing data")
		c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
	default:
		log.Error(action + " failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": action + " failed"})
	}
}

// badRequest rejects malformed input before it reaches the service
func badRequest(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "Validation failed",
		"fields": domain.ValidationErrors{{Field: field, Message: message}},
	})
}

// parsePage reads page and page_size with the usual defaults and limits
func parsePage(c *gin.Context) (page, pageSize int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size within limits
		}
	}
	return page, pageSize
}

// pathID parses a positive numeric path parameter
func pathID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// callerID returns the authenticated user id or aborts with 401
func callerID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return userID, ok
}

// totalPages rounds total/pageSize up
func totalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}
