package middleware

import (
	"time" // Request latency

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Request ids
	"github.com/sirupsen/logrus" // Structured logging
)

// Context keys and headers used for request tracing
const (
	RequestIDHeader = "X-Request-ID" // Echoed to the client
	loggerKey       = "logger"       // Request scoped *logrus.Entry
)

// RequestLogger gives every request an id and a logrus entry carrying it, and logs
// one line per request once the handler chain finishes
func RequestLogger(base *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()                       // Start of request
		requestID := c.GetHeader(RequestIDHeader) // Honour an upstream id
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString() // Otherwise mint one
		}
		entry := base.WithFields(logrus.Fields{
			"request_id": requestID,        // Correlation id
			"method":     c.Request.Method, // HTTP method
			"path":       c.FullPath(),     // Route pattern
		})
		c.Set(loggerKey, entry)
		c.Header(RequestIDHeader, requestID)
		c.Next()
		entry.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),                                  // Response status
			"latency": time.Since(start).Round(time.Microsecond).String(), // Time spent
		}).Info("Request handled")
	}
}

// Logger returns the request scoped entry, or one on the standard logger
func Logger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	entry := logrus.NewEntry(logrus.StandardLogger())
	c.Set(loggerKey, entry)
	return entry
}
