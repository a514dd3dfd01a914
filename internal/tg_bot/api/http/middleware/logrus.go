// Package middleware holds gin middlewares.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"time"
)

// LogrusLog logs every request with its status and latency.
func LogrusLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"client":  c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("HTTP request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("HTTP request rejected")
		default:
			entry.Debug("HTTP request served")
		}
	}
}
