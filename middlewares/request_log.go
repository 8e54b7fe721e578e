package middlewares

import (
	"homegallery/logger"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-ID"
	logEntryKey     = "log"
)

// RequestLog assigns a request ID, stores a request-scoped log entry in the
// context and writes one access log line per request.
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		entry := log.WithRequestID(requestID)
		c.Set(logEntryKey, entry)

		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"route":   c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.WithFields(fields).Error("request failed")
		case status >= 400:
			entry.WithFields(fields).Warn("request rejected")
		default:
			entry.WithFields(fields).Info("request")
		}
	}
}

// Log returns the request-scoped entry, or a bare one when RequestLog did not
// run.
func Log(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(logEntryKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
