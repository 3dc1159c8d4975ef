package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veriflow/identity/internal/logger"
)

// Logging logs HTTP requests and results.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handler logs method, path, duration and status for each request.
func (l *Logging) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		l.logger.Info("http request completed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", duration.Milliseconds())

		if len(c.Errors) > 0 {
			l.logger.Error("http request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"errors", c.Errors.String())
		}
	}
}
