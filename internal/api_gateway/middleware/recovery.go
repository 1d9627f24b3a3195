package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery converts a handler panic into a JSON 500 that carries the request's
// correlation id. The panic and its stack go to logger instead of gin's writer.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		correlationID := GetCorrelationID(c)

		attrs := []any{
			"error", recovered,
			"stack", string(debug.Stack()),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		}
		if correlationID != "" {
			attrs = append(attrs, "correlation_id", correlationID)
		}
		logger.Error("Panic recovered", attrs...)

		body := gin.H{"error": gin.H{
			"code":    "INTERNAL_SERVER_ERROR",
			"message": "An internal server error occurred",
		}}
		if correlationID != "" {
			body["correlation_id"] = correlationID
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}
