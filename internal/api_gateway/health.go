package api_gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency the gateway cannot serve without
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names a dependency probed by GET /health
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

// healthHandler answers 200 when every dependency responds and 503 otherwise,
// reporting each dependency's state.
func healthHandler(logger *slog.Logger, checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, check := range checks {
			if err := check.Pinger.Ping(ctx); err != nil {
				logger.Warn("Health check failed", "dependency", check.Name, "error", err)
				results[check.Name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[check.Name] = "ok"
		}

		body := gin.H{"status": "ok", "timestamp": time.Now().UTC(), "checks": results}
		if status != http.StatusOK {
			body["status"] = "unavailable"
		}
		c.JSON(status, body)
	}
}
