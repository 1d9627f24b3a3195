package api_gateway

import (
	"log/slog"

	"github.com/bankapp-ledger-engine/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
)

// routeRegistrar is implemented by handlers that own a set of endpoints
type routeRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// newRouter builds the engine: recovery outermost, then correlation ids so the
// access log and every handler see the request's id.
func newRouter(logger *slog.Logger, checks []HealthCheck, registrars ...routeRegistrar) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(logger),
		middleware.CorrelationID(),
		middleware.Logger(logger),
	)

	v1 := r.Group("/api/v1")
	for _, registrar := range registrars {
		registrar.RegisterRoutes(v1)
	}

	r.GET("/health", healthHandler(logger, checks))
	return r
}
