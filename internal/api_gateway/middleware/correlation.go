package middleware

import (
	"github.com/bankapp-ledger-engine/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey stores the id in the gin context
	CorrelationIDKey = "correlation_id"

	// maxCorrelationIDLength bounds caller ids; they end up in Kafka triggers and ledger entries
	maxCorrelationIDLength = 128
)

// CorrelationID gives every request a correlation id, reusing the caller's header
// when it is usable. The id is echoed in the response header and attached to the
// request context so it reaches the processing trigger.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if !usableCorrelationID(correlationID) {
			correlationID = uuid.NewString()
		}

		c.Header(CorrelationIDHeader, correlationID)
		c.Set(CorrelationIDKey, correlationID)
		c.Request = c.Request.WithContext(shared.WithCorrelationID(c.Request.Context(), correlationID))

		c.Next()
	}
}

// usableCorrelationID accepts non-empty, bounded, printable ASCII ids without spaces
func usableCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

// GetCorrelationID returns the request's correlation id, or "" outside the middleware
func GetCorrelationID(c *gin.Context) string {
	if id, ok := c.Get(CorrelationIDKey); ok {
		if correlationID, ok := id.(string); ok {
			return correlationID
		}
	}
	return ""
}
