package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

const (
	// HeaderCorrelationID carries the ID of a whole business transaction
	// across services, unlike the per-hop request ID.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyCorrelationID is the gin context key for the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

// CorrelationID propagates X-Correlation-ID, starting a new one when the
// request is the origin of the transaction.
func CorrelationID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName: HeaderCorrelationID,
		contextKey: ContextKeyCorrelationID,
		enrichers:  []func(context.Context, string) context.Context{ContextWithCorrelationID, logging.WithCorrelationID},
	})
}

// GetCorrelationID returns the correlation ID, or "" when the middleware did not run.
func GetCorrelationID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyCorrelationID)
}
