package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxIDLength bounds caller-supplied IDs so they cannot bloat logs.
const maxIDLength = 128

type idMiddlewareConfig struct {
	headerName string
	contextKey string
	enrichers  []func(ctx context.Context, id string) context.Context
}

// createIDMiddleware accepts a well-formed ID from the header or mints a
// UUID, then echoes it and stores it in both the gin and request contexts.
func createIDMiddleware(cfg idMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cfg.headerName)
		if !validID(id) {
			id = uuid.NewString()
		}

		c.Set(cfg.contextKey, id)
		c.Header(cfg.headerName, id)

		ctx := c.Request.Context()
		for _, enrich := range cfg.enrichers {
			ctx = enrich(ctx, id)
		}

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}

	return true
}

func getIDFromContext(c *gin.Context, key string) string {
	return c.GetString(key)
}
