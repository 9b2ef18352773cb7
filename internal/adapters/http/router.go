package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains everything SetupRouter mounts.
type RouterConfig struct {
	Logger *slog.Logger

	// ServiceName names the server spans.
	ServiceName string

	Session middleware.SessionConfig

	HealthHandler *handlers.HealthHandler
	QuoteHandler  *handlers.QuoteHandler

	// Timeout bounds /api/v1 requests. Zero disables it.
	Timeout time.Duration
}

// SetupRouter mounts middleware and routes on engine. Global middleware,
// outermost first:
//  1. Recovery
//  2. Context logger
//  3. Request ID, then correlation ID
//  4. OpenTelemetry tracing, then metrics
//  5. Request logging (skips /-/)
//
// /-/ carries the operational endpoints; /api/v1 adds the session cookie
// and the request timeout.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.ContextLogger(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.ServiceName),
		telemetry.Middleware(),
		middleware.Logging(),
	)

	engine.NoRoute(noRoute)
	engine.NoMethod(noMethod)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	api := engine.Group("/api/v1",
		middleware.Session(cfg.Session),
		middleware.Timeout(cfg.Timeout),
	)

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(api)
	}
}
