package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// ContextKeySessionID is the gin context key for the browsing session ID.
const ContextKeySessionID = "session_id"

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	CookieName string

	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// Session identifies the browsing session by cookie. A missing or malformed
// cookie starts a new session with a fresh UUID. The cookie has no Max-Age,
// so it ends with the browser session.
func Session(cfg SessionConfig) gin.HandlerFunc {
	name := cfg.CookieName
	if name == "" {
		name = "qk_session"
	}

	return func(c *gin.Context) {
		id, err := c.Cookie(name)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()

			http.SetCookie(c.Writer, &http.Cookie{
				Name:     name,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		c.Set(ContextKeySessionID, id)

		ctx := ContextWithSessionID(c.Request.Context(), id)
		ctx = logging.WithSessionID(ctx, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetSessionID returns the session ID, or "" when the middleware did not run.
func GetSessionID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeySessionID)
}
