package http

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
)

// noRoute answers unknown paths with the standard envelope instead of Gin's
// plain-text 404.
func noRoute(c *gin.Context) {
	dto.RespondWithCode(c, dto.ErrorCodeNotFound, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
}

func noMethod(c *gin.Context) {
	dto.RespondWithCode(c, dto.ErrorCodeMethodNotAllowed, "method "+c.Request.Method+" not allowed")
}
