package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/etfpulse/internal/domain/dto"
	"github.com/guttosm/etfpulse/internal/logger"
)

// ErrorHandler converts errors attached to the Gin context into the standard
// JSON envelope. Handlers that already wrote a response are left alone; only
// the first attached error is reported.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	err := c.Errors[0].Err
	logger.L().Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled request error")
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", err))
}
