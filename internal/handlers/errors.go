package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/evalstats/internal/stats"
	"github.com/huangang/evalstats/pkg/logger"
	"github.com/huangang/evalstats/pkg/response"
)

// statsError writes err using the status that matches its stats code.
// Internal failures are logged and answered with a generic message.
func statsError(c *gin.Context, err error) {
	msg := stats.MessageOf(err)
	switch stats.CodeOf(err) {
	case stats.CodeUnauthenticated:
		response.Unauthorized(c, msg)
	case stats.CodePermissionDenied:
		response.Forbidden(c, msg)
	case stats.CodeInvalidArgument:
		response.BadRequest(c, msg)
	case stats.CodeNotFound:
		response.NotFound(c, msg)
	case stats.CodeAborted:
		response.Error(c, response.NewConflict("the update conflicted with concurrent writes, please retry"))
	default:
		logger.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).
			Msg("request failed")
		response.Error(c, err)
	}
}
