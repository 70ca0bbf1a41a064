package handler

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/Negixaab/runningbuddy/internal/service"
	"github.com/Negixaab/runningbuddy/pkg/response"
)

// respondError maps service error kinds to HTTP responses. Unclassified
// errors are logged and reported with userMsg only.
func respondError(c *gin.Context, err error, userMsg string) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, service.Message(err))
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, service.Message(err))
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, service.Message(err))
	case errors.Is(err, service.ErrConfiguration):
		log.Printf("[Handler] CONFIGURATION ERROR during %s: %v", userMsg, err)
		response.InternalError(c, "server misconfigured")
	default:
		log.Printf("[Handler] %s: %v", userMsg, err)
		response.InternalError(c, userMsg)
	}
}
