package router

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/compozy/helpdesk/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID echoes the caller's request id or assigns a new one, and attaches
// a request-scoped logger carrying it.
func RequestID(base logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(RequestIDHeader, id)
		log := base
		if log == nil {
			log = logger.FromContext(c.Request.Context())
		}
		ctx := logger.ContextWithLogger(c.Request.Context(), log.With("request_id", id))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
