package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID tags every request so log lines and support tickets can be
// matched up. An inbound X-Request-ID is trusted and passed through.
func RequestID(ctx *gin.Context) {
	id := ctx.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	ctx.Set("request_id", id)
	ctx.Header("X-Request-ID", id)
	ctx.Next()
}
