package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/lumenshell/platform/internal/shared/id"
)

// HeaderRequestID carries the request id to the caller.
const HeaderRequestID = "X-Request-ID"

// ContextRequestID is the gin context key for the request id.
const ContextRequestID = "request_id"

// RequestID tags every request with a sortable unique id. Incoming ids
// are honored so the shell can correlate retries.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = id.NewRequestID().String()
		}
		c.Set(ContextRequestID, rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Next()
	}
}
