package httpserver

import (
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/gin-gonic/gin"
)

const requestIDBytes = 8

// requestLogger tags every request with an id, logs it once it completes
// and records it in the request metrics.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(common.RequestIDHeaderName)
		if reqID == "" {
			if id, err := common.MakeRandHexString(requestIDBytes); err == nil {
				reqID = id
			}
		}
		c.Header(common.RequestIDHeaderName, reqID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		s.metrics.HTTPRequest(route, c.Request.Method, status, elapsed)
		s.logger.Info(c.Request.Context(), "request served",
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", elapsed,
		)
	}
}
