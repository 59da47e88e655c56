package site

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// logNotFound records every 404 response:
// what was requested, where the client came from, and who they were.
// Misses are usually broken links worth chasing down.
func logNotFound(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() != http.StatusNotFound {
			return
		}

		// X-Forwarded-For is set by the fronting proxy;
		// X-Client-IP by some others. The socket address is the
		// last resort and usually names the proxy itself.
		ip := c.GetHeader("X-Forwarded-For")
		if ip == "" {
			ip = c.GetHeader("X-Client-IP")
		}
		if ip == "" {
			ip = c.Request.RemoteAddr
		}

		fields := []zap.Field{
			zap.String("uri", c.Request.RequestURI),
			zap.String("client", ip),
		}
		if referer := c.GetHeader("Referer"); referer != "" {
			fields = append(fields, zap.String("referer", referer))
		}
		log.Warn("not found", fields...)
	}
}
