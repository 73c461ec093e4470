package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/astrolabe/pkg/correlation"
)

const (
	corsAllowHeaders  = "Origin, Content-Type, Accept, Authorization, X-Request-Id, " + correlation.Header
	corsAllowMethods  = "GET, POST, PUT, OPTIONS"
	corsExposeHeaders = correlation.Header
)

// CORS allows any origin. Preflight requests are answered directly.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Expose-Headers", corsExposeHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
