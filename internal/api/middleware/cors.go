package middleware

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS middleware for the browser clients. Localhost origins are always
// allowed; extra origins come from ALLOWED_ORIGINS (comma separated).
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := origin != "" && (strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1"))
		if custom := os.Getenv("ALLOWED_ORIGINS"); custom != "" && !allowed {
			for _, customOrigin := range strings.Split(custom, ",") {
				if origin == strings.TrimSpace(customOrigin) {
					allowed = true
					break
				}
			}
		}
		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
