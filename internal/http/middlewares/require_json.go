package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON guards the auth routes. The test-user endpoint deliberately
// stays off this path: it must accept an entirely empty request.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		// ContentType() strips any ;charset= parameter
		if c.ContentType() != "application/json" {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error": gin.H{
					"code":    "unsupported_media_type",
					"message": "Content-Type must be application/json",
				},
			})
			return
		}

		c.Next()
	}
}
