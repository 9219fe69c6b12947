package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS allows exactly one configured browser origin, with credentials.
// Requests from anywhere else get no CORS headers at all.
func CORS(allowedOrigin string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		h := ctx.Writer.Header()
		h.Add("Vary", "Origin")

		if origin := ctx.GetHeader("Origin"); origin != "" && origin == allowedOrigin {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			h.Set("Access-Control-Max-Age", "600")
		}

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}
