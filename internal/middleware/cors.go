package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// OriginAllowed reports whether origin is one of the configured origins.
// Matching is exact; there is no wildcard.
func OriginAllowed(origins []string, origin string) bool {
	return origin != "" && slices.Contains(origins, origin)
}

// CORS lets the listed origins call the API with credentials. Writes from any
// other browser origin are refused, since the session cookie rides along.
func CORS(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Vary", "Origin")
		origin := c.GetHeader("Origin")
		allowed := OriginAllowed(origins, origin)
		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}

		if origin != "" && !allowed && !safeMethod(c.Request.Method) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "origin not allowed", "code": "forbidden"})
			return
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func safeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}
