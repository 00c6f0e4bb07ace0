package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// The mobile and web clients only ever use these.
const (
	corsMethods = "GET,POST,DELETE,OPTIONS"
	corsHeaders = "Origin,Content-Type,Accept,X-Request-ID,X-Trace-ID"
)

// CORS answers preflights and stamps Access-Control headers. An entry of "*"
// in allowedOrigins opens the API to any origin, which is how the public
// leaderboard widget is embedded.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		default:
			if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", corsMethods)
			c.Header("Access-Control-Allow-Headers", corsHeaders)
			c.Header("Access-Control-Max-Age", "86400")

			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
