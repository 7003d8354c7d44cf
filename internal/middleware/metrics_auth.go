package middleware

import (
	"net/http"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

// MetricsAuthMiddleware guards /metrics with a static bearer token. An empty
// token leaves the endpoint open.
func MetricsAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		provided := BearerToken(c)
		message := ""
		switch {
		case provided == "":
			message = "Bearer token required"
		case !util.ConstantTimeEqual(provided, token):
			message = "Invalid token"
		}
		if message != "" {
			c.Header("WWW-Authenticate", `Bearer realm="Metrics"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": message,
			})
			return
		}

		c.Next()
	}
}
