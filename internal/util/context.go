package util

import (
	"context"

	"github.com/gin-gonic/gin"
)

type contextKey string

const ipContextKey contextKey = "client_ip"

// IPMiddleware extracts client IP and stores it in the context
func IPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Gin's ClientIP() handles X-Forwarded-For and other headers
		c.Set(string(ipContextKey), c.ClientIP())
		c.Request = c.Request.WithContext(SetIPContext(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

// SetIPContext stores the client IP on a plain context so that code running
// outside the gin handler (audit writer, services) can still read it.
func SetIPContext(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, ipContextKey, ip)
}

// GetIPFromContext extracts the client IP address from the context
func GetIPFromContext(ctx context.Context) string {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		return ginCtx.ClientIP()
	}

	if ip, ok := ctx.Value(ipContextKey).(string); ok {
		return ip
	}

	return ""
}

// GetUserAgentFromContext returns the request User-Agent when ctx is a gin context.
func GetUserAgentFromContext(ctx context.Context) string {
	if ginCtx, ok := ctx.(*gin.Context); ok && ginCtx.Request != nil {
		return ginCtx.Request.UserAgent()
	}
	return ""
}
