package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIPContext(t *testing.T) {
	tests := []struct {
		name string
		ip   string
	}{
		{"ipv4", "192.168.1.1"},
		{"ipv6", "2001:db8:85a3::8a2e:370:7334"},
		{"empty leaves context untouched", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := context.Background()
			ctx := SetIPContext(base, tt.ip)
			assert.Equal(t, tt.ip, GetIPFromContext(ctx))
			if tt.ip == "" {
				assert.Equal(t, base, ctx)
			}
		})
	}

	t.Run("survives derived contexts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(SetIPContext(context.Background(), "10.0.0.7"))
		defer cancel()
		assert.Equal(t, "10.0.0.7", GetIPFromContext(ctx))
	})
}

func TestIPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IPMiddleware())

	var fromRequest, fromGin, agent string
	r.GET("/", func(c *gin.Context) {
		fromRequest = GetIPFromContext(c.Request.Context())
		fromGin = GetIPFromContext(c)
		agent = GetUserAgentFromContext(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4711"
	req.Header.Set("User-Agent", "fleet-kiosk/2.1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.9", fromRequest)
	assert.Equal(t, "203.0.113.9", fromGin)
	assert.Equal(t, "fleet-kiosk/2.1", agent)
	assert.Empty(t, GetUserAgentFromContext(context.Background()))
}
