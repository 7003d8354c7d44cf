package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(t *testing.T, limiter gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limiter)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return router
}

func hit(router http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewMemoryRateLimiter(t *testing.T) {
	limiter, err := NewMemoryRateLimiter("login", 5)
	require.NoError(t, err)
	router := newLimitedRouter(t, limiter)

	for i := range 5 {
		assert.Equal(t, http.StatusOK, hit(router, "192.168.1.100").Code, "request %d", i+1)
	}

	w := hit(router, "192.168.1.100")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"success":false,"message":"Too many requests. Please try again later."}`,
		w.Body.String(),
	)
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	limiter, err := NewRateLimiter(RateLimitConfig{
		Name:              "token",
		RequestsPerMinute: 2,
		StoreType:         RateLimitStoreMemory,
	})
	require.NoError(t, err)
	router := newLimitedRouter(t, limiter)

	for _, ip := range []string{"192.168.1.1", "192.168.1.2", "192.168.1.3"} {
		assert.Equal(t, http.StatusOK, hit(router, ip).Code)
		assert.Equal(t, http.StatusOK, hit(router, ip).Code)
		assert.Equal(t, http.StatusTooManyRequests, hit(router, ip).Code, "third request from %s", ip)
	}
}

func TestRateLimiter_SeparateEndpointsDoNotShareCounters(t *testing.T) {
	login, err := NewMemoryRateLimiter("login", 1)
	require.NoError(t, err)
	magic, err := NewMemoryRateLimiter("magic_link", 1)
	require.NoError(t, err)

	loginRouter := newLimitedRouter(t, login)
	magicRouter := newLimitedRouter(t, magic)

	assert.Equal(t, http.StatusOK, hit(loginRouter, "10.0.0.9").Code)
	assert.Equal(t, http.StatusOK, hit(magicRouter, "10.0.0.9").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(loginRouter, "10.0.0.9").Code)
}

func TestNewRateLimiter_InvalidConfig(t *testing.T) {
	_, err := NewRateLimiter(RateLimitConfig{Name: "login", RequestsPerMinute: 0})
	assert.Error(t, err)

	_, err = NewRateLimiter(RateLimitConfig{
		Name:              "login",
		RequestsPerMinute: 5,
		StoreType:         RateLimitStoreRedis,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a redis client")
}

func TestRateLimiter_AuditsRejections(t *testing.T) {
	ctx := context.Background()
	s, err := store.New(ctx, "sqlite", ":memory:", &config.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	audit := services.NewAuditService(s, true, 10)
	limiter, err := NewRateLimiter(RateLimitConfig{
		Name:              "login",
		RequestsPerMinute: 1,
		StoreType:         RateLimitStoreMemory,
		AuditService:      audit,
	})
	require.NoError(t, err)
	router := newLimitedRouter(t, limiter)

	assert.Equal(t, http.StatusOK, hit(router, "172.16.0.5").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "172.16.0.5").Code)

	require.NoError(t, audit.Shutdown(ctx))

	logs, _, err := audit.GetAuditLogs(ctx,
		store.PaginationParams{Page: 1, PageSize: 10},
		store.AuditLogFilters{EventType: models.EventRateLimitExceeded},
	)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "172.16.0.5", logs[0].ActorIP)
	assert.Equal(t, "/test", logs[0].RequestPath)
	assert.False(t, logs[0].Success)
}

// Needs a Redis server on localhost:6379; skipped otherwise.
func TestRedisRateLimiter_SharedAcrossInstances(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	name := "test_" + time.Now().Format("150405.000000")
	newPod := func() *gin.Engine {
		limiter, err := NewRateLimiter(RateLimitConfig{
			Name:              name,
			RequestsPerMinute: 3,
			StoreType:         RateLimitStoreRedis,
			RedisClient:       client,
		})
		require.NoError(t, err)
		return newLimitedRouter(t, limiter)
	}
	pod1, pod2 := newPod(), newPod()

	ip := "192.168.88.1"
	assert.Equal(t, http.StatusOK, hit(pod1, ip).Code)
	assert.Equal(t, http.StatusOK, hit(pod2, ip).Code)
	assert.Equal(t, http.StatusOK, hit(pod1, ip).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(pod2, ip).Code)
}
