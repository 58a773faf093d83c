package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRouterForTest(t *testing.T, cfg *Config, client *redis.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	m, err := NewManager(cfg, client)
	require.NoError(t, err)
	r.Use(m.Middleware())
	r.GET("/t", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func doReq(r *gin.Engine, path, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if ip != "" {
		req.Header.Set("X-Real-IP", ip)
	}
	r.ServeHTTP(w, req)
	return w
}

func testConfig(limit int64, period time.Duration) *Config {
	return &Config{
		Limit:         limit,
		Period:        period,
		Prefix:        "test:ratelimit:",
		MaxRetry:      1,
		ExcludedPaths: []string{"/health"},
	}
}

func TestInMemoryRateLimit(t *testing.T) {
	t.Run("Should block the second request from the same IP", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(1, time.Second), nil)

		res1 := doReq(r, "/t", "1.2.3.4")
		require.Equal(t, http.StatusOK, res1.Code)
		res2 := doReq(r, "/t", "1.2.3.4")
		require.Equal(t, http.StatusTooManyRequests, res2.Code)
		assert.Equal(t, "application/problem+json", res2.Header().Get("Content-Type"))
		assert.Contains(t, res2.Body.String(), "Rate limit exceeded")
	})

	t.Run("Should track IPs independently", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(1, time.Minute), nil)

		require.Equal(t, http.StatusOK, doReq(r, "/t", "10.0.0.1").Code)
		require.Equal(t, http.StatusOK, doReq(r, "/t", "10.0.0.2").Code)
	})

	t.Run("Should refill after the period", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(1, 100*time.Millisecond), nil)

		require.Equal(t, http.StatusOK, doReq(r, "/t", "5.6.7.8").Code)
		require.Equal(t, http.StatusTooManyRequests, doReq(r, "/t", "5.6.7.8").Code)
		time.Sleep(120 * time.Millisecond)
		require.Equal(t, http.StatusOK, doReq(r, "/t", "5.6.7.8").Code)
	})

	t.Run("Should set rate limit headers", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(2, time.Minute), nil)

		res := doReq(r, "/t", "9.9.9.9")

		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "2", res.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", res.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, res.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("Should skip excluded paths", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(1, time.Minute), nil)

		for range 3 {
			require.Equal(t, http.StatusOK, doReq(r, "/health", "7.7.7.7").Code)
		}
	})
}

func TestRedisRateLimit(t *testing.T) {
	t.Run("Should share counters through redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		cfg := testConfig(1, time.Minute)
		m, err := NewManager(cfg, client)
		require.NoError(t, err)
		assert.Equal(t, DriverRedis, m.Driver())

		first := buildRouterForTest(t, cfg, client)
		second := buildRouterForTest(t, cfg, client)

		require.Equal(t, http.StatusOK, doReq(first, "/t", "3.3.3.3").Code)
		require.Equal(t, http.StatusTooManyRequests, doReq(second, "/t", "3.3.3.3").Code)
		assert.NotEmpty(t, mr.Keys())
	})

	t.Run("Should connect with NewRedisClient", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := NewRedisClient(context.Background(), &Config{RedisAddr: mr.Addr()})

		require.NoError(t, err)
		require.NotNil(t, client)
		_ = client.Close()
	})

	t.Run("Should return nil without an address", func(t *testing.T) {
		client, err := NewRedisClient(context.Background(), &Config{})

		require.NoError(t, err)
		assert.Nil(t, client)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Should reject non-positive limits", func(t *testing.T) {
		_, err := NewManager(&Config{Limit: 0, Period: time.Minute}, nil)
		require.Error(t, err)
		_, err = NewManager(&Config{Limit: 1}, nil)
		require.Error(t, err)
	})

	t.Run("Should default to the memory driver", func(t *testing.T) {
		m, err := NewManager(nil, nil)

		require.NoError(t, err)
		assert.Equal(t, DriverMemory, m.Driver())
	})
}
