package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/otel/metric"

	"github.com/compozy/helpdesk/engine/infra/server/router"
	"github.com/compozy/helpdesk/pkg/logger"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Manager owns the limiter store and builds the gin middleware.
type Manager struct {
	config  *Config
	limiter *limiter.Limiter
	driver  string
}

// NewManager creates a limiter backed by redis when a client is given and by
// process memory otherwise.
func NewManager(cfg *Config, redisClient *redis.Client) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := limiter.StoreOptions{Prefix: cfg.Prefix, MaxRetry: cfg.MaxRetry}
	var (
		store  limiter.Store
		driver = DriverMemory
		err    error
	)
	if redisClient != nil {
		store, err = sredis.NewStoreWithOptions(redisClient, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
		driver = DriverRedis
	} else {
		store = memory.NewStoreWithOptions(opts)
	}
	return &Manager{
		config:  cfg,
		limiter: limiter.New(store, cfg.Rate()),
		driver:  driver,
	}, nil
}

// NewManagerWithMetrics is NewManager with the block counter registered on meter.
func NewManagerWithMetrics(
	ctx context.Context,
	cfg *Config,
	redisClient *redis.Client,
	meter metric.Meter,
) (*Manager, error) {
	if meter != nil {
		if err := InitMetrics(meter); err != nil {
			logger.FromContext(ctx).Warn("Failed to initialize rate limit metrics", "error", err)
		}
	}
	return NewManager(cfg, redisClient)
}

// NewRedisClient connects to the configured redis server, or returns nil when
// no address is set.
func NewRedisClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// Driver reports which store backs the limiter.
func (m *Manager) Driver() string {
	return m.driver
}

// Middleware limits requests per client IP and skips excluded paths.
func (m *Manager) Middleware() gin.HandlerFunc {
	limited := mgin.NewMiddleware(
		m.limiter,
		mgin.WithLimitReachedHandler(m.limitReached),
		mgin.WithErrorHandler(m.limiterError),
	)
	return func(c *gin.Context) {
		if slices.Contains(m.config.ExcludedPaths, c.Request.URL.Path) {
			c.Next()
			return
		}
		limited(c)
	}
}

func (m *Manager) limitReached(c *gin.Context) {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	recordBlocked(c.Request.Context(), route, m.driver)
	router.RespondProblemWithCode(
		c,
		http.StatusTooManyRequests,
		router.ErrTooManyRequestsCode,
		"Rate limit exceeded, retry later",
	)
}

// limiterError lets the request through when the store is unreachable.
func (m *Manager) limiterError(c *gin.Context, err error) {
	recordStoreError(c.Request.Context(), m.driver)
	logger.FromContext(c.Request.Context()).Error("Rate limiter store failed", "driver", m.driver, "error", err)
	c.Next()
}
