package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	helpdeskrouter "github.com/compozy/helpdesk/engine/helpdesk/router"
	"github.com/compozy/helpdesk/engine/infra/monitoring"
	"github.com/compozy/helpdesk/engine/infra/server/middleware/ratelimit"
	"github.com/compozy/helpdesk/engine/infra/server/router"
	"github.com/compozy/helpdesk/engine/infra/server/routes"
	"github.com/compozy/helpdesk/pkg/config"
	"github.com/compozy/helpdesk/pkg/logger"
	"github.com/compozy/helpdesk/pkg/version"
)

func convertRateLimitConfig(cfg *config.Config, metricsPath string) *ratelimit.Config {
	out := ratelimit.DefaultConfig()
	if cfg.RateLimit.Limit > 0 {
		out.Limit = cfg.RateLimit.Limit
	}
	if cfg.RateLimit.Period > 0 {
		out.Period = cfg.RateLimit.Period
	}
	if cfg.RateLimit.Prefix != "" {
		out.Prefix = cfg.RateLimit.Prefix
	}
	out.RedisAddr = cfg.RateLimit.RedisAddr
	out.RedisPassword = cfg.RateLimit.RedisPassword.Value()
	out.RedisDB = cfg.RateLimit.RedisDB
	if metricsPath != "" && !containsPath(out.ExcludedPaths, metricsPath) {
		out.ExcludedPaths = append(out.ExcludedPaths, metricsPath)
	}
	return out
}

func containsPath(paths []string, path string) bool {
	for _, p := range paths {
		if p == path {
			return true
		}
	}
	return false
}

// NewRouter assembles the HTTP surface. mon and limiter may be nil.
func NewRouter(
	ctx context.Context,
	cfg *config.Config,
	svc helpdeskrouter.Service,
	mon *monitoring.Service,
	limiter *ratelimit.Manager,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(router.RequestID(logger.FromContext(ctx)))
	if limiter != nil {
		r.Use(limiter.Middleware())
	}
	metricsPath := ""
	if mon != nil && mon.IsInitialized() {
		r.Use(mon.GinMiddleware())
		metricsPath = mon.Path()
	}
	r.Use(LoggerMiddleware())
	if cfg.Server.CORS.Enabled {
		r.Use(CORSMiddleware(cfg.Server.CORS))
	}
	r.Use(TimeoutMiddleware(cfg.Server.Timeout))
	r.Use(router.ErrorHandler())
	if metricsPath != "" {
		r.GET(metricsPath, gin.WrapH(mon.ExporterHandler()))
	}
	handlers := helpdeskrouter.NewHandlers(svc, cfg.Helpdesk.ServiceName, metricsPath)
	helpdeskrouter.Register(r, handlers)
	r.NoRoute(func(c *gin.Context) {
		router.RespondProblemWithCode(c, http.StatusNotFound, router.ErrNotFoundCode,
			fmt.Sprintf("route %s %s not found", c.Request.Method, c.Request.URL.Path))
	})
	return r
}

func (s *Server) buildRouter() {
	cfg := s.cfg
	log := logger.FromContext(s.ctx)
	var limiter *ratelimit.Manager
	if cfg.RateLimit.Enabled && cfg.RateLimit.Limit > 0 {
		rateLimitConfig := convertRateLimitConfig(cfg, s.monitoring.Path())
		var err error
		if s.monitoring.IsInitialized() {
			limiter, err = ratelimit.NewManagerWithMetrics(s.ctx, rateLimitConfig, s.redisClient, s.monitoring.Meter())
		} else {
			limiter, err = ratelimit.NewManager(rateLimitConfig, s.redisClient)
		}
		if err != nil {
			log.Error("Failed to initialize rate limiting", "error", err)
			limiter = nil
		} else {
			log.Info("Rate limiter initialized",
				"driver", limiter.Driver(),
				"limit", rateLimitConfig.Limit,
				"period", rateLimitConfig.Period)
		}
	}
	s.router = NewRouter(s.ctx, cfg, s.deps.Service, s.monitoring, limiter)
}

func (s *Server) logStartupBanner() {
	log := logger.FromContext(s.ctx)
	httpURL := fmt.Sprintf("http://%s:%d", friendlyHost(s.cfg.Server.Host), s.cfg.Server.Port)
	lines := []string{
		fmt.Sprintf("%s %s", s.cfg.Helpdesk.ServiceName, version.Get().Version),
		fmt.Sprintf("  Chat          > POST %s%s", httpURL, routes.Chat()),
		fmt.Sprintf("  Escalate      > POST %s%s", httpURL, routes.Escalate()),
		fmt.Sprintf("  Health        > %s%s", httpURL, routes.Health()),
	}
	if s.monitoring.IsInitialized() {
		lines = append(lines, fmt.Sprintf("  Metrics       > %s%s", httpURL, s.monitoring.Path()))
	}
	lines = append(lines, fmt.Sprintf("  Collection    > %s (%s)", s.cfg.Qdrant.Collection, s.cfg.Qdrant.Provider))
	log.Info("\n" + strings.Join(lines, "\n"))
}

func friendlyHost(h string) string {
	if h == hostAny || h == "::" || h == "" {
		return hostLoopback
	}
	return h
}
