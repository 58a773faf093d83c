package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/compozy/helpdesk/engine/helpdesk"
	"github.com/compozy/helpdesk/engine/infra/monitoring"
	"github.com/compozy/helpdesk/engine/infra/server/middleware/ratelimit"
	llmadapter "github.com/compozy/helpdesk/engine/llm/adapter"
	"github.com/compozy/helpdesk/pkg/config"
	"github.com/compozy/helpdesk/pkg/logger"
)

const (
	monitoringInitTimeout     = 500 * time.Millisecond
	monitoringShutdownTimeout = 5 * time.Second
	serverShutdownTimeout     = 5 * time.Second
	redisConnectTimeout       = 3 * time.Second
	httpReadTimeout           = 15 * time.Second
	httpIdleTimeout           = 60 * time.Second
	writeTimeoutMargin        = 5 * time.Second
	hostAny                   = "0.0.0.0"
	hostLoopback              = "127.0.0.1"
)

type Server struct {
	cfg          *config.Config
	ctx          context.Context
	cancel       context.CancelFunc
	router       *gin.Engine
	monitoring   *monitoring.Service
	redisClient  *redis.Client
	deps         *helpdesk.Dependencies
	httpServer   *http.Server
	shutdownOnce sync.Once
	cleanupMu    sync.Mutex
	cleanups     []func()
}

// NewServer reads its configuration from ctx, falling back to the defaults.
func NewServer(ctx context.Context) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("server: context is required")
	}
	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{cfg: config.FromContext(serverCtx), ctx: serverCtx, cancel: cancel}, nil
}

// Run wires every dependency, serves HTTP and blocks until SIGINT or SIGTERM
// or until the parent context is cancelled.
func (s *Server) Run() error {
	if err := s.setupDependencies(); err != nil {
		s.cleanup()
		return err
	}
	defer s.cleanup()
	s.buildRouter()
	return s.startAndRunServer()
}

// Handler returns the assembled router. It is nil until Run or Prepare.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Prepare wires dependencies and builds the router without listening.
func (s *Server) Prepare() error {
	if err := s.setupDependencies(); err != nil {
		s.cleanup()
		return err
	}
	s.buildRouter()
	return nil
}

// Close releases everything Prepare acquired.
func (s *Server) Close() {
	s.cleanup()
}

func (s *Server) setupDependencies() error {
	log := logger.FromContext(s.ctx)
	s.setupMonitoring()
	if err := s.setupRedis(); err != nil {
		log.Warn("Rate limiter falling back to in-memory store", "error", err)
	}
	var usage llmadapter.UsageRecorder
	if recorder := s.monitoring.LLMUsage(); recorder != nil {
		usage = recorder
	}
	if unused := unusedDeliverySettings(&s.cfg.Helpdesk); len(unused) > 0 {
		log.Warn("Email delivery settings configured but unused; escalation only drafts emails", "settings", unused)
	}
	deps, err := helpdesk.Build(s.ctx, s.cfg, usage)
	if err != nil {
		return fmt.Errorf("failed to build helpdesk service: %w", err)
	}
	s.deps = deps
	s.addCleanup(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), serverShutdownTimeout)
		defer cancel()
		if err := deps.Close(ctx); err != nil {
			log.Error("Failed to close helpdesk dependencies", "error", err)
		}
	})
	return nil
}

func (s *Server) setupMonitoring() {
	log := logger.FromContext(s.ctx)
	start := time.Now()
	monitoringCtx, cancel := context.WithTimeout(s.ctx, monitoringInitTimeout)
	defer cancel()
	s.monitoring = monitoring.NewMonitoringServiceWithFallback(
		monitoringCtx,
		monitoring.FromAppConfig(s.cfg.Monitoring),
	)
	if !s.monitoring.IsInitialized() {
		return
	}
	s.monitoring.SetAsGlobal()
	log.Debug("Monitoring ready", "path", s.monitoring.Path(), "duration", time.Since(start))
	s.addCleanup(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), monitoringShutdownTimeout)
		defer cancel()
		if err := s.monitoring.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown monitoring", "error", err)
		}
	})
}

func (s *Server) setupRedis() error {
	if !s.cfg.RateLimit.Enabled || s.cfg.RateLimit.RedisAddr == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(s.ctx, redisConnectTimeout)
	defer cancel()
	client, err := ratelimit.NewRedisClient(ctx, convertRateLimitConfig(s.cfg, ""))
	if err != nil {
		return err
	}
	s.redisClient = client
	s.addCleanup(func() {
		if err := client.Close(); err != nil {
			logger.FromContext(s.ctx).Error("Failed to close redis client", "error", err)
		}
	})
	return nil
}

func (s *Server) addCleanup(fn func()) {
	s.cleanupMu.Lock()
	s.cleanups = append(s.cleanups, fn)
	s.cleanupMu.Unlock()
}

// cleanup runs registered cleanups in reverse order, once.
func (s *Server) cleanup() {
	s.cleanupMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupMu.Unlock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// unusedDeliverySettings names the sending options that are set even though
// nothing is ever sent.
func unusedDeliverySettings(cfg *config.HelpdeskConfig) []string {
	var unused []string
	if cfg.SendRealEmails {
		unused = append(unused, "send_real_emails")
	}
	if cfg.SenderEmail != "" {
		unused = append(unused, "sender_email")
	}
	if cfg.SenderPassword != "" {
		unused = append(unused, "sender_password")
	}
	return unused
}

func (s *Server) createHTTPServer() *http.Server {
	var writeTimeout time.Duration
	if s.cfg.Server.Timeout > 0 {
		writeTimeout = s.cfg.Server.Timeout + writeTimeoutMargin
	}
	return &http.Server{
		Addr:              s.cfg.Server.FullAddress(),
		Handler:           s.router,
		ReadHeaderTimeout: httpReadTimeout,
		ReadTimeout:       httpReadTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       httpIdleTimeout,
	}
}

func (s *Server) startAndRunServer() error {
	log := logger.FromContext(s.ctx)
	s.httpServer = s.createHTTPServer()
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logStartupBanner()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-quit:
		log.Debug("Received shutdown signal, initiating graceful shutdown")
	case <-s.ctx.Done():
		log.Debug("Server context cancelled, initiating graceful shutdown")
	}
	return s.Shutdown()
}

// Shutdown stops accepting requests and drains in-flight ones.
func (s *Server) Shutdown() error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cancel()
		if s.httpServer == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown failed: %w", err)
			return
		}
		logger.FromContext(s.ctx).Info("Server shutdown completed successfully")
	})
	return shutdownErr
}
