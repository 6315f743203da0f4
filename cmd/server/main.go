package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-portfolio-tracker/internal/config"
	"solana-portfolio-tracker/internal/display"
	"solana-portfolio-tracker/internal/handlers"
	"solana-portfolio-tracker/internal/middleware"
	"solana-portfolio-tracker/internal/scheduler"
	"solana-portfolio-tracker/internal/services"
	"solana-portfolio-tracker/pkg/logger"
	"solana-portfolio-tracker/pkg/metrics"
	"solana-portfolio-tracker/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName     = "solana-portfolio-tracker"
	serviceVersion  = "1.0.0"
	shutdownTimeout = 30 * time.Second
	slowRequest     = 2 * time.Second
	maxRequestBody  = 1 << 20
)

// tokenSource is the Solana RPC side of the server
type tokenSource interface {
	services.TokenAccountSource
	services.HealthChecker
}

// priceSource is the price API side of the server
type priceSource interface {
	services.PriceSource
	services.HealthChecker
}

// Server represents the main application server
type Server struct {
	httpServer       *http.Server
	engine           *gin.Engine
	config           *config.Config
	tokens           tokenSource
	prices           priceSource
	portfolioService *services.PortfolioService
	controller       *display.Controller
	scheduler        *scheduler.Scheduler
	metrics          *metrics.MetricsCollector
	rateLimiter      *ratelimiter.RateLimiter
	upstreams        *services.UpstreamHealthChecker
	router           *handlers.Router

	displayCancel context.CancelFunc
	displayDone   chan struct{}
}

func main() {
	cfg := config.LoadConfig()

	loggerConfig := &logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		OutputPaths: cfg.Logging.OutputPaths,
	}

	if err := logger.Initialize(loggerConfig); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.GetLogger()

	log.Info("Starting Solana portfolio tracker",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("rpc_endpoint", cfg.RPC.Endpoint),
		zap.String("price_api", cfg.Price.BaseURL),
		zap.Strings("wallets", cfg.Portfolio.Wallets),
		zap.Float64("goal", cfg.Portfolio.Goal),
		zap.Duration("poll_interval", cfg.Display.PollInterval),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("environment", cfg.Logging.Environment),
	)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		log.Fatal("Server failed to start", zap.Error(err))
	}
}

// NewServer creates a server backed by the real Solana RPC and DexScreener clients
func NewServer(cfg *config.Config) *Server {
	log := logger.GetLogger()

	log.Debug("Initializing Solana RPC client")
	solanaClient := services.NewSolanaClient(&cfg.RPC)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RPC.Timeout)
	defer cancel()
	if err := solanaClient.IsHealthy(ctx); err != nil {
		log.Warn("Solana RPC health check failed", zap.Error(err))
	} else {
		log.Info("Solana RPC connection healthy")
	}

	log.Debug("Initializing price client")
	priceClient := services.NewDexScreenerClient(&cfg.Price)

	return newServer(cfg, solanaClient, priceClient)
}

// newServer wires every component around the given upstream clients
func newServer(cfg *config.Config, tokens tokenSource, prices priceSource) *Server {
	log := logger.GetLogger()

	log.Info("Initializing server components")

	mc := metrics.NewMetricsCollector()
	sched := scheduler.New(log)

	portfolioService := services.NewPortfolioService(tokens, prices, cfg, mc)

	fetcher := display.NewHTTPValueFetcher(cfg.Display.Endpoint, cfg.Display.FetchTimeout)
	controller := display.NewController(fetcher, sched, cfg, mc, log)

	upstreams := services.NewUpstreamHealthChecker()
	upstreams.Register(services.UpstreamSolanaRPC, tokens, true)
	upstreams.Register(services.UpstreamPriceAPI, prices, false)

	s := &Server{
		config:           cfg,
		tokens:           tokens,
		prices:           prices,
		portfolioService: portfolioService,
		controller:       controller,
		scheduler:        sched,
		metrics:          mc,
		rateLimiter:      ratelimiter.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		upstreams:        upstreams,
		router:           handlers.NewRouter(portfolioService, controller, handlers.NewHealthHandler(upstreams)),
	}

	s.engine = gin.New()
	s.setupMiddleware(s.engine)
	s.setupRoutes(s.engine)

	log.Info("Server components initialized successfully")
	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves HTTP, starts the background jobs and the display, and blocks
// until a shutdown signal arrives
func (s *Server) Start() error {
	log := logger.GetLogger()

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(s.config.Server.Host, s.config.Server.Port),
		Handler:           s.engine,
		ReadTimeout:       s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
		TLSNextProto:      make(map[string]func(*http.Server, *tls.Conn, http.Handler)),
	}

	log.Info("HTTP server configured",
		zap.String("address", s.httpServer.Addr),
		zap.Duration("read_timeout", s.config.Server.ReadTimeout),
		zap.Duration("write_timeout", s.config.Server.WriteTimeout),
		zap.Duration("idle_timeout", s.config.Server.IdleTimeout),
	)

	// Listen before mounting the display so its first fetch can reach us.
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	if err := s.startBackground(); err != nil {
		return err
	}

	return s.waitForShutdown()
}

// startBackground starts the scheduler, its maintenance jobs and the display controller
func (s *Server) startBackground() error {
	log := logger.GetLogger()

	s.scheduler.Start()

	interval := s.config.RateLimit.CleanupInterval
	if _, err := s.scheduler.Every("rate_limiter_cleanup", interval, func() {
		s.rateLimiter.Cleanup(interval)
	}); err != nil {
		return fmt.Errorf("failed to schedule rate limiter cleanup: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.displayCancel = cancel
	s.displayDone = make(chan struct{})
	go func() {
		defer close(s.displayDone)
		if err := s.controller.Run(ctx); err != nil {
			log.Error("Display controller stopped", zap.Error(err))
		}
	}()

	log.Info("Background routines started")
	return nil
}

// setupMiddleware configures the middleware stack
func (s *Server) setupMiddleware(engine *gin.Engine) {
	log := logger.GetLogger()

	log.Debug("Setting up middleware stack")

	// Recovery middleware with structured logging (should be first)
	engine.Use(logger.RecoveryMiddleware())

	// Structured logging middleware with correlation IDs
	engine.Use(logger.LoggingMiddleware())

	engine.Use(middleware.PerformanceMiddleware(slowRequest))
	engine.Use(middleware.RequestSizeMiddleware(maxRequestBody))
	engine.Use(middleware.MetricsMiddleware(s.metrics))
	engine.Use(middleware.ConcurrencyMiddleware(s.metrics))

	engine.Use(s.corsMiddleware())

	engine.Use(s.rateLimiter.Middleware())

	log.Debug("Middleware stack configured")
}

// setupRoutes configures all application routes
func (s *Server) setupRoutes(engine *gin.Engine) {
	s.router.SetupHealthRoutes(engine)
	s.router.SetupRoutes(engine)

	engine.GET("/metrics", s.metricsHandler)
	engine.GET("/status", s.statusHandler)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// metricsHandler reports the collected counters
func (s *Server) metricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":              serviceName,
		"version":              serviceVersion,
		"uptime":               s.metrics.GetUptime().String(),
		"metrics":              s.metrics.GetMetrics(),
		"success_rate":         s.metrics.GetSuccessRate(),
		"price_cache_hit_rate": s.metrics.GetPriceCacheHitRatio(),
		"portfolio":            s.portfolioService.GetStats(),
		"rate_limited_clients": s.rateLimiter.Size(),
	})
}

// statusHandler reports the service, display and upstream state
func (s *Server) statusHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	rpcHealthy := s.tokens.IsHealthy(ctx) == nil
	snap := s.controller.Snapshot()

	status := gin.H{
		"service":     serviceName,
		"status":      "running",
		"rpc_healthy": rpcHealthy,
		"uptime":      s.metrics.GetUptime().String(),
		"version":     serviceVersion,
		"jobs":        s.scheduler.Jobs(),
		"display": gin.H{
			"running":      s.controller.Running(),
			"loading":      snap.Loading,
			"value":        snap.Value,
			"goal_reached": snap.GoalReached,
			"updated_at":   snap.UpdatedAt,
		},
	}
	if valuation := s.portfolioService.LastValuation(); valuation != nil {
		status["wallets"] = valuation.Wallets
	}

	c.JSON(http.StatusOK, status)
}

// waitForShutdown waits for interrupt signal and performs graceful shutdown
func (s *Server) waitForShutdown() error {
	log := logger.GetLogger()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	return s.Shutdown()
}

// Shutdown unmounts the display, drains HTTP and stops every background job
func (s *Server) Shutdown() error {
	log := logger.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.stopDisplay(ctx)

	if s.httpServer != nil {
		log.Info("Shutting down HTTP server", zap.Duration("timeout", shutdownTimeout))
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
			s.cleanup()
			return err
		}
	}

	s.cleanup()

	log.Info("Server gracefully stopped")
	return nil
}

func (s *Server) stopDisplay(ctx context.Context) {
	if s.displayCancel == nil {
		return
	}
	s.displayCancel()
	select {
	case <-s.displayDone:
	case <-ctx.Done():
		logger.GetLogger().Warn("Display controller did not stop in time")
	}
}

// cleanup performs cleanup of all services
func (s *Server) cleanup() {
	log := logger.GetLogger()

	log.Info("Cleaning up services...")

	s.scheduler.Stop()
	s.portfolioService.Stop()

	if err := logger.GetLogger().Sync(); err != nil {
		// Don't log this error as logger might be closed
		fmt.Printf("Error syncing logger: %v\n", err)
	}

	log.Info("Cleanup completed")
}
