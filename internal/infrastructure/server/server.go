package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sortcall/internal/api/http"
	"github.com/GriffinCanCode/sortcall/internal/api/middleware"
	"github.com/GriffinCanCode/sortcall/internal/infrastructure/config"
	"github.com/GriffinCanCode/sortcall/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sortcall/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sortcall/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/sortcall/internal/kernel/heartbeat"
	"github.com/GriffinCanCode/sortcall/internal/kernel/kmem"
	"github.com/GriffinCanCode/sortcall/internal/kernel/proc"
	"github.com/GriffinCanCode/sortcall/internal/kernel/syscall"
	"github.com/GriffinCanCode/sortcall/internal/shared/utils"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *nethttp.Server
	procs      *proc.Table
	arena      *kmem.Arena
	dispatcher *syscall.Dispatcher
	heartbeat  *heartbeat.Timer
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
	}

	logger.Info("Initializing sortcall server",
		zap.String("addr", cfg.Addr()),
		zap.Uint64("arena_bytes", cfg.Kernel.ArenaBytes),
		zap.Int("max_processes", cfg.Kernel.MaxProcesses),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	tracer := tracing.New("sortcall", logger.Logger)

	arena := kmem.NewArena(cfg.Kernel.ArenaBytes)
	procs := proc.NewTable(cfg.Kernel.MaxProcessMemory, cfg.Kernel.MaxProcesses)
	dispatcher := syscall.NewDispatcher(procs, arena, syscall.Options{
		Logger:  logger.Logger,
		Metrics: metrics,
		Tracer:  tracer,
	})
	metrics.SetArenaStats(arena.Stats())

	var hb *heartbeat.Timer
	if cfg.Heartbeat.Enabled {
		hb = heartbeat.New(cfg.Heartbeat.Interval(), logger.Logger, metrics)
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.BodyLimit(utils.MaxJSONSize))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := http.NewHandlers(procs, dispatcher, hb, metrics, logger.Logger)
	handlers.Register(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	var handler nethttp.Handler = router
	if cfg.Server.Compress {
		handler = gzhttp.GzipHandler(router)
	}

	logger.Info("Server initialized successfully",
		zap.Int("syscalls", len(dispatcher.Syscalls())),
		zap.Bool("heartbeat", hb != nil),
		zap.Bool("compress", cfg.Server.Compress),
	)

	return &Server{
		router: router,
		httpServer: &nethttp.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		procs:      procs,
		arena:      arena,
		dispatcher: dispatcher,
		heartbeat:  hb,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}, nil
}

// Handler returns the root handler, compression included.
func (s *Server) Handler() nethttp.Handler {
	return s.httpServer.Handler
}

// Dispatcher returns the syscall dispatcher.
func (s *Server) Dispatcher() *syscall.Dispatcher {
	return s.dispatcher
}

// Run starts the heartbeat and serves HTTP until Shutdown is called.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.heartbeat != nil {
		if err := s.heartbeat.Start(ctx); err != nil {
			ln.Close()
			return fmt.Errorf("start heartbeat: %w", err)
		}
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.logger.Error("HTTP shutdown did not complete", zap.Error(err))
	}

	if s.heartbeat != nil {
		s.heartbeat.Stop()
	}

	for _, p := range s.procs.List() {
		if kerr := s.procs.Kill(p.PID); kerr != nil && !errors.Is(kerr, proc.ErrNoSuchProcess) {
			s.logger.Warn("Failed to reap process", logging.PID(p.PID), zap.Error(kerr))
		}
	}

	stats := s.arena.Stats()
	if stats.Live != 0 || stats.DoubleFrees != 0 {
		s.logger.Error("Arena not balanced at shutdown",
			zap.Uint64("live", stats.Live),
			zap.Uint64("double_frees", stats.DoubleFrees),
		)
	}

	s.tracer.Close()

	// Sync logger before exit
	_ = s.logger.Sync()

	return err
}
