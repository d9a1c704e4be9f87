package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/jsonrender/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/patch"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/tracing"
)

const (
	minPruneInterval = time.Second
	shutdownTimeout  = 10 * time.Second
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions *session.Manager
	breaker  *resilience.Breaker
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics

	stopPruner context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return New(cfg, logger)
}

// New creates a server around an existing logger; nil discards logs
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Info("Initializing jsonrender server",
		zap.String("port", cfg.Server.Port),
		zap.String("generator", string(cfg.Generator.Kind())),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("jsonrender", logger.Logger)

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		tracer.Close()
		return nil, err
	}
	logger.Info("Catalog loaded",
		zap.Int("components", cat.Len()),
		zap.String("path", cfg.Catalog.Path),
	)

	gen, breaker, err := newGenerator(cfg.Generator, cat, logger.Logger)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	var sessions *session.Manager
	sessions = session.NewManager(cat, traced(gen, tracer), logger.Logger,
		session.WithMaxLineBytes(cfg.Stream.MaxLineBytes),
		session.WithObserver(session.Observer{
			Started: func(*session.Session, session.Input) {
				metrics.RecordGenerationStarted()
				metrics.SetSessionsActive(sessions.Stats().Total)
			},
			Finished: func(_ *session.Session, state ingest.State, _ ingest.Stats, d time.Duration) {
				metrics.RecordGenerationFinished(string(state), d)
			},
			Applied: func(*session.Session, patch.Patch) {
				metrics.RecordPatchApplied()
			},
			Rejected: func(_ *session.Session, rej tree.Rejection) {
				metrics.RecordPatchRejected(string(rej.Kind))
			},
		}),
	)
	sessions.OnRemove(func(string) {
		metrics.SetSessionsActive(sessions.Stats().Total)
	})

	pruneCtx, stopPruner := context.WithCancel(context.Background())
	if ttl := cfg.Stream.IdleTTL; ttl > 0 {
		go sessions.RunPruner(pruneCtx, max(ttl/4, minPruneInterval), ttl)
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Logger))
	router.Use(middleware.Recovery(logger.Logger))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	// Register routes
	handlers := apihttp.NewHandlers(sessions, metrics, breaker, logger.Logger)
	handlers.Register(router)
	wsHandler := ws.NewHandler(sessions, metrics, logger.Logger)
	router.GET("/stream", wsHandler.HandleConnection)

	logger.Info("Server initialized successfully")

	httpServer := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		router:     router,
		http:       httpServer,
		sessions:   sessions,
		breaker:    breaker,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
		stopPruner: stopPruner,
	}, nil
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.Path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %q: %w", cfg.Path, err)
	}
	return cat, nil
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}

// Close releases every resource: running generations are cancelled and
// buffered spans flushed
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	s.stopPruner()
	s.sessions.Close()
	s.tracer.Close()

	// Sync logger before exit
	s.logger.Sync()

	return err
}
