package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/filemanager/internal/api/http"
	"github.com/GriffinCanCode/filemanager/internal/api/middleware"
	"github.com/GriffinCanCode/filemanager/internal/domain/credentials"
	"github.com/GriffinCanCode/filemanager/internal/domain/session"
	"github.com/GriffinCanCode/filemanager/internal/infrastructure/config"
	"github.com/GriffinCanCode/filemanager/internal/infrastructure/logging"
	"github.com/GriffinCanCode/filemanager/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/filemanager/internal/providers/auth"
	"github.com/GriffinCanCode/filemanager/internal/providers/filesystem"
	"github.com/GriffinCanCode/filemanager/internal/shared/paths"
)

const readHeaderTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	guard    *auth.Guard
	sessions *session.MemoryStore
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance. The credential store is
// bootstrapped with the default account when it does not exist yet.
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger, version string) (*Server, error) {
	logger.Info("Initializing file manager",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("root", cfg.Storage.Root),
		zap.Bool("strict_symlinks", cfg.Storage.StrictSymlinks),
	)

	if err := os.MkdirAll(cfg.Storage.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare storage root: %w", err)
	}
	sandbox, err := paths.New(cfg.Storage.Root, paths.WithStrictSymlinks(cfg.Storage.StrictSymlinks))
	if err != nil {
		return nil, fmt.Errorf("failed to open sandbox: %w", err)
	}

	usersFile, err := filepath.Abs(cfg.Storage.UsersFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users file: %w", err)
	}
	if _, err := os.ReadDir(filepath.Dir(usersFile)); err != nil {
		return nil, fmt.Errorf("users file directory is unreadable: %w", err)
	}
	accounts := credentials.NewFileStore(usersFile)

	sessions := session.NewMemoryStore(cfg.Session.TTL)
	guard, err := auth.NewGuard(accounts, sessions,
		auth.WithCost(cfg.Auth.BcryptCost),
		auth.WithLogger(logger.Logger),
	)
	if err != nil {
		return nil, err
	}
	if _, err := guard.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("failed to bootstrap credentials: %w", err)
	}

	ops, err := filesystem.NewOps(sandbox,
		filesystem.WithReserved(accounts.Path(), accounts.LockPath()),
		filesystem.WithHidden(cfg.Storage.Hidden...),
		filesystem.WithMaxUploadSize(cfg.Storage.MaxUploadSize),
		filesystem.WithPreviewLimit(cfg.Storage.PreviewMaxSize),
		filesystem.WithLogger(logger.Logger),
	)
	if err != nil {
		return nil, err
	}
	archives := filesystem.NewArchiveEngine(ops)

	metrics := monitoring.NewMetrics()
	metrics.TrackSessions(sessions.Count)

	dispatcher := apihttp.NewDispatcher(guard, ops, archives,
		apihttp.WithMetrics(metrics),
		apihttp.WithLogger(logger.Logger),
		apihttp.WithCookie(apihttp.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			MaxAge: cfg.Session.TTL,
		}),
	)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger.Logger))
	router.Use(monitoring.Middleware(metrics))
	if cfg.CORS.Enabled() {
		logger.Info("CORS enabled", zap.Strings("origins", cfg.CORS.Origins))
		router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.Origins)))
	}

	// Register routes
	router.GET("/", apihttp.Root(version))
	router.GET("/health", apihttp.Health(guard.ActiveSessions))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	dispatcher.Register(router)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		guard:    guard,
		sessions: sessions,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx, s.config.Session.SweepInterval)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return s.Shutdown()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
		return fmt.Errorf("failed to shut down: %w", err)
	}

	_ = s.logger.Sync()
	return nil
}
