package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/jjudge-oj/useradmin/config"
	"github.com/jjudge-oj/useradmin/internal/console"
	"github.com/jjudge-oj/useradmin/internal/handlers"
)

const initialLoadTimeout = 30 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	deps       *Deps
	console    *console.Console
}

// New wires the backends, performs the initial user load and builds the
// router. A failed initial load is reported to the operator and does not
// stop the server.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	deps, err := Wire(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger = deps.Logger

	c := console.New(deps.Users, console.Options{
		Notifier: console.Notifiers(
			console.LogNotifier(logger.Named("notice")),
			console.MetricsNotifier(deps.Metrics),
		),
		Auditor:               deps.auditor(),
		Logger:                logger.Named("console"),
		RefreshOnFailedDelete: cfg.RefreshOnFailedDelete,
	})

	loadCtx, cancel := context.WithTimeout(ctx, initialLoadTimeout)
	defer cancel()
	if err := c.Refresh(loadCtx); err != nil {
		logger.Warn("initial user load failed", zap.Error(err))
	}

	router := NewRouter(cfg, deps, c)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		deps:       deps,
		console:    c,
	}, nil
}

// NewRouter builds the chi router serving the console API.
func NewRouter(cfg config.Config, deps *Deps, c *console.Console) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	router.Route("/console", func(r chi.Router) {
		handlers.ConsoleRouter(r, c, deps.Reports, deps.Logger.Named("http"))
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Console exposes the console driven by the server.
func (s *Server) Console() *console.Console {
	return s.console
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.deps.Logger.Info("console server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if closeErr := s.deps.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	_ = s.deps.Logger.Sync()
	return err
}
