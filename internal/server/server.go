package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
	loggerpkg "github.com/stacklog/stacklog/internal/pkg/logger"
	svcpkg "github.com/stacklog/stacklog/internal/pkg/svc"
)

// Engine evaluates log queries and administers the unit registry.
type Engine interface {
	Evaluate(ctx context.Context, query logsmodel.Query) (*logsmodel.LogResult, error)
	CreateUnit(ctx context.Context, name string) (*logsmodel.Unit, error)
	ListUnits(ctx context.Context) ([]*logsmodel.Unit, error)
}

// Config represents the configuration of the HTTP server.
type Config struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	RequestBodyLimit  int64
	CORSAllowedOrigin string
	PollInterval      time.Duration
}

// Server implements the HTTP server.
type Server struct {
	logger            *zap.Logger
	tp                trace.Tracer
	engine            Engine
	httpServer        *http.Server
	requestBodyLimit  int64
	corsAllowedOrigin string
	pollInterval      time.Duration
}

// New creates a new HTTP server.
func New(ctx context.Context, cfg *Config, engine Engine) *Server {
	srv := &Server{
		logger: loggerpkg.FromContext(ctx),
		tp:     otel.Tracer(svcpkg.Info().GetName()),
		engine: engine,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			// WriteTimeout is deliberately unset: /logs/stream holds the
			// response open for the lifetime of the client connection.
		},
		requestBodyLimit:  cfg.RequestBodyLimit,
		corsAllowedOrigin: cfg.CORSAllowedOrigin,
		pollInterval:      cfg.PollInterval,
	}

	router := http.NewServeMux()
	srv.registerRoutes(router)
	srv.httpServer.Handler = srv.withOtelMiddleware(
		srv.withCORSMiddleware(
			srv.withCompressionMiddleware(router),
		),
	)
	return srv
}

// registerRoutes registers the HTTP routes.
func (s *Server) registerRoutes(router *http.ServeMux) {
	router.HandleFunc(
		"GET /healthz",
		s.handleHealthz,
	)
	router.HandleFunc(
		"GET /v1/units/{unit_id}/logs",
		s.handleTailLogs,
	)
	router.HandleFunc(
		"GET /v1/units/{unit_id}/logs/search",
		s.handleSearchLogs,
	)
	router.HandleFunc(
		"GET /v1/units/{unit_id}/logs/stream",
		s.handleStreamLogs,
	)
	router.HandleFunc(
		"POST /v1/units",
		s.withRequestBodyLimitMiddleware(
			s.handleCreateUnit,
		),
	)
	router.HandleFunc(
		"GET /v1/units",
		s.handleListUnits,
	)
}

// Start starts the HTTP server and blocks until a shutdown signal arrives.
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
			os.Exit(1)
		}
	}()

	sig := <-sigChan
	fmt.Fprintf(os.Stdout, "Received signal: %v\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server shutdown failed: %v\n", err)
		return err
	}

	fmt.Fprintf(os.Stdout, "Server gracefully stopped")
	return nil
}
