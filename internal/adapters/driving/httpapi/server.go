// Package httpapi exposes the trigger and CRUD endpoints over HTTP with echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// shutdownTimeout bounds graceful shutdown once the serve context ends.
const shutdownTimeout = 5 * time.Second

// HealthChecker reports whether a backend is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// Ports holds the services the HTTP surface drives.
type Ports struct {
	Documents driving.DocumentService
	Ingestion driving.IngestionService
	Chat      driving.ChatService

	// Vectors is optional. Without it /health reports vectorIndex=false.
	Vectors HealthChecker
}

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address (default: ":3001").
	Addr string

	// AllowOrigins lists CORS origins (default: all).
	AllowOrigins []string

	// BodyLimit caps request bodies, in echo's size notation (default: "32M").
	BodyLimit string
}

// Server is the echo application serving the API.
type Server struct {
	echo  *echo.Echo
	ports Ports
	cfg   Config
}

// New creates a server with every route registered.
func New(ports Ports, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":3001"
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "32M"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handleError

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowOrigins}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	s := &Server{echo: e, ports: ports, cfg: cfg}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.health)
	s.echo.POST("/process/:documentId", s.process)
	s.echo.POST("/chat", s.chat)

	docs := s.echo.Group("/documents")
	docs.POST("", s.uploadDocument)
	docs.GET("", s.listDocuments)
	docs.GET("/:id", s.getDocument)
	docs.GET("/:id/chunks", s.documentChunks)
	docs.DELETE("/:id", s.deleteDocument)

	sessions := s.echo.Group("/sessions")
	sessions.POST("", s.createSession)
	sessions.GET("", s.listSessions)
	sessions.GET("/:id/messages", s.sessionMessages)
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", s.cfg.Addr)
		errCh <- s.echo.Start(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
