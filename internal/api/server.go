// Package api exposes repository ingestion over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bull/repo-ingest/internal/indexer"
	"github.com/bull/repo-ingest/internal/repo"
)

// Ingester runs one ingestion and reports its outcome.
type Ingester interface {
	Ingest(ctx context.Context, coord repo.Coordinate, credential string) indexer.Outcome
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server provides the HTTP endpoints.
type Server struct {
	echo     *echo.Echo
	ingester Ingester
	health   HealthChecker
	logger   *slog.Logger
	config   *Config
	now      func() time.Time
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(ingester Ingester, health HealthChecker, logger *slog.Logger, cfg *Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = &Config{Host: "0.0.0.0", Port: 8080}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"duration", time.Since(start),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			return err
		}
	})

	s := &Server{
		echo:     e,
		ingester: ingester,
		health:   health,
		logger:   logger,
		config:   cfg,
		now:      time.Now,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.POST("/api/repo/process/:owner/:repo", s.handleProcess)
}

// Mount serves h for every method at path, e.g. the MCP endpoint.
func (s *Server) Mount(path string, h http.Handler) {
	s.echo.Any(path, echo.WrapHandler(h))
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ProcessResponse is the body of a successful POST /api/repo/process.
type ProcessResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ChunksProcessed int    `json:"chunksProcessed"`
	Repository      string `json:"repository"`
	ProcessedAt     string `json:"processedAt"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleProcess(c echo.Context) (err error) {
	token := credential(c.Request().Header.Get(echo.HeaderAuthorization))
	if token == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "GitHub access token is required"})
	}

	coord := repo.Coordinate{Owner: c.Param("owner"), Name: c.Param("repo")}
	if coord.Owner == "" || coord.Name == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "owner and repo are required"})
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("ingestion panicked", "repository", coord.String(), "panic", r)
			err = c.JSON(http.StatusInternalServerError, ErrorResponse{Message: fmt.Sprintf("Internal server error: %v", r)})
		}
	}()

	outcome := s.ingester.Ingest(c.Request().Context(), coord, token)
	if !outcome.Success {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: outcome.Message})
	}

	return c.JSON(http.StatusOK, ProcessResponse{
		Success:         true,
		Message:         outcome.Message,
		ChunksProcessed: outcome.ChunksProcessed,
		Repository:      coord.String(),
		ProcessedAt:     s.now().UTC().Format(time.RFC3339),
	})
}

// credential extracts the token from an Authorization header of the form
// "Bearer <token>", "token <token>" or a bare token.
func credential(header string) string {
	for _, prefix := range []string{"Bearer ", "token "} {
		if len(header) >= len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
	}
	return strings.TrimSpace(header)
}

// Start listens on the configured address and blocks until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
