// Package api provides the HTTP server for the GitHub Models proxy. It wires
// the Gin engine, middleware, and the OpenAI-compatible routes, and exposes
// the health, service-info, and Prometheus metrics endpoints alongside them.
// The server supports hot-reloading of its configuration.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/openclaw/modelsproxy/internal/api/handlers"
	"github.com/openclaw/modelsproxy/internal/api/handlers/openai"
	"github.com/openclaw/modelsproxy/internal/config"
	"github.com/openclaw/modelsproxy/internal/logging"
	"github.com/openclaw/modelsproxy/internal/util"
)

// Version is the service version reported by the root endpoint.
const Version = "1.0.0"

// Server represents the proxy's API server. It encapsulates the Gin engine,
// the HTTP server, and the shared handler state.
type Server struct {
	engine *gin.Engine
	server *http.Server
	base   *handlers.BaseHandler
}

// NewServer creates and initializes a new API server instance from the given
// configuration.
func NewServer(cfg *config.Config) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logging.GinLogrusLogger())
	engine.Use(logging.GinLogrusRecovery())
	engine.Use(corsMiddleware())

	s := &Server{
		engine: engine,
		base:   handlers.NewBaseHandler(cfg),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	return s
}

// setupRoutes configures the API routes for the server.
func (s *Server) setupRoutes() {
	openaiHandlers := openai.NewHandler(s.base)

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/models", openaiHandlers.Models)
		v1.POST("/chat/completions", openaiHandlers.ChatCompletions)
	}

	s.engine.GET("/health", s.healthHandler)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.GET("/", func(c *gin.Context) {
		cfg, _, _ := s.base.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"name":     "GitHub Models Proxy",
			"version":  Version,
			"base_url": fmt.Sprintf("http://localhost:%d/v1", cfg.Port),
			"requires": "GITHUB_TOKEN",
		})
	})
}

// healthHandler reports the proxy's own health plus whether an upstream
// token is configured. The upstream itself is not probed; a single forward
// attempt per request is the contract.
func (s *Server) healthHandler(c *gin.Context) {
	cfg, _, _ := s.base.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"github_token_set": cfg.GitHubToken != "",
		"models_url":       cfg.ModelsURL,
	})
}

// Start begins listening for and serving HTTP requests. It blocks until the
// server stops.
func (s *Server) Start() error {
	log.Debugf("starting API server on %s", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the API server without interrupting any active
// connections.
func (s *Server) Stop(ctx context.Context) error {
	log.Debug("stopping API server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	log.Debug("API server stopped")
	return nil
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// UpdateConfig swaps the configuration used by subsequent requests. This is
// called by the file watcher when config.yaml changes.
func (s *Server) UpdateConfig(cfg *config.Config) {
	util.SetLogLevel(cfg)
	s.base.Update(cfg)

	_, _, table := s.base.Snapshot()
	log.Infof("configuration reloaded: %d model routes, budget %d", table.Routes(), cfg.TokenBudget)
}

// corsMiddleware adds CORS headers to every response and short-circuits
// OPTIONS preflight requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
