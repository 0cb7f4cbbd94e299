// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/orpheus-av/orpheus/internal/api"
	"github.com/orpheus-av/orpheus/internal/config"
	"github.com/orpheus-av/orpheus/internal/engine"
	"github.com/orpheus-av/orpheus/internal/logger"
	"github.com/orpheus-av/orpheus/internal/middleware"
	"github.com/orpheus-av/orpheus/internal/player"
)

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	controller *player.Controller
	router     *gin.Engine
	server     *http.Server
}

// New creates a new server instance wired to the given playback engine and
// ads loader. The server owns the controller it creates and closes it on
// shutdown.
func New(cfg *config.Config, eng engine.Engine, ads engine.AdsLoader) *Server {
	controller := player.New(eng, ads, cfg.Player)

	return &Server{
		config:     cfg,
		controller: controller,
	}
}

// Controller exposes the playback controller, mainly for tests and for
// embedding scenarios that drive playback without HTTP.
func (s *Server) Controller() *player.Controller {
	return s.controller
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create new Gin router
	s.router = gin.New()

	// Add middleware stack
	s.router.Use(middleware.RequestLogger()) // Custom zerolog request logger
	s.router.Use(gin.Recovery())             // Panic recovery
	s.router.Use(cors.Default())             // CORS support (allows all origins)

	// Create API route group
	apiGroup := s.router.Group("/api")

	// Register service routes
	api.SetupHealthRoutes(apiGroup, s.controller)
	api.SetupPlayerRoutes(apiGroup, s.controller, s.config.Player.TransportStep.Milliseconds())
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// HTTP first so in-flight snapshot reads finish before the controller
	// stops publishing
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	if s.controller != nil {
		s.controller.Close()
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
