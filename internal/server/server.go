// Package server exposes the task service and the chat forwarding
// endpoints over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"taskman/internal/agent"
	"taskman/internal/config"
	"taskman/internal/logging"
	"taskman/internal/task"
)

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 120 * time.Second // chat requests wait on the agent platform
)

// Server wires the task service and the two agent adapters into a gin
// engine. Construct once at process start; every request handler gets
// its dependencies from here rather than from ambient globals.
type Server struct {
	service      *task.Service
	agentA       agent.Agent
	agentB       agent.Agent
	agentTimeout time.Duration

	engine     *gin.Engine
	httpServer *http.Server
	logger     logging.Logger
	startTime  time.Time
	openAPIDoc gin.H
}

func New(cfg *config.Config, service *task.Service, agentA, agentB agent.Agent, logger logging.Logger) *Server {
	logger = logging.OrNop(logger)

	if logging.ParseLevel(cfg.LogLevel) > logging.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	engine.Use(JSONContentTypeMiddleware())

	s := &Server{
		service:      service,
		agentA:       agentA,
		agentB:       agentB,
		agentTimeout: cfg.AgentTimeout,
		engine:       engine,
		logger:       logger,
		startTime:    time.Now(),
	}

	routes := s.routes()
	for _, route := range routes {
		engine.Handle(route.method, route.path, route.handler)
	}
	s.openAPIDoc = buildOpenAPIDocument(routes)
	engine.GET("/openapi.json", s.handleOpenAPI)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return s
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
	})
}
