// Package api provides the miner's stats HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/krist-network/krist-miner/internal/config"
	"github.com/krist-network/krist-miner/internal/miner"
	"github.com/krist-network/krist-miner/internal/util"
)

// StatsFunc is a callback returning a current engine snapshot.
type StatsFunc func() miner.Stats

// Server is the stats API server.
type Server struct {
	cfg     *config.Config
	router  *gin.Engine
	server  *http.Server
	statsFn StatsFunc
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		cfg:    cfg,
		router: router,
	}

	s.setupRoutes()
	return s
}

// SetStatsFunc wires the engine snapshot callback.
func (s *Server) SetStatsFunc(fn StatsFunc) {
	s.statsFn = fn
}

func (s *Server) setupRoutes() {
	s.router.GET("/api/health", s.handleHealth)
	s.router.GET("/api/stats", s.handleStats)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"now":    time.Now().Unix(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	if s.statsFn == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "engine not running"})
		return
	}
	c.JSON(http.StatusOK, s.statsFn())
}

// Start begins serving the API.
func (s *Server) Start() error {
	if !s.cfg.API.Enabled {
		return nil
	}

	s.server = &http.Server{
		Addr:    s.cfg.API.Bind,
		Handler: s.router,
	}

	util.Infof("API server listening on %s", s.cfg.API.Bind)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Errorf("API server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts down the API server.
func (s *Server) Stop() {
	if s.server != nil {
		s.server.Close()
	}
}
