package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	applog "MarketBrief/internal/logger"
	"MarketBrief/internal/model"
	"MarketBrief/internal/pipeline"
	"MarketBrief/internal/recorder"

	"github.com/gin-gonic/gin"
	"github.com/ternarybob/arbor"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, q model.Query) *pipeline.Result
}

// RunLister lists recorded runs.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]recorder.RunRecord, error)
}

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// BriefRequest is the body of POST /api/brief.
type BriefRequest struct {
	QueryText     *string        `json:"query_text" binding:"required"`
	PortfolioData map[string]any `json:"portfolio_data"`
}

// Server exposes the pipeline over HTTP.
type Server struct {
	Host string
	Port int

	runner  Runner
	runs    RunLister
	logger  arbor.ILogger
	engine  *gin.Engine
	httpSrv *http.Server
	started time.Time
}

// New creates a server. runs may be nil, in which case /api/runs returns an empty list.
func New(host string, port int, runner Runner, runs RunLister, logger arbor.ILogger) *Server {
	if logger == nil {
		logger = applog.Discard()
	}
	s := &Server{
		Host:    host,
		Port:    port,
		runner:  runner,
		runs:    runs,
		logger:  logger,
		engine:  gin.New(),
		started: time.Now(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.POST("/brief", s.postBrief)
	api.GET("/health", s.getHealth)
	api.GET("/runs", s.getRuns)
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	}
}

func (s *Server) postBrief(c *gin.Context) {
	var req BriefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query_text is required"})
		return
	}

	res := s.runner.Run(c.Request.Context(), model.Query{
		Text:      *req.QueryText,
		Portfolio: req.PortfolioData,
		Source:    "api",
	})
	if res.Failed {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"run_id": res.RunID,
			"errors": res.Errors,
			"reason": res.Fatal,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":     res.RunID,
		"brief_text": res.Narrative,
		"errors":     res.Errors,
	})
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) getRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRunsLimit)
	}
	if s.runs == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []recorder.RunRecord{}})
		return
	}
	runs, err := s.runs.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list runs"})
		return
	}
	if runs == nil {
		runs = []recorder.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
