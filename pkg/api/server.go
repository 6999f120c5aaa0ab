package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rzzdr/portfolio-pilot/internal/store"
	"github.com/rzzdr/portfolio-pilot/pkg/metrics"
	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/backpressure"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
)

// Config holds the configuration for the API server
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
	Mode           string
}

// Engine runs the portfolio flows behind the HTTP surface
type Engine interface {
	Simulate(ctx context.Context, req models.AllocationRequest) (models.PortfolioResult, error)
	AssessRisk(ctx context.Context, req models.AllocationRequest) (models.RiskAssessment, error)
	Suggest(ctx context.Context, req models.SuggestionRequest) (models.OptimizedAllocation, error)
}

// ResultReader looks up stored results
type ResultReader interface {
	Get(id string) (store.Record, error)
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	handlers   *Handlers
	log        *logger.Logger
}

// NewServer creates a new API server. recorder and gatherer may be nil.
func NewServer(config Config, engine Engine, results ResultReader, recorder *metrics.Recorder, gatherer prometheus.Gatherer) *Server {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 60 * time.Second
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 45 * time.Second
	}
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	s := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(engine, results, config.RequestTimeout),
		log:      logger.GetLogger("api.server"),
	}
	s.setupRoutes(recorder, gatherer)
	return s
}

// Router exposes the gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes(recorder *metrics.Recorder, gatherer prometheus.Gatherer) {
	s.router.Use(ErrorMiddleware())
	s.router.Use(LoggingMiddleware())
	if recorder != nil {
		s.router.Use(MetricsMiddleware(recorder))
	}
	s.router.Use(CORSMiddleware(s.config.AllowedOrigins))
	if s.config.RateLimit > 0 {
		s.router.Use(RateLimitMiddleware(backpressure.NewKeyedLimiter(s.config.RateLimit, s.config.RateBurst, 10*time.Minute)))
	}

	s.router.GET("/health", s.handlers.HealthCheckHandler)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/simulate", s.handlers.SimulateHandler)
		v1.POST("/risk-assessment", s.handlers.RiskAssessmentHandler)
		v1.POST("/suggestions/portfolio_suggestions", s.handlers.SuggestionsHandler)
		v1.GET("/results/:id", s.handlers.GetResultHandler)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

// Start starts the API server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Infof("Starting API server on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		s.log.Info("Stopping API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
