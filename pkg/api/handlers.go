package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	engine  Engine
	results ResultReader
	timeout time.Duration
	log     *logger.Logger
}

// NewHandlers creates new API handlers
func NewHandlers(engine Engine, results ResultReader, timeout time.Duration) *Handlers {
	return &Handlers{
		engine:  engine,
		results: results,
		timeout: timeout,
		log:     logger.GetLogger("api.handlers"),
	}
}

// HealthCheckHandler handles health check requests
func (h *Handlers) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SimulateHandler runs Monte Carlo and GBM projections for an allocation
func (h *Handlers) SimulateHandler(c *gin.Context) {
	var req models.AllocationRequest
	if !h.bind(c, &req) {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	result, err := h.engine.Simulate(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RiskAssessmentHandler scores the risk of an allocation
func (h *Handlers) RiskAssessmentHandler(c *gin.Context) {
	var req models.AllocationRequest
	if !h.bind(c, &req) {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	result, err := h.engine.AssessRisk(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SuggestionsHandler recommends an optimized allocation
func (h *Handlers) SuggestionsHandler(c *gin.Context) {
	var req models.SuggestionRequest
	if !h.bind(c, &req) {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	result, err := h.engine.Suggest(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetResultHandler returns a previously computed result
func (h *Handlers) GetResultHandler(c *gin.Context) {
	if h.results == nil {
		h.fail(c, errors.NotFound("result storage is disabled"))
		return
	}

	record, err := h.results.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handlers) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.fail(c, errors.InvalidArgumentf("invalid request body: %v", err))
		return false
	}
	return true
}

func (h *Handlers) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorw("Request failed", "path", c.FullPath(), "error", err)
	} else {
		h.log.Warnw("Request rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"type":  errors.TypeOf(err).String(),
	})
}

// StatusCode maps an error type to an HTTP status
func StatusCode(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeInvalidArgument:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeInsufficientData, errors.ErrorTypeDegenerateData, errors.ErrorTypeNonConvergence:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
