package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rzzdr/portfolio-pilot/internal/store"
	"github.com/rzzdr/portfolio-pilot/pkg/metrics"
	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	err     error
	lastReq models.AllocationRequest
}

func (f *fakeEngine) Simulate(ctx context.Context, req models.AllocationRequest) (models.PortfolioResult, error) {
	f.lastReq = req
	if f.err != nil {
		return models.PortfolioResult{}, f.err
	}
	if err := req.Validate(); err != nil {
		return models.PortfolioResult{}, err
	}
	return models.PortfolioResult{
		FinalValue:   15000,
		SharpeRatio:  0.8,
		YearlyValues: []float64{10000, 11000, 12000, 13000, 14000},
	}, nil
}

func (f *fakeEngine) AssessRisk(ctx context.Context, req models.AllocationRequest) (models.RiskAssessment, error) {
	if f.err != nil {
		return models.RiskAssessment{}, f.err
	}
	return models.RiskAssessment{RiskScore: 6.1}, nil
}

func (f *fakeEngine) Suggest(ctx context.Context, req models.SuggestionRequest) (models.OptimizedAllocation, error) {
	if f.err != nil {
		return models.OptimizedAllocation{}, f.err
	}
	return models.OptimizedAllocation{
		Allocation:          map[string]float64{"stocks": 40, "bonds": 60},
		InvestmentBreakdown: map[string]decimal.Decimal{"stocks": decimal.NewFromInt(400), "bonds": decimal.NewFromInt(600)},
		Insights:            []models.Insight{},
	}, nil
}

func newTestServer(engine Engine, results ResultReader) *Server {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	return NewServer(Config{}, engine, results, metrics.NewRecorder(reg), reg)
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

var simulateBody = map[string]interface{}{
	"investment_amount": 10000,
	"duration":          5,
	"risk_appetite":     0.5,
	"market_condition":  "neutral",
	"stocks":            100,
}

func TestSimulateEndpoint(t *testing.T) {
	engine := &fakeEngine{}
	s := newTestServer(engine, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/simulate", simulateBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 15000.0, body["Final Total Portfolio Value"])
	assert.Len(t, body["Yearly Portfolio Values"], 5)
	assert.Equal(t, "neutral", engine.lastReq.MarketCondition)
}

func TestSimulateRejectsBadInput(t *testing.T) {
	s := newTestServer(&fakeEngine{}, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/simulate", map[string]interface{}{
		"investment_amount": 10000,
		"duration":          5,
		"market_condition":  "sideways",
		"stocks":            60,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_argument")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", bytes.NewBufferString("{"))
	raw := httptest.NewRecorder()
	s.Router().ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errors.InvalidArgument("bad"), http.StatusBadRequest},
		{errors.NotFound("no data"), http.StatusNotFound},
		{errors.InsufficientData("short"), http.StatusUnprocessableEntity},
		{errors.DegenerateData("flat"), http.StatusUnprocessableEntity},
		{errors.NonConvergence("stuck"), http.StatusUnprocessableEntity},
		{errors.Timeout("slow"), http.StatusGatewayTimeout},
		{errors.Internal("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		s := newTestServer(&fakeEngine{err: tc.err}, nil)
		rec := do(t, s, http.MethodPost, "/api/v1/risk-assessment", simulateBody)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	s := newTestServer(&fakeEngine{}, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/suggestions/portfolio_suggestions", map[string]interface{}{
		"investment":     1000,
		"duration":       10,
		"risk_tolerance": 0.5,
		"stocks":         50,
		"bonds":          50,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"optimized_allocation"`)
	assert.Contains(t, rec.Body.String(), `"bonds":"600"`)
}

func TestResultsEndpoint(t *testing.T) {
	results := store.NewInMemoryResultStore(10)
	require.NoError(t, results.Save("abc", store.KindSimulation, models.PortfolioResult{FinalValue: 1}))
	s := newTestServer(&fakeEngine{}, results)

	rec := do(t, s, http.MethodGet, "/api/v1/results/abc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"simulation"`)

	rec = do(t, s, http.MethodGet, "/api/v1/results/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(&fakeEngine{}, nil)

	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	do(t, s, http.MethodPost, "/api/v1/simulate", simulateBody)
	rec = do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pp_api_requests_total{method="POST",path="/api/v1/simulate",status="200"} 1`)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(Config{RateLimit: 0.001, RateBurst: 1}, &fakeEngine{}, nil, nil, prometheus.NewRegistry())

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, s, http.MethodGet, "/health", nil).Code)
}
