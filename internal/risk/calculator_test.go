package risk

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/rzzdr/portfolio-pilot/internal/optimizer"
	"github.com/rzzdr/portfolio-pilot/internal/store"
	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomWalk(seed uint64, days int, start, drift, vol float64) []models.PricePoint {
	rng := rand.New(rand.NewPCG(seed, 7))
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, days)
	price := start
	for i := range points {
		points[i] = models.PricePoint{Date: day.AddDate(0, 0, i), Close: price}
		price *= math.Exp(drift + vol*rng.NormFloat64())
	}
	return points
}

func testPriceStore() *store.InMemoryPriceStore {
	s := store.NewInMemoryPriceStore()
	s.Put(models.AssetStocks, randomWalk(1, 400, 100, 0.0005, 0.012))
	s.Put(models.AssetBonds, randomWalk(2, 400, 50, 0.0001, 0.003))
	s.Put(models.AssetRealEstate, randomWalk(3, 400, 80, 0.0003, 0.009))
	s.Put(models.AssetCommodities, randomWalk(4, 400, 60, 0.0002, 0.011))
	for i, ticker := range models.StockTickers {
		s.Put(ticker, randomWalk(uint64(10+i), 400, 100+10*float64(i), 0.0004+0.0001*float64(i), 0.015+0.003*float64(i)))
	}
	return s
}

func testCalculator(opts ...Option) *Calculator {
	optCfg := optimizer.DefaultConfig()
	optCfg.Starts = 20
	optCfg.Timeout = time.Minute
	return NewCalculator(CalculatorConfig{Iterations: 200, Seed: 42}, testPriceStore(), optimizer.New(optCfg), opts...)
}

func endToEndRequest() models.AllocationRequest {
	return models.AllocationRequest{
		InvestmentAmount: 10000,
		Duration:         5,
		RiskAppetite:     0.5,
		MarketCondition:  "neutral",
		Stocks:           100,
	}
}

func TestSimulateEndToEnd(t *testing.T) {
	result, err := testCalculator().Simulate(context.Background(), endToEndRequest())
	require.NoError(t, err)

	assert.Len(t, result.YearlyValues, 5)
	assert.Greater(t, result.FinalValue, 0.0)
	assert.False(t, math.IsNaN(result.SharpeRatio) || math.IsInf(result.SharpeRatio, 0))
	assert.LessOrEqual(t, result.MaxDrawdownPct, 0.0)
	assert.Nil(t, result.RiskScore)
}

func TestSimulateDeterministic(t *testing.T) {
	req := endToEndRequest()
	req.Stocks, req.Bonds, req.Commodities = 50, 30, 20

	first, err := testCalculator().Simulate(context.Background(), req)
	require.NoError(t, err)
	second, err := testCalculator().Simulate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSimulateRejectsInvalidRequests(t *testing.T) {
	calc := testCalculator()

	req := endToEndRequest()
	req.Stocks = 90
	_, err := calc.Simulate(context.Background(), req)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))

	req = endToEndRequest()
	req.MarketCondition = "sideways"
	_, err = calc.Simulate(context.Background(), req)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))
}

func TestSimulateMissingData(t *testing.T) {
	empty := store.NewInMemoryPriceStore()
	calc := NewCalculator(CalculatorConfig{Iterations: 10}, empty, nil)

	_, err := calc.Simulate(context.Background(), endToEndRequest())
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestAssessRisk(t *testing.T) {
	req := endToEndRequest()
	req.Stocks, req.Bonds = 60, 40
	req.MarketCondition = "bear"

	assessment, err := testCalculator().AssessRisk(context.Background(), req)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, assessment.RiskScore, 0.0)
	assert.LessOrEqual(t, assessment.RiskScore, 10.0)
	assert.Len(t, assessment.YearlyMonteCarlo, 5)
	assert.Len(t, assessment.YearlyGBM, 5)
	assert.Greater(t, assessment.ValueAtRisk, 0.0)
	assert.GreaterOrEqual(t, assessment.ExpectedShortfall, assessment.ValueAtRisk)
}

type memoryResults struct {
	mu      sync.Mutex
	records map[string]string
}

func (m *memoryResults) Save(id, kind string, result interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = kind
	return nil
}

type countingMetrics struct {
	mu            sync.Mutex
	simulations   map[string]int
	optimizations map[string]int
}

func (c *countingMetrics) RecordSimulation(flow string, assets int, d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.simulations[flow]++
}

func (c *countingMetrics) RecordOptimization(variant string, attempts, succeeded int, d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.optimizations[variant]++
}

func TestSuggest(t *testing.T) {
	results := &memoryResults{records: map[string]string{}}
	metrics := &countingMetrics{simulations: map[string]int{}, optimizations: map[string]int{}}
	calc := testCalculator(WithResultStore(results, func() string { return "fixed-id" }), WithMetrics(metrics))

	req := models.SuggestionRequest{
		Investment:    20000,
		Duration:      10,
		RiskTolerance: 0.7,
		Stocks:        40,
		Bonds:         30,
		RealEstate:    20,
		Commodities:   10,
	}
	suggestion, err := calc.Suggest(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "fixed-id", suggestion.ID)
	assert.Equal(t, FlowSuggest, results.records["fixed-id"])
	require.Len(t, suggestion.Allocation, 4)

	total := 0.0
	for _, pct := range suggestion.Allocation {
		total += pct
		assert.GreaterOrEqual(t, pct, 5.0)
		assert.LessOrEqual(t, pct, 100.0)
	}
	assert.InDelta(t, 100.0, total, 0.01)

	breakdown := decimal.Zero
	for _, amount := range suggestion.InvestmentBreakdown {
		breakdown = breakdown.Add(amount)
	}
	assert.InDelta(t, 20000.0, breakdown.InexactFloat64(), 0.05)

	require.Len(t, suggestion.StockAllocation, len(models.StockTickers))
	stockTotal := 0.0
	for _, pct := range suggestion.StockAllocation {
		stockTotal += pct
		assert.GreaterOrEqual(t, pct, 5.0)
	}
	assert.InDelta(t, 100.0, stockTotal, 0.01)

	assert.Equal(t, 1, metrics.optimizations[VariantClasses])
	assert.Equal(t, 1, metrics.optimizations[VariantStocks])
}

func TestSuggestWithoutStocksSkipsBasket(t *testing.T) {
	req := models.SuggestionRequest{
		Investment:    1000,
		Duration:      3,
		RiskTolerance: 0.3,
		Bonds:         50,
		RealEstate:    25,
		Commodities:   25,
	}
	suggestion, err := testCalculator().Suggest(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, suggestion.StockAllocation)
	assert.Empty(t, suggestion.ID)
}

func TestSuggestNonConvergenceStoresNothing(t *testing.T) {
	optCfg := optimizer.DefaultConfig()
	optCfg.Starts = 4
	optCfg.MaxIterations = 1
	optCfg.GradTolerance = 1e-300
	results := &memoryResults{records: map[string]string{}}
	metrics := &countingMetrics{simulations: map[string]int{}, optimizations: map[string]int{}}
	calc := NewCalculator(CalculatorConfig{Iterations: 200, Seed: 42}, testPriceStore(), optimizer.New(optCfg),
		WithResultStore(results, func() string { return "never" }), WithMetrics(metrics))

	suggestion, err := calc.Suggest(context.Background(), models.SuggestionRequest{
		Investment:    5000,
		Duration:      5,
		RiskTolerance: 0.5,
		Stocks:        60,
		Bonds:         20,
		RealEstate:    10,
		Commodities:   10,
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNonConvergence), "got %v", err)
	assert.Nil(t, suggestion.Allocation)
	assert.Empty(t, results.records)
	assert.Equal(t, 1, metrics.optimizations[VariantClasses])
}
