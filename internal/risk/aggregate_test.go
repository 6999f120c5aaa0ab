package risk

import (
	"math"
	"testing"

	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCAGRRoundTrip(t *testing.T) {
	for _, g := range []float64{-0.3, 0, 0.07, 0.5} {
		for _, years := range []int{1, 5, 30} {
			final := 10000 * math.Pow(1+g, float64(years))
			assert.InDelta(t, g, CAGR(10000, final, years), 1e-12, "g=%v years=%d", g, years)
		}
	}
	assert.Equal(t, 0.0, CAGR(0, 100, 5))
}

func TestSharpeRatioZeroVolatility(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio(0.1, 0))
	assert.Equal(t, 5.0, SharpeRatio(0.1, 0.02))
}

func TestRiskScore(t *testing.T) {
	assert.Equal(t, 6.5, RiskScore(0.1, -0.1, models.MarketNeutral))
	assert.Equal(t, 6.0, RiskScore(0.1, -0.1, models.MarketBull))
	assert.Equal(t, 7.0, RiskScore(0.1, -0.1, models.MarketBear))
	assert.Equal(t, 10.0, RiskScore(0.5, -0.9, models.MarketBear))
	assert.Equal(t, 0.0, RiskScore(-1, 0, models.MarketBull))
}

func TestMeanSeries(t *testing.T) {
	got := MeanSeries([][]float64{{1, 2, 3}, {3, 4}}, 3)
	assert.Equal(t, []float64{2, 3, 1.5}, got)
}

func TestSummarize(t *testing.T) {
	outcomes := []AssetOutcome{
		{
			Asset:      models.AssetStocks,
			Investment: 6000,
			Stats:      models.ReturnStatistics{DailyVolatility: 0.02, MaxDrawdown: -0.3},
			MonteCarlo: models.SimulationResult{TerminalValue: 9000, YearlyValues: []float64{6000, 7000}},
			GBM:        models.SimulationResult{TerminalValue: 8000, YearlyValues: []float64{6000, 6800}},
		},
		{
			Asset:      models.AssetBonds,
			Investment: 4000,
			Stats:      models.ReturnStatistics{DailyVolatility: 0.004, MaxDrawdown: -0.1},
			MonteCarlo: models.SimulationResult{TerminalValue: 4400, YearlyValues: []float64{4000, 4200}},
			GBM:        models.SimulationResult{TerminalValue: 4600, YearlyValues: []float64{4000, 4300}},
		},
	}

	s, err := Summarize(outcomes, 10000, 2)
	require.NoError(t, err)

	assert.Equal(t, 13000.0, s.FinalValue)
	assert.InDelta(t, math.Sqrt(1.3)-1, s.CAGR, 1e-12)
	assert.InDelta(t, 0.012, s.AvgVolatility, 1e-12)
	assert.InDelta(t, -0.2, s.AvgMaxDrawdown, 1e-12)
	assert.InDelta(t, s.CAGR/0.012, s.SharpeRatio, 1e-9)
	assert.Equal(t, []float64{5000, 5600}, s.YearlyMC)
	assert.Equal(t, []float64{5000, 5550}, s.YearlyGBM)
	assert.Equal(t, []float64{5000, 5575}, s.Yearly)

	result := s.PortfolioResult()
	assert.Equal(t, 13000.0, result.FinalValue)
	assert.Equal(t, 14.02, result.ExpectedReturnPct)
	assert.Equal(t, 1.2, result.VolatilityPct)
	assert.Equal(t, -20.0, result.MaxDrawdownPct)
	assert.Nil(t, result.RiskScore)

	risky := s.RiskResult(models.MarketNeutral)
	require.NotNil(t, risky.RiskScore)
	assert.Equal(t, 6.1, *risky.RiskScore)
	assert.Len(t, risky.YearlyMonteCarlo, 2)
}

func TestSummarizeRequiresAssets(t *testing.T) {
	_, err := Summarize(nil, 1000, 5)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))
}
