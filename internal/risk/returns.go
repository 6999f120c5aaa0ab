package risk

import (
	"math"

	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
	"gonum.org/v1/gonum/stat"
)

// Scenario multipliers applied to the historical mean return
const (
	BullMultiplier = 1.2
	BearMultiplier = 0.8
)

// Estimator derives return statistics from closing prices
type Estimator struct {
	log *logger.Logger
}

// NewEstimator creates a new return statistics estimator
func NewEstimator() *Estimator {
	return &Estimator{
		log: logger.GetLogger("risk.estimator"),
	}
}

// Returns validates the series and returns its simple period returns
func (e *Estimator) Returns(series models.PriceSeries) ([]float64, error) {
	if series.Len() < 2 {
		return nil, errors.InsufficientData(
			"asset " + series.Key + " needs at least 2 prices to compute a return")
	}

	closes := series.Closes()
	for i, p := range closes {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return nil, errors.DegenerateDataf("asset %s has invalid price %v at %s",
				series.Key, p, series.Points[i].Date.Format("2006-01-02"))
		}
	}

	return SimpleReturns(closes), nil
}

// Estimate computes mean daily return, sample volatility and maximum drawdown
func (e *Estimator) Estimate(series models.PriceSeries) (models.ReturnStatistics, error) {
	returns, err := e.Returns(series)
	if err != nil {
		return models.ReturnStatistics{}, err
	}
	return e.Statistics(series, returns), nil
}

// Statistics summarises returns already derived from series by Returns
func (e *Estimator) Statistics(series models.PriceSeries, returns []float64) models.ReturnStatistics {
	mean, vol := MeanAndStdDev(returns)
	stats := models.ReturnStatistics{
		MeanDailyReturn: mean,
		DailyVolatility: vol,
		MaxDrawdown:     MaxDrawdown(series.Closes()),
	}

	e.log.Debugw("Estimated return statistics",
		"asset", series.Key,
		"observations", series.Len(),
		"mean", stats.MeanDailyReturn,
		"volatility", stats.DailyVolatility,
		"maxDrawdown", stats.MaxDrawdown)

	return stats
}

// Adjust returns a scenario-adjusted copy of stats. The mean is scaled by the
// market condition and the volatility by (1 + riskAppetite).
func Adjust(stats models.ReturnStatistics, condition models.MarketCondition, riskAppetite float64) models.ReturnStatistics {
	adjusted := stats
	switch condition {
	case models.MarketBull:
		adjusted.MeanDailyReturn *= BullMultiplier
	case models.MarketBear:
		adjusted.MeanDailyReturn *= BearMultiplier
	}
	adjusted.DailyVolatility *= 1 + riskAppetite
	return adjusted
}

// SimpleReturns returns p[t]/p[t-1] - 1 for consecutive prices
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = prices[i]/prices[i-1] - 1
	}
	return returns
}

// MeanAndStdDev returns the mean and sample standard deviation of values.
// A single value has zero deviation.
func MeanAndStdDev(values []float64) (float64, float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	mean, std := stat.MeanStdDev(values, nil)
	return mean, std
}

// MaxDrawdown returns the worst peak-to-trough decline as a non-positive fraction
func MaxDrawdown(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	peak := prices[0]
	worst := 0.0
	for _, p := range prices {
		peak = math.Max(peak, p)
		worst = math.Min(worst, p/peak-1)
	}
	return worst
}
