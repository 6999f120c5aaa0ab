package risk

import (
	"math"

	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
)

// AssetOutcome is everything computed for one allocated asset class
type AssetOutcome struct {
	Asset      string
	Investment float64
	// Stats are the scenario-adjusted statistics fed to the simulators
	Stats      models.ReturnStatistics
	Returns    []float64
	MonteCarlo models.SimulationResult
	GBM        models.SimulationResult
}

// Summary holds the unrounded portfolio-level aggregate
type Summary struct {
	InitialValue   float64
	FinalValue     float64
	CAGR           float64
	AvgVolatility  float64
	AvgMaxDrawdown float64
	SharpeRatio    float64
	YearlyMC       []float64
	YearlyGBM      []float64
	Yearly         []float64
}

// Summarize combines per-asset outcomes. Terminal values are summed per
// simulator and the two simulators are averaged. Volatility, drawdown and the
// yearly series are simple means across assets regardless of allocation size.
func Summarize(outcomes []AssetOutcome, initialValue float64, years int) (Summary, error) {
	if len(outcomes) == 0 {
		return Summary{}, errors.InvalidArgument("at least one asset must have an allocation greater than 0")
	}
	if years <= 0 {
		return Summary{}, errors.InvalidArgumentf("duration must be positive, got %d", years)
	}

	var totalMC, totalGBM, totalVol, totalDD float64
	mcSeries := make([][]float64, 0, len(outcomes))
	gbmSeries := make([][]float64, 0, len(outcomes))
	for _, o := range outcomes {
		totalMC += o.MonteCarlo.TerminalValue
		totalGBM += o.GBM.TerminalValue
		totalVol += o.Stats.DailyVolatility
		totalDD += o.Stats.MaxDrawdown
		mcSeries = append(mcSeries, o.MonteCarlo.YearlyValues)
		gbmSeries = append(gbmSeries, o.GBM.YearlyValues)
	}

	n := float64(len(outcomes))
	s := Summary{
		InitialValue:   initialValue,
		FinalValue:     (totalMC + totalGBM) / 2,
		AvgVolatility:  totalVol / n,
		AvgMaxDrawdown: totalDD / n,
		YearlyMC:       MeanSeries(mcSeries, years),
		YearlyGBM:      MeanSeries(gbmSeries, years),
	}
	s.CAGR = CAGR(initialValue, s.FinalValue, years)
	s.SharpeRatio = SharpeRatio(s.CAGR, s.AvgVolatility)

	s.Yearly = make([]float64, years)
	for i := range s.Yearly {
		s.Yearly[i] = (s.YearlyMC[i] + s.YearlyGBM[i]) / 2
	}

	if !isFinite(s.FinalValue, s.CAGR, s.AvgVolatility, s.AvgMaxDrawdown, s.SharpeRatio) {
		return Summary{}, errors.Internal("portfolio aggregate is not finite")
	}
	return s, nil
}

// PortfolioResult converts the summary into the reported, rounded form
func (s Summary) PortfolioResult() models.PortfolioResult {
	return models.PortfolioResult{
		FinalValue:        Round(s.FinalValue, 2),
		ExpectedReturnPct: Round(s.CAGR*100, 2),
		VolatilityPct:     Round(s.AvgVolatility*100, 2),
		SharpeRatio:       Round(s.SharpeRatio, 2),
		MaxDrawdownPct:    Round(s.AvgMaxDrawdown*100, 2),
		YearlyValues:      RoundSeries(s.Yearly, 2),
	}
}

// RiskResult is PortfolioResult plus the risk score and per-simulator series
func (s Summary) RiskResult(condition models.MarketCondition) models.PortfolioResult {
	result := s.PortfolioResult()
	score := RiskScore(s.AvgVolatility, s.AvgMaxDrawdown, condition)
	result.RiskScore = &score
	result.YearlyMonteCarlo = RoundSeries(s.YearlyMC, 2)
	result.YearlyGBM = RoundSeries(s.YearlyGBM, 2)
	return result
}

// CAGR returns (final/initial)^(1/years) - 1, or 0 when undefined
func CAGR(initialValue, finalValue float64, years int) float64 {
	if initialValue <= 0 || finalValue < 0 || years <= 0 {
		return 0
	}
	return math.Pow(finalValue/initialValue, 1/float64(years)) - 1
}

// SharpeRatio returns ret/volatility without a risk-free rate, 0 for zero volatility
func SharpeRatio(ret, volatility float64) float64 {
	if volatility <= 0 {
		return 0
	}
	return ret / volatility
}

// RiskScore maps volatility and drawdown to [0, 10], rounded to one decimal
func RiskScore(avgVolatility, avgMaxDrawdown float64, condition models.MarketCondition) float64 {
	score := 5 + avgVolatility*10 - avgMaxDrawdown*5
	switch condition {
	case models.MarketBull:
		score -= 0.5
	case models.MarketBear:
		score += 0.5
	}
	return Round(math.Max(0, math.Min(10, score)), 1)
}

// MeanSeries averages equally-indexed entries across series, trimming or
// zero-padding each series to length n.
func MeanSeries(series [][]float64, n int) []float64 {
	out := make([]float64, n)
	if len(series) == 0 {
		return out
	}
	for _, s := range series {
		for i := 0; i < n && i < len(s); i++ {
			out[i] += s[i]
		}
	}
	for i := range out {
		out[i] /= float64(len(series))
	}
	return out
}

// Round rounds x to the given number of decimal places
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// RoundSeries rounds every value of series
func RoundSeries(series []float64, places int) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = Round(v, places)
	}
	return out
}

func isFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
