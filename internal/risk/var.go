package risk

import (
	"math"
	"sort"
	"strings"

	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
	"gonum.org/v1/gonum/stat/distuv"
)

// TailMethod defines the method used for VaR and expected shortfall
type TailMethod int

const (
	// HistoricalTail uses the empirical return distribution
	HistoricalTail TailMethod = iota
	// ParametricTail assumes normally distributed returns
	ParametricTail
)

// ParseTailMethod maps a config value to a TailMethod, defaulting to historical
func ParseTailMethod(s string) TailMethod {
	if strings.EqualFold(strings.TrimSpace(s), "parametric") {
		return ParametricTail
	}
	return HistoricalTail
}

// Defaults for one-day tail risk
const (
	DefaultVaRConfidence = 0.95
	DefaultESConfidence  = 0.975
	DefaultTailWindow    = 252
)

// TailRiskCalculator calculates one-day Value at Risk and expected shortfall
// of a position from its daily returns.
type TailRiskCalculator struct {
	method        TailMethod
	varConfidence float64
	esConfidence  float64
	window        int
	log           *logger.Logger
}

// NewTailRiskCalculator creates a new tail risk calculator. Out-of-range
// arguments fall back to the defaults.
func NewTailRiskCalculator(method TailMethod, varConfidence, esConfidence float64, window int) *TailRiskCalculator {
	if varConfidence <= 0 || varConfidence >= 1 {
		varConfidence = DefaultVaRConfidence
	}
	if esConfidence <= 0 || esConfidence >= 1 {
		esConfidence = DefaultESConfidence
	}
	if window <= 0 {
		window = DefaultTailWindow
	}

	return &TailRiskCalculator{
		method:        method,
		varConfidence: varConfidence,
		esConfidence:  esConfidence,
		window:        window,
		log:           logger.GetLogger("risk.tail"),
	}
}

// VaR returns the loss in currency units not exceeded with the VaR confidence
func (t *TailRiskCalculator) VaR(returns []float64, positionValue float64) float64 {
	returns, ok := t.prepare(returns, positionValue)
	if !ok {
		return 0
	}

	switch t.method {
	case ParametricTail:
		mean, std := MeanAndStdDev(returns)
		z := distuv.UnitNormal.Quantile(t.varConfidence)
		return math.Max(0, -mean+z*std) * positionValue
	default:
		sorted := sortedCopy(returns)
		index := int(math.Floor((1 - t.varConfidence) * float64(len(sorted))))
		index = min(max(index, 0), len(sorted)-1)
		return math.Abs(math.Min(sorted[index], 0)) * positionValue
	}
}

// ExpectedShortfall returns the average loss beyond the ES confidence quantile
func (t *TailRiskCalculator) ExpectedShortfall(returns []float64, positionValue float64) float64 {
	returns, ok := t.prepare(returns, positionValue)
	if !ok {
		return 0
	}

	switch t.method {
	case ParametricTail:
		// E[-R | R < q] for a normal: -mu + sigma*phi(z)/(1-c)
		mean, std := MeanAndStdDev(returns)
		z := distuv.UnitNormal.Quantile(t.esConfidence)
		es := -mean + std*distuv.UnitNormal.Prob(z)/(1-t.esConfidence)
		return math.Max(0, es) * positionValue
	default:
		sorted := sortedCopy(returns)
		index := int(math.Floor((1 - t.esConfidence) * float64(len(sorted))))
		if index <= 0 {
			return math.Max(0, -sorted[0]) * positionValue
		}
		sum := 0.0
		for _, r := range sorted[:index] {
			sum += r
		}
		return math.Max(0, -sum/float64(index)) * positionValue
	}
}

func (t *TailRiskCalculator) prepare(returns []float64, positionValue float64) ([]float64, bool) {
	if len(returns) == 0 || positionValue <= 0 {
		t.log.Debug("Skipping tail risk: empty returns or non-positive position value")
		return nil, false
	}
	if len(returns) > t.window {
		returns = returns[len(returns)-t.window:]
	}
	return returns, true
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
