package simulation

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultIterations is the number of Monte Carlo paths per asset
const DefaultIterations = 10000

// cancellation is checked once per this many paths
const cancelCheckEvery = 256

// MonteCarlo estimates expected terminal and yearly values by averaging many
// independent lognormal paths.
type MonteCarlo struct {
	iterations  int
	tradingDays int
	logger      *logger.Logger
}

// NewMonteCarlo creates a Monte Carlo simulator. Non-positive arguments fall back to defaults.
func NewMonteCarlo(iterations, tradingDays int) *MonteCarlo {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if tradingDays <= 0 {
		tradingDays = DefaultTradingDays
	}
	return &MonteCarlo{
		iterations:  iterations,
		tradingDays: tradingDays,
		logger:      logger.GetLogger("simulation.montecarlo"),
	}
}

// Iterations returns the number of paths averaged per call
func (m *MonteCarlo) Iterations() int {
	return m.iterations
}

// Simulate draws daily log-returns N(mean/days, vol/sqrt(days)), compounds them
// along each path and averages the paths at every year boundary and at the last day.
//
// Paths are accumulated one at a time so memory stays O(years) regardless of
// the iteration count. The same src state always yields the same result.
func (m *MonteCarlo) Simulate(ctx context.Context, p Params, src rand.Source) (models.SimulationResult, error) {
	if err := p.validate(); err != nil {
		return models.SimulationResult{}, err
	}

	days := p.Years * m.tradingDays
	dist := distuv.Normal{
		Mu:    p.MeanReturn / float64(m.tradingDays),
		Sigma: p.Volatility / math.Sqrt(float64(m.tradingDays)),
		Src:   src,
	}

	yearlySums := make([]float64, p.Years)
	terminalSum := 0.0

	for i := 0; i < m.iterations; i++ {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return models.SimulationResult{}, errors.Timeout("monte carlo simulation cancelled")
			}
		}

		cum := 0.0
		for d := 0; d < days; d++ {
			cum += dist.Rand()
			if d%m.tradingDays == 0 {
				yearlySums[d/m.tradingDays] += p.InitialValue * math.Exp(cum)
			}
		}
		terminalSum += p.InitialValue * math.Exp(cum)
	}

	n := float64(m.iterations)
	yearly := make([]float64, p.Years)
	for y := range yearlySums {
		yearly[y] = yearlySums[y] / n
	}

	result := models.SimulationResult{
		TerminalValue: terminalSum / n,
		YearlyValues:  yearly,
	}

	m.logger.Debugw("Monte Carlo simulation completed",
		"initial", p.InitialValue,
		"years", p.Years,
		"iterations", m.iterations,
		"terminal", result.TerminalValue)

	return result, nil
}
