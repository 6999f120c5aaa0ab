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

// GBM evolves a single geometric Brownian motion path
type GBM struct {
	stepsPerYear int
	logger       *logger.Logger
}

// NewGBM creates a GBM simulator with the given number of steps per year
func NewGBM(stepsPerYear int) *GBM {
	if stepsPerYear <= 0 {
		stepsPerYear = DefaultTradingDays
	}
	return &GBM{
		stepsPerYear: stepsPerYear,
		logger:       logger.GetLogger("simulation.gbm"),
	}
}

// Path returns the full price path of length years*stepsPerYear+1 starting at
// the initial value:
//
//	S[t] = S[t-1] * exp((mu - sigma^2/2)*dt + sigma*dW[t-1]),  dW ~ N(0, sqrt(dt))
func (g *GBM) Path(ctx context.Context, p Params, src rand.Source) ([]float64, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Timeout("gbm simulation cancelled")
	}

	steps := p.Years * g.stepsPerYear
	dt := 1 / float64(g.stepsPerYear)
	drift := (p.MeanReturn - 0.5*p.Volatility*p.Volatility) * dt
	shock := distuv.Normal{Mu: 0, Sigma: math.Sqrt(dt), Src: src}

	path := make([]float64, steps+1)
	path[0] = p.InitialValue
	for t := 1; t <= steps; t++ {
		path[t] = path[t-1] * math.Exp(drift+p.Volatility*shock.Rand())
	}
	return path, nil
}

// Simulate runs Path and samples it at every year boundary
func (g *GBM) Simulate(ctx context.Context, p Params, src rand.Source) (models.SimulationResult, error) {
	path, err := g.Path(ctx, p, src)
	if err != nil {
		return models.SimulationResult{}, err
	}

	last := len(path) - 1
	yearly := make([]float64, p.Years)
	for y := range yearly {
		yearly[y] = path[min(y*g.stepsPerYear, last)]
	}

	g.logger.Debugw("GBM simulation completed",
		"initial", p.InitialValue,
		"years", p.Years,
		"terminal", path[last])

	return models.SimulationResult{
		TerminalValue: path[last],
		YearlyValues:  yearly,
	}, nil
}
