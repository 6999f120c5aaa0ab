package optimizer

import (
	"context"
	stderrors "errors"

	"github.com/rzzdr/portfolio-pilot/internal/simulation"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distmv"
)

// StockObjective is -(r - lambda*sigma) with lambda = (1 - riskTolerance) / years
func StockObjective(data *ReturnData, riskTolerance float64, years int) Objective {
	aversion := (1 - riskTolerance) / float64(years)
	return func(w []float64) float64 {
		return -(data.PortfolioReturn(w) - aversion*data.PortfolioVolatility(w))
	}
}

// MultiStartResult is the best of many solver runs
type MultiStartResult struct {
	Result
	// Start is the index of the winning starting point
	Start     int
	Attempts  int
	Succeeded int
	TimedOut  bool
}

// StartingPoints returns n starting weight vectors for k assets: equal
// weights first, then symmetric Dirichlet(1) draws from a seeded stream.
func StartingPoints(k, n int, seed uint64) [][]float64 {
	starts := make([][]float64, n)
	if n == 0 {
		return starts
	}

	equal := make([]float64, k)
	for i := range equal {
		equal[i] = 1 / float64(k)
	}
	starts[0] = equal

	alpha := make([]float64, k)
	for i := range alpha {
		alpha[i] = 1
	}
	dirichlet := distmv.NewDirichlet(alpha, simulation.NewSource(seed, simulation.StreamOptimizer))
	for i := 1; i < n; i++ {
		starts[i] = dirichlet.Rand(nil)
	}
	return starts
}

// OptimizeStocks runs the solver from many starting points in parallel and
// keeps the best converged result. Ties go to the lower start index so the
// outcome does not depend on scheduling.
func (o *Optimizer) OptimizeStocks(ctx context.Context, data *ReturnData, riskTolerance float64, years int) (MultiStartResult, error) {
	if years <= 0 {
		return MultiStartResult{}, errors.InvalidArgumentf("duration must be positive, got %d", years)
	}
	if riskTolerance < 0 || riskTolerance > 1 {
		return MultiStartResult{}, errors.InvalidArgumentf("risk tolerance must be in [0, 1], got %v", riskTolerance)
	}
	if err := o.solver.Feasible(data.Len()); err != nil {
		return MultiStartResult{}, err
	}
	if err := data.checkFinite(); err != nil {
		return MultiStartResult{}, err
	}
	if err := data.checkVolatility(); err != nil {
		return MultiStartResult{}, err
	}

	objective := StockObjective(data, riskTolerance, years)
	starts := StartingPoints(data.Len(), o.config.Starts, o.config.Seed)
	results := make([]Result, len(starts))
	done := make([]bool, len(starts))

	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Workers)
	for i, start := range starts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			results[i] = o.solver.Solve(objective, start)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	best := MultiStartResult{Start: -1, Attempts: len(starts)}
	for i, r := range results {
		if !done[i] || r.Status != Converged {
			continue
		}
		best.Succeeded++
		if best.Start < 0 || r.Objective < best.Objective {
			best.Result = r
			best.Start = i
		}
	}
	best.TimedOut = stderrors.Is(ctx.Err(), context.DeadlineExceeded)

	o.log.Debugw("Stock multi-start optimization finished",
		"attempts", best.Attempts,
		"succeeded", best.Succeeded,
		"best_start", best.Start,
		"timed_out", best.TimedOut)

	if best.Start < 0 {
		if best.TimedOut {
			return best, errors.Timeout("stock optimization exhausted its time budget without a converged attempt")
		}
		if ctx.Err() != nil {
			return best, errors.Timeout("stock optimization cancelled")
		}
		return best, errors.NonConvergence("no stock optimization attempt converged")
	}
	if best.TimedOut {
		o.log.Warnw("Stock optimization hit its time budget, using the best completed attempt",
			"succeeded", best.Succeeded)
	}
	return best, nil
}
