package optimizer

import (
	"math"
	"time"

	"github.com/rzzdr/portfolio-pilot/internal/simulation"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
)

// Config contains configuration for the portfolio optimizer
type Config struct {
	MinWeight     float64
	MaxWeight     float64
	Starts        int
	Workers       int
	Timeout       time.Duration
	Seed          uint64
	MaxIterations int
	GradTolerance float64
	RiskFreeRate  float64
	TradingDays   int
}

// DefaultConfig returns the optimizer defaults
func DefaultConfig() Config {
	return Config{
		MinWeight:     0.05,
		MaxWeight:     1.0,
		Starts:        1000,
		Workers:       4,
		Timeout:       20 * time.Second,
		Seed:          simulation.DefaultSeed,
		MaxIterations: 200,
		GradTolerance: 1e-9,
		TradingDays:   simulation.DefaultTradingDays,
	}
}

// Optimizer finds allocation weights maximising risk-adjusted objectives
type Optimizer struct {
	config Config
	solver *Solver
	log    *logger.Logger
}

// New creates a new optimizer, filling zero config values with defaults
func New(config Config) *Optimizer {
	defaults := DefaultConfig()
	if config.MinWeight <= 0 {
		config.MinWeight = defaults.MinWeight
	}
	if config.MaxWeight <= 0 {
		config.MaxWeight = defaults.MaxWeight
	}
	if config.Starts <= 0 {
		config.Starts = defaults.Starts
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = defaults.MaxIterations
	}
	if config.GradTolerance <= 0 {
		config.GradTolerance = defaults.GradTolerance
	}
	if config.TradingDays <= 0 {
		config.TradingDays = defaults.TradingDays
	}

	return &Optimizer{
		config: config,
		solver: NewSolver(config.MinWeight, config.MaxWeight, config.MaxIterations, config.GradTolerance),
		log:    logger.GetLogger("optimizer"),
	}
}

// Config returns the effective configuration
func (o *Optimizer) Config() Config {
	return o.config
}

// ClassObjective is the negated risk-tolerance adjusted Sharpe-like ratio
// sign(r)*|r|^t / sigma used across asset classes.
func ClassObjective(data *ReturnData, riskTolerance float64) Objective {
	return func(w []float64) float64 {
		vol := data.PortfolioVolatility(w)
		if vol <= 0 {
			return 0
		}
		r := data.PortfolioReturn(w)
		return -math.Copysign(math.Pow(math.Abs(r), riskTolerance), r) / vol
	}
}

// OptimizeClasses maximises ClassObjective starting from the user's allocation.
// A non-converged solve is reported as a NonConvergence error and carries no
// weights.
func (o *Optimizer) OptimizeClasses(data *ReturnData, start []float64, riskTolerance float64) (Result, error) {
	if len(start) != data.Len() {
		return Result{}, errors.InvalidArgumentf("starting allocation has %d weights for %d assets", len(start), data.Len())
	}
	if riskTolerance <= 0 || riskTolerance > 1 {
		return Result{}, errors.InvalidArgumentf("risk tolerance must be in (0, 1], got %v", riskTolerance)
	}
	if err := o.solver.Feasible(data.Len()); err != nil {
		return Result{}, err
	}
	if err := data.checkFinite(); err != nil {
		return Result{}, err
	}

	result := o.solver.Solve(ClassObjective(data, riskTolerance), start)
	o.log.Debugw("Asset class optimization finished",
		"status", result.Status.String(),
		"iterations", result.Iterations,
		"objective", result.Objective)

	failed := Result{Status: result.Status, Iterations: result.Iterations, Objective: math.Inf(1)}
	switch result.Status {
	case Converged:
		return result, nil
	case Infeasible:
		return failed, errors.InvalidArgument("asset class weights are infeasible")
	default:
		return failed, errors.NonConvergencef("asset class optimization did not converge after %d iterations", result.Iterations)
	}
}
