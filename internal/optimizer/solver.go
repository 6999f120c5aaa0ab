package optimizer

import (
	"math"

	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Status is the outcome of a single solver run
type Status int

const (
	// Converged means the solver reached a stationary point
	Converged Status = iota
	// NotConverged means the iteration budget ran out or the line search failed
	NotConverged
	// Infeasible means no weight vector satisfies the bounds
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case NotConverged:
		return "not_converged"
	case Infeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Result is the outcome of one bounded-simplex minimisation
type Result struct {
	Weights    []float64
	Objective  float64
	Status     Status
	Iterations int
}

// Objective maps a weight vector on the bounded simplex to a value to minimise
type Objective func(weights []float64) float64

// Solver minimises an objective over {w : sum(w) = 1, lo <= w_i <= hi}.
//
// Weights are parameterised as w = lo + (1 - n*lo) * softmax(z), which meets
// the equality and the lower bounds for every z, so an unconstrained
// quasi-Newton method can run on z. The upper bound is implied whenever
// hi >= 1 - (n-1)*lo.
type Solver struct {
	minWeight     float64
	maxWeight     float64
	maxIterations int
	gradTolerance float64
}

// NewSolver creates a new bounded-simplex solver
func NewSolver(minWeight, maxWeight float64, maxIterations int, gradTolerance float64) *Solver {
	if maxIterations <= 0 {
		maxIterations = 200
	}
	if gradTolerance <= 0 {
		gradTolerance = 1e-9
	}
	return &Solver{
		minWeight:     minWeight,
		maxWeight:     maxWeight,
		maxIterations: maxIterations,
		gradTolerance: gradTolerance,
	}
}

// Feasible reports whether n weights can satisfy the bounds. A maximum
// weight below 1-(n-1)*minWeight is rejected rather than enforced; config
// validation refuses such values at startup.
func (s *Solver) Feasible(n int) error {
	if n == 0 {
		return errors.InvalidArgument("no assets to allocate")
	}
	lo, hi := s.minWeight, s.maxWeight
	if lo < 0 || float64(n)*lo > 1+1e-12 {
		return errors.InvalidArgumentf("minimum weight %.4f is infeasible for %d assets", lo, n)
	}
	if hi < 1-float64(n-1)*lo-1e-12 {
		return errors.InvalidArgumentf("maximum weight %.4f cannot be enforced for %d assets with minimum %.4f", hi, n, lo)
	}
	return nil
}

// Solve minimises obj from start. start need not be feasible; it is moved
// inside the bounds first. The returned objective is never worse than the
// objective at that feasible start.
func (s *Solver) Solve(obj Objective, start []float64) Result {
	n := len(start)
	if err := s.Feasible(n); err != nil {
		return Result{Status: Infeasible, Objective: math.Inf(1)}
	}

	free := 1 - float64(n)*s.minWeight
	if free <= 1e-12 {
		w := make([]float64, n)
		for i := range w {
			w[i] = 1 / float64(n)
		}
		return Result{Weights: w, Objective: obj(w), Status: Converged}
	}

	z0 := s.toFree(start)
	startWeights := s.toWeights(z0)
	f0 := obj(startWeights)

	f := func(z []float64) float64 { return obj(s.toWeights(z)) }
	problem := optimize.Problem{
		Func: f,
		Grad: func(grad, z []float64) {
			fd.Gradient(grad, f, z, &fd.Settings{Formula: fd.Central})
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: s.gradTolerance,
		MajorIterations:   s.maxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-10,
			Iterations: 25,
		},
	}

	res, err := optimize.Minimize(problem, z0, settings, &optimize.BFGS{})
	if res == nil {
		return Result{Weights: startWeights, Objective: f0, Status: NotConverged}
	}

	status := Converged
	switch {
	case err != nil:
		// Line searches stall at flat optima of numerically differentiated
		// objectives; accept the point if the gradient is already negligible.
		grad := make([]float64, n)
		fd.Gradient(grad, f, res.X, &fd.Settings{Formula: fd.Central})
		if floats.Norm(grad, math.Inf(1)) > math.Sqrt(s.gradTolerance) {
			status = NotConverged
		}
	case res.Status == optimize.IterationLimit || res.Status == optimize.Failure:
		status = NotConverged
	}

	weights := s.toWeights(res.X)
	value := res.F
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Result{Weights: startWeights, Objective: f0, Status: NotConverged, Iterations: res.Stats.MajorIterations}
	}
	if value > f0 {
		weights, value = startWeights, f0
	}

	return Result{
		Weights:    normalize(weights),
		Objective:  value,
		Status:     status,
		Iterations: res.Stats.MajorIterations,
	}
}

func (s *Solver) toWeights(z []float64) []float64 {
	n := len(z)
	free := 1 - float64(n)*s.minWeight

	maxZ := floats.Max(z)
	w := make([]float64, n)
	sum := 0.0
	for i, v := range z {
		w[i] = math.Exp(v - maxZ)
		sum += w[i]
	}
	for i := range w {
		w[i] = s.minWeight + free*w[i]/sum
	}
	return w
}

// toFree inverts toWeights after clamping and renormalising start
func (s *Solver) toFree(start []float64) []float64 {
	n := len(start)
	free := 1 - float64(n)*s.minWeight
	const eps = 1e-6

	excess := make([]float64, n)
	for i, w := range start {
		if math.IsNaN(w) {
			w = 0
		}
		excess[i] = math.Max(w-s.minWeight, 0) + eps
	}
	total := floats.Sum(excess)

	z := make([]float64, n)
	for i := range z {
		z[i] = math.Log(excess[i] / total * free)
	}
	return z
}

func normalize(w []float64) []float64 {
	out := make([]float64, len(w))
	copy(out, w)
	sum := floats.Sum(out)
	if sum > 0 {
		floats.Scale(1/sum, out)
	}
	return out
}
