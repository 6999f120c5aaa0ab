package risk

import (
	"context"
	"sync"
	"time"

	"github.com/rzzdr/portfolio-pilot/internal/optimizer"
	"github.com/rzzdr/portfolio-pilot/internal/simulation"
	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
	"golang.org/x/sync/errgroup"
)

// Flow names used for results and metrics
const (
	FlowSimulate = "simulation"
	FlowRisk     = "risk_assessment"
	FlowSuggest  = "suggestion"
)

// CalculatorConfig contains configuration for the portfolio calculator
type CalculatorConfig struct {
	Iterations         int
	TradingDays        int
	Seed               uint64
	WorkerCount        int
	VaRConfidenceLevel float64
	ESConfidenceLevel  float64
	TailMethod         TailMethod
	HistoricalDays     int
}

// HistoricalDataStore defines an interface for retrieving closing prices
type HistoricalDataStore interface {
	LoadPrices(ctx context.Context, key string) (models.PriceSeries, error)
}

// ResultStore keeps computed results for later retrieval
type ResultStore interface {
	Save(id, kind string, result interface{}) error
}

// MetricsRecorder observes completed computations
type MetricsRecorder interface {
	RecordSimulation(flow string, assets int, duration time.Duration, err error)
	RecordOptimization(variant string, attempts, succeeded int, duration time.Duration, err error)
}

// IDGenerator returns identifiers for stored results
type IDGenerator func() string

// Calculator runs the simulation, risk-assessment and suggestion flows
type Calculator struct {
	config     CalculatorConfig
	data       HistoricalDataStore
	estimator  *Estimator
	monteCarlo *simulation.MonteCarlo
	gbm        *simulation.GBM
	tail       *TailRiskCalculator
	optimizer  *optimizer.Optimizer
	results    ResultStore
	newID      IDGenerator
	metrics    MetricsRecorder
	log        *logger.Logger
}

// Option configures optional Calculator collaborators
type Option func(*Calculator)

// WithResultStore stores every successful result under a generated ID
func WithResultStore(store ResultStore, newID IDGenerator) Option {
	return func(c *Calculator) {
		c.results = store
		c.newID = newID
	}
}

// WithMetrics records flow durations and outcomes
func WithMetrics(recorder MetricsRecorder) Option {
	return func(c *Calculator) {
		c.metrics = recorder
	}
}

// NewCalculator creates a new portfolio calculator
func NewCalculator(config CalculatorConfig, data HistoricalDataStore, opt *optimizer.Optimizer, opts ...Option) *Calculator {
	if config.Iterations <= 0 {
		config.Iterations = simulation.DefaultIterations
	}
	if config.TradingDays <= 0 {
		config.TradingDays = simulation.DefaultTradingDays
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = len(models.AssetClasses)
	}
	if config.HistoricalDays <= 0 {
		config.HistoricalDays = DefaultTailWindow
	}
	if opt == nil {
		opt = optimizer.New(optimizer.DefaultConfig())
	}

	c := &Calculator{
		config:     config,
		data:       data,
		estimator:  NewEstimator(),
		monteCarlo: simulation.NewMonteCarlo(config.Iterations, config.TradingDays),
		gbm:        simulation.NewGBM(config.TradingDays),
		tail:       NewTailRiskCalculator(config.TailMethod, config.VaRConfidenceLevel, config.ESConfidenceLevel, config.HistoricalDays),
		optimizer:  opt,
		log:        logger.GetLogger("risk.calculator"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Simulate projects the portfolio with both simulators and reports the averaged outcome
func (c *Calculator) Simulate(ctx context.Context, req models.AllocationRequest) (result models.PortfolioResult, err error) {
	start := time.Now()
	defer func() { c.recordSimulation(FlowSimulate, req, start, err) }()

	summary, _, err := c.runAssets(ctx, req)
	if err != nil {
		return models.PortfolioResult{}, err
	}

	result = summary.PortfolioResult()
	result.ID = c.store(FlowSimulate, &result)
	c.log.Infow("Simulation completed",
		"id", result.ID,
		"final_value", result.FinalValue,
		"duration", time.Since(start))
	return result, nil
}

// AssessRisk runs the simulations and adds a risk score and one-day tail risk
func (c *Calculator) AssessRisk(ctx context.Context, req models.AllocationRequest) (assessment models.RiskAssessment, err error) {
	start := time.Now()
	defer func() { c.recordSimulation(FlowRisk, req, start, err) }()

	summary, outcomes, err := c.runAssets(ctx, req)
	if err != nil {
		return models.RiskAssessment{}, err
	}

	var valueAtRisk, shortfall float64
	for _, o := range outcomes {
		valueAtRisk += c.tail.VaR(o.Returns, o.Investment)
		shortfall += c.tail.ExpectedShortfall(o.Returns, o.Investment)
	}

	assessment = models.NewRiskAssessment(
		summary.RiskResult(req.Condition()),
		Round(valueAtRisk, 2),
		Round(shortfall, 2),
	)
	assessment.ID = c.store(FlowRisk, &assessment)
	c.log.Infow("Risk assessment completed",
		"id", assessment.ID,
		"risk_score", assessment.RiskScore,
		"duration", time.Since(start))
	return assessment, nil
}

type assetJob struct {
	index      int
	classIndex int
	asset      string
	investment float64
}

type assetResult struct {
	index   int
	outcome AssetOutcome
	err     error
}

// runAssets simulates every allocated asset class on a bounded worker pool
func (c *Calculator) runAssets(ctx context.Context, req models.AllocationRequest) (Summary, []AssetOutcome, error) {
	if err := req.Validate(); err != nil {
		return Summary{}, nil, err
	}

	jobs := make([]assetJob, 0, len(models.AssetClasses))
	for i, a := range req.Allocations() {
		if a.Percent <= 0 {
			continue
		}
		jobs = append(jobs, assetJob{
			index:      len(jobs),
			classIndex: i,
			asset:      a.Asset,
			investment: req.InvestmentAmount * a.Percent / 100,
		})
	}
	if len(jobs) == 0 {
		return Summary{}, nil, errors.InvalidArgument("at least one asset must have an allocation greater than 0")
	}

	jobCh := make(chan assetJob, len(jobs))
	resultCh := make(chan assetResult, len(jobs))

	var wg sync.WaitGroup
	workerCount := min(c.config.WorkerCount, len(jobs))
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				outcome, err := c.simulateAsset(ctx, req, job)
				resultCh <- assetResult{index: job.index, outcome: outcome, err: err}
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	outcomes := make([]AssetOutcome, len(jobs))
	errs := make([]error, len(jobs))
	for r := range resultCh {
		outcomes[r.index] = r.outcome
		errs[r.index] = r.err
	}
	for i, err := range errs {
		if err != nil {
			c.log.Warnw("Asset simulation failed", "asset", jobs[i].asset, "error", err)
			return Summary{}, nil, err
		}
	}

	summary, err := Summarize(outcomes, req.InvestmentAmount, req.Duration)
	if err != nil {
		return Summary{}, nil, err
	}
	return summary, outcomes, nil
}

func (c *Calculator) simulateAsset(ctx context.Context, req models.AllocationRequest, job assetJob) (AssetOutcome, error) {
	series, err := c.data.LoadPrices(ctx, job.asset)
	if err != nil {
		return AssetOutcome{}, err
	}
	returns, err := c.estimator.Returns(series)
	if err != nil {
		return AssetOutcome{}, err
	}
	adjusted := Adjust(c.estimator.Statistics(series, returns), req.Condition(), req.RiskAppetite)

	params := simulation.Params{
		InitialValue: job.investment,
		MeanReturn:   adjusted.MeanDailyReturn,
		Volatility:   adjusted.DailyVolatility,
		Years:        req.Duration,
	}

	mcSource := simulation.NewSource(c.config.Seed, simulation.AssetStream(simulation.StreamMonteCarlo, job.classIndex))
	mc, err := c.monteCarlo.Simulate(ctx, params, mcSource)
	if err != nil {
		return AssetOutcome{}, errors.Wrapf(err, "monte carlo simulation for %s failed", job.asset)
	}

	gbmSource := simulation.NewSource(c.config.Seed, simulation.AssetStream(simulation.StreamGBM, job.classIndex))
	gbm, err := c.gbm.Simulate(ctx, params, gbmSource)
	if err != nil {
		return AssetOutcome{}, errors.Wrapf(err, "gbm simulation for %s failed", job.asset)
	}

	return AssetOutcome{
		Asset:      job.asset,
		Investment: job.investment,
		Stats:      adjusted,
		Returns:    returns,
		MonteCarlo: mc,
		GBM:        gbm,
	}, nil
}

// loadAll fetches several series concurrently, preserving key order
func (c *Calculator) loadAll(ctx context.Context, keys []string) ([]models.PriceSeries, error) {
	series := make([]models.PriceSeries, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			s, err := c.data.LoadPrices(gctx, key)
			if err != nil {
				return err
			}
			series[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return series, nil
}

func (c *Calculator) store(kind string, result interface{}) string {
	if c.results == nil || c.newID == nil {
		return ""
	}
	id := c.newID()
	if err := c.results.Save(id, kind, result); err != nil {
		c.log.Warnw("Failed to store result", "kind", kind, "error", err)
		return ""
	}
	return id
}

func (c *Calculator) recordSimulation(flow string, req models.AllocationRequest, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	assets := 0
	for _, a := range req.Allocations() {
		if a.Percent > 0 {
			assets++
		}
	}
	c.metrics.RecordSimulation(flow, assets, time.Since(start), err)
}
