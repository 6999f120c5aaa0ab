// Package app wires configuration into the calculator and its collaborators.
package app

import (
	"github.com/rzzdr/portfolio-pilot/config"
	"github.com/rzzdr/portfolio-pilot/internal/adapters"
	"github.com/rzzdr/portfolio-pilot/internal/optimizer"
	"github.com/rzzdr/portfolio-pilot/internal/risk"
	"github.com/rzzdr/portfolio-pilot/internal/store"
	"github.com/rzzdr/portfolio-pilot/pkg/metrics"
)

// Components are the long-lived objects shared by a process
type Components struct {
	Calculator *risk.Calculator
	Prices     *store.CachedPriceStore
	Results    *store.InMemoryResultStore
}

// Build creates the calculator over CSV price files. recorder may be nil.
func Build(cfg *config.Config, recorder *metrics.Recorder) *Components {
	metricsAdapter := adapters.NewMetricsAdapter(recorder)

	csvStore := store.NewCSVPriceStore(cfg.Data.Dir, cfg.Data.Files, cfg.Data.Tickers)
	prices := store.NewCachedPriceStore(csvStore, cfg.Data.CacheTTL, metricsAdapter)
	results := store.NewInMemoryResultStore(cfg.Data.MaxResults)

	opt := optimizer.New(OptimizerConfig(cfg))
	calculator := risk.NewCalculator(
		CalculatorConfig(cfg),
		prices,
		opt,
		risk.WithResultStore(results, store.NewID),
		risk.WithMetrics(metricsAdapter),
	)

	return &Components{
		Calculator: calculator,
		Prices:     prices,
		Results:    results,
	}
}

// CalculatorConfig maps simulation and risk settings
func CalculatorConfig(cfg *config.Config) risk.CalculatorConfig {
	return risk.CalculatorConfig{
		Iterations:         cfg.Simulation.Iterations,
		TradingDays:        cfg.Simulation.TradingDays,
		Seed:               cfg.Simulation.Seed,
		WorkerCount:        cfg.Simulation.Workers,
		VaRConfidenceLevel: cfg.Risk.VaRConfidenceLevel,
		ESConfidenceLevel:  cfg.Risk.ESConfidenceLevel,
		TailMethod:         risk.ParseTailMethod(cfg.Risk.TailMethod),
		HistoricalDays:     cfg.Risk.HistoricalDays,
	}
}

// OptimizerConfig maps optimizer settings
func OptimizerConfig(cfg *config.Config) optimizer.Config {
	return optimizer.Config{
		MinWeight:     cfg.Optimizer.MinWeight,
		MaxWeight:     cfg.Optimizer.MaxWeight,
		Starts:        cfg.Optimizer.Starts,
		Workers:       cfg.Optimizer.Workers,
		Timeout:       cfg.Optimizer.Timeout,
		Seed:          cfg.Optimizer.Seed,
		MaxIterations: cfg.Optimizer.MaxIterations,
		GradTolerance: cfg.Optimizer.Tolerance,
		RiskFreeRate:  cfg.Optimizer.RiskFreeRate,
		TradingDays:   cfg.Simulation.TradingDays,
	}
}
