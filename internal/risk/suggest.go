package risk

import (
	"context"
	"time"

	"github.com/rzzdr/portfolio-pilot/internal/optimizer"
	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/shopspring/decimal"
)

// Optimization variants reported to metrics
const (
	VariantClasses = "asset_classes"
	VariantStocks  = "stocks"
)

// Suggest recommends an asset-class allocation and, when the user holds
// stocks, a split of the stock sleeve across the ticker basket.
func (c *Calculator) Suggest(ctx context.Context, req models.SuggestionRequest) (models.OptimizedAllocation, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return models.OptimizedAllocation{}, err
	}

	series, err := c.loadAll(ctx, models.AssetClasses)
	if err != nil {
		return models.OptimizedAllocation{}, err
	}
	data, err := optimizer.AlignReturns(series)
	if err != nil {
		return models.OptimizedAllocation{}, err
	}

	classStart := time.Now()
	classResult, err := c.optimizer.OptimizeClasses(data, req.Weights(), req.RiskTolerance)
	c.recordOptimization(VariantClasses, 1, boolToInt(err == nil), classStart, err)
	if err != nil {
		c.log.Warnw("Asset class optimization failed", "error", err)
		return models.OptimizedAllocation{}, err
	}

	pcts := optimizer.Percentages(classResult.Weights)
	amounts := optimizer.Breakdown(req.Investment, pcts)
	metrics := c.optimizer.Metrics(data, classResult.Weights)

	suggestion := models.OptimizedAllocation{
		Allocation:          make(map[string]float64, len(pcts)),
		InvestmentBreakdown: make(map[string]decimal.Decimal, len(pcts)),
		Metrics:             metrics,
		Insights: optimizer.Insights(optimizer.InsightInput{
			Keys:          data.Keys,
			Weights:       classResult.Weights,
			Current:       req.Weights(),
			Metrics:       metrics,
			RiskTolerance: req.RiskTolerance,
			Years:         req.Duration,
		}),
	}
	stockAmount := decimal.Zero
	for i, key := range data.Keys {
		suggestion.Allocation[key] = pcts[i].InexactFloat64()
		suggestion.InvestmentBreakdown[key] = amounts[i]
		if key == models.AssetStocks {
			stockAmount = amounts[i]
		}
	}

	if req.Stocks > 0 {
		if err := c.suggestStocks(ctx, req, stockAmount, &suggestion); err != nil {
			return models.OptimizedAllocation{}, err
		}
	}

	suggestion.ID = c.store(FlowSuggest, &suggestion)
	c.log.Infow("Suggestion completed",
		"id", suggestion.ID,
		"sharpe", suggestion.Metrics.SharpeRatio,
		"duration", time.Since(start))
	return suggestion, nil
}

func (c *Calculator) suggestStocks(ctx context.Context, req models.SuggestionRequest, stockAmount decimal.Decimal, suggestion *models.OptimizedAllocation) error {
	series, err := c.loadAll(ctx, models.StockTickers)
	if err != nil {
		return err
	}
	data, err := optimizer.AlignReturns(series)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := c.optimizer.OptimizeStocks(ctx, data, req.RiskTolerance, req.Duration)
	c.recordOptimization(VariantStocks, result.Attempts, result.Succeeded, start, err)
	if err != nil {
		c.log.Warnw("Stock optimization failed", "error", err)
		return err
	}

	pcts := optimizer.Percentages(result.Weights)
	amounts := optimizer.Breakdown(stockAmount.InexactFloat64(), pcts)
	suggestion.StockAllocation = make(map[string]float64, len(pcts))
	suggestion.StockBreakdown = make(map[string]decimal.Decimal, len(pcts))
	for i, ticker := range data.Keys {
		suggestion.StockAllocation[ticker] = pcts[i].InexactFloat64()
		suggestion.StockBreakdown[ticker] = amounts[i]
	}
	return nil
}

func (c *Calculator) recordOptimization(variant string, attempts, succeeded int, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.RecordOptimization(variant, attempts, succeeded, time.Since(start), err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
