package models

import "github.com/shopspring/decimal"

// Insight is a qualitative recommendation derived from portfolio metrics
type Insight struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// PortfolioMetrics describes an allocation in annualised terms
type PortfolioMetrics struct {
	ExpectedReturnPct    float64 `json:"Expected Return (%)"`
	VolatilityPct        float64 `json:"Volatility (%)"`
	SharpeRatio          float64 `json:"Sharpe Ratio"`
	DiversificationScore float64 `json:"Diversification Score"`
}

// OptimizedAllocation is the recommended allocation produced by the suggestions flow.
// Percentages sum to 100 and breakdowns are in the request's currency.
type OptimizedAllocation struct {
	ID                  string                     `json:"id,omitempty"`
	Allocation          map[string]float64         `json:"optimized_allocation"`
	InvestmentBreakdown map[string]decimal.Decimal `json:"investment_breakdown"`
	StockAllocation     map[string]float64         `json:"optimized_stock_allocation,omitempty"`
	StockBreakdown      map[string]decimal.Decimal `json:"stock_investment_breakdown,omitempty"`
	Metrics             PortfolioMetrics           `json:"portfolio_metrics"`
	Insights            []Insight                  `json:"insights"`
}
