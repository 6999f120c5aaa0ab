package models

// ReturnStatistics summarises a price series' daily percentage changes
type ReturnStatistics struct {
	MeanDailyReturn float64 `json:"mean_daily_return"`
	DailyVolatility float64 `json:"daily_volatility"`
	// MaxDrawdown is the worst peak-to-trough decline as a fraction, always <= 0
	MaxDrawdown float64 `json:"max_drawdown"`
}

// SimulationResult is one simulator's output for one asset's dollar allocation
type SimulationResult struct {
	TerminalValue float64   `json:"terminal_value"`
	YearlyValues  []float64 `json:"yearly_values"`
}

// PortfolioResult is the portfolio-level aggregate of per-asset simulations
type PortfolioResult struct {
	ID                string    `json:"id,omitempty"`
	FinalValue        float64   `json:"Final Total Portfolio Value"`
	ExpectedReturnPct float64   `json:"Final Expected Return (%)"`
	VolatilityPct     float64   `json:"Volatility (%)"`
	SharpeRatio       float64   `json:"Sharpe Ratio"`
	MaxDrawdownPct    float64   `json:"Max Drawdown (%)"`
	YearlyValues      []float64 `json:"Yearly Portfolio Values"`
	YearlyMonteCarlo  []float64 `json:"Yearly Monte Carlo Values,omitempty"`
	YearlyGBM         []float64 `json:"Yearly GBM Values,omitempty"`
	// RiskScore is only set by the risk-assessment flow
	RiskScore *float64 `json:"Risk Score,omitempty"`
}

// RiskAssessment is the risk-assessment response view of a PortfolioResult
type RiskAssessment struct {
	ID                string    `json:"id,omitempty"`
	FinalValue        float64   `json:"Total Profit"`
	ROIPct            float64   `json:"ROI (%)"`
	MaxDrawdownPct    float64   `json:"Max Drawdown (%)"`
	VolatilityScore   float64   `json:"Volatility Score"`
	SharpeRatio       float64   `json:"Reward to Risk Ratio (Sharpe Ratio)"`
	RiskScore         float64   `json:"Risk Score"`
	ValueAtRisk       float64   `json:"Value at Risk (95%)"`
	ExpectedShortfall float64   `json:"Expected Shortfall (97.5%)"`
	YearlyMonteCarlo  []float64 `json:"Yearly Monte Carlo Values"`
	YearlyGBM         []float64 `json:"Yearly GBM Values"`
}

// NewRiskAssessment builds the risk-assessment view from an aggregate and tail-risk figures
func NewRiskAssessment(result PortfolioResult, valueAtRisk, expectedShortfall float64) RiskAssessment {
	score := 0.0
	if result.RiskScore != nil {
		score = *result.RiskScore
	}
	return RiskAssessment{
		ID:                result.ID,
		FinalValue:        result.FinalValue,
		ROIPct:            result.ExpectedReturnPct,
		MaxDrawdownPct:    result.MaxDrawdownPct,
		VolatilityScore:   result.VolatilityPct,
		SharpeRatio:       result.SharpeRatio,
		RiskScore:         score,
		ValueAtRisk:       valueAtRisk,
		ExpectedShortfall: expectedShortfall,
		YearlyMonteCarlo:  result.YearlyMonteCarlo,
		YearlyGBM:         result.YearlyGBM,
	}
}
