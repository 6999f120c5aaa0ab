package optimizer

import (
	"fmt"
	"math"

	"github.com/rzzdr/portfolio-pilot/pkg/models"
)

// Insight thresholds
const (
	lowDiversification  = 1.2
	concentrationWeight = 0.5
	weakSharpe          = 0.5
	strongSharpe        = 1.0
	highVolatilityPct   = 20.0
	rebalanceDeltaPct   = 10.0
	longHorizonYears    = 10
	highRiskTolerance   = 0.7
)

// InsightInput is what the insight rules look at
type InsightInput struct {
	Keys          []string
	Weights       []float64
	Current       []float64
	Metrics       models.PortfolioMetrics
	RiskTolerance float64
	Years         int
}

// Insights derives qualitative recommendations from an optimised allocation
func Insights(in InsightInput) []models.Insight {
	insights := make([]models.Insight, 0, 4)
	m := in.Metrics

	switch {
	case m.SharpeRatio >= strongSharpe:
		insights = append(insights, models.Insight{
			Title:   "Strong Risk-Adjusted Return",
			Message: fmt.Sprintf("The suggested allocation earns a Sharpe ratio of %.2f, historically well compensated for its risk.", m.SharpeRatio),
		})
	case m.SharpeRatio < weakSharpe:
		insights = append(insights, models.Insight{
			Title:   "Weak Risk-Adjusted Return",
			Message: fmt.Sprintf("A Sharpe ratio of %.2f means returns have barely compensated for volatility. Consider a longer horizon or a lower risk tolerance.", m.SharpeRatio),
		})
	}

	if m.VolatilityPct > highVolatilityPct {
		insights = append(insights, models.Insight{
			Title:   "High Volatility",
			Message: fmt.Sprintf("Expect annual swings of around %.1f%%. Make sure you can hold through drawdowns.", m.VolatilityPct),
		})
	}

	if m.DiversificationScore > 0 && m.DiversificationScore < lowDiversification {
		insights = append(insights, models.Insight{
			Title:   "Limited Diversification",
			Message: fmt.Sprintf("A diversification score of %.2f shows the assets tend to move together.", m.DiversificationScore),
		})
	}

	for i, w := range in.Weights {
		if w >= concentrationWeight {
			insights = append(insights, models.Insight{
				Title:   "Concentrated Allocation",
				Message: fmt.Sprintf("%s makes up %.0f%% of the portfolio.", displayName(in.Keys[i]), w*100),
			})
		}
	}

	for i := range in.Current {
		if i >= len(in.Weights) {
			break
		}
		delta := (in.Weights[i] - in.Current[i]) * 100
		if math.Abs(delta) <= rebalanceDeltaPct {
			continue
		}
		action := "Increase"
		if delta < 0 {
			action = "Reduce"
		}
		insights = append(insights, models.Insight{
			Title: fmt.Sprintf("%s %s", action, displayName(in.Keys[i])),
			Message: fmt.Sprintf("Move %s from %.1f%% to %.1f%% of the portfolio.",
				displayName(in.Keys[i]), in.Current[i]*100, in.Weights[i]*100),
		})
	}

	if in.Years >= longHorizonYears && in.RiskTolerance >= highRiskTolerance {
		insights = append(insights, models.Insight{
			Title:   "Long Horizon",
			Message: fmt.Sprintf("With %d years to invest and a high risk tolerance, short-term volatility matters less than long-term growth.", in.Years),
		})
	}

	return insights
}

func displayName(key string) string {
	switch key {
	case models.AssetStocks:
		return "Stocks"
	case models.AssetBonds:
		return "Bonds"
	case models.AssetRealEstate:
		return "Real Estate"
	case models.AssetCommodities:
		return "Commodities"
	default:
		return key
	}
}
