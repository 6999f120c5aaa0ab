package optimizer

import (
	"math"
	"sort"

	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/shopspring/decimal"
)

// Metrics annualises the daily statistics of an allocation
func (o *Optimizer) Metrics(data *ReturnData, w []float64) models.PortfolioMetrics {
	days := float64(o.config.TradingDays)
	ret := data.PortfolioReturn(w) * days
	dailyVol := data.PortfolioVolatility(w)
	vol := dailyVol * math.Sqrt(days)

	sharpe := 0.0
	if vol > 0 {
		sharpe = (ret - o.config.RiskFreeRate) / vol
	}

	// weighted average volatility over portfolio volatility
	diversification := 0.0
	if dailyVol > 0 {
		weighted := 0.0
		for i, wi := range w {
			weighted += wi * data.Volatility(i)
		}
		diversification = weighted / dailyVol
	}

	return models.PortfolioMetrics{
		ExpectedReturnPct:    round2(ret * 100),
		VolatilityPct:        round2(vol * 100),
		SharpeRatio:          round2(sharpe),
		DiversificationScore: round2(diversification),
	}
}

// Percentages converts weights to percentages with two decimals that sum to
// exactly 100. Hundredths lost to truncation go to the largest remainders,
// ties to the lower index.
func Percentages(weights []float64) []decimal.Decimal {
	const places = 2
	hundred := decimal.NewFromInt(100)
	unit := decimal.New(1, -places)

	normalized := normalize(weights)
	out := make([]decimal.Decimal, len(normalized))
	remainders := make([]decimal.Decimal, len(normalized))
	total := decimal.Zero
	for i, w := range normalized {
		exact := decimal.NewFromFloat(w).Mul(hundred).Round(places + 6)
		out[i] = exact.Truncate(places)
		remainders[i] = exact.Sub(out[i])
		total = total.Add(out[i])
	}
	if len(out) == 0 {
		return out
	}

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})

	short := hundred.Sub(total).Div(unit).IntPart()
	for k := int64(0); k < short; k++ {
		i := order[int(k)%len(order)]
		out[i] = out[i].Add(unit)
	}
	for k := int64(0); k < -short; k++ {
		i := order[len(order)-1-int(k)%len(order)]
		out[i] = out[i].Sub(unit)
	}
	return out
}

// Breakdown splits an investment by percentages, rounded to cents
func Breakdown(investment float64, percentages []decimal.Decimal) []decimal.Decimal {
	amount := decimal.NewFromFloat(investment)
	hundred := decimal.NewFromInt(100)
	out := make([]decimal.Decimal, len(percentages))
	for i, p := range percentages {
		out[i] = amount.Mul(p).Div(hundred).Round(2)
	}
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
