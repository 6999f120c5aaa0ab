package models

import (
	"testing"

	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAllocationRequest() AllocationRequest {
	return AllocationRequest{
		InvestmentAmount: 10000,
		Duration:         5,
		RiskAppetite:     0.5,
		MarketCondition:  "neutral",
		Stocks:           100,
	}
}

func TestAllocationRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *AllocationRequest)
		wantErr string
	}{
		{"valid", func(r *AllocationRequest) {}, ""},
		{"sum within tolerance", func(r *AllocationRequest) { r.Stocks = 60.005; r.Bonds = 40 }, ""},
		{"sum too low", func(r *AllocationRequest) { r.Stocks = 90 }, "must sum to 100%"},
		{"sum too high", func(r *AllocationRequest) { r.Bonds = 0.02 }, "must sum to 100%"},
		{"zero amount", func(r *AllocationRequest) { r.InvestmentAmount = 0 }, "investment_amount"},
		{"zero duration", func(r *AllocationRequest) { r.Duration = 0 }, "duration"},
		{"risk appetite above one", func(r *AllocationRequest) { r.RiskAppetite = 1.5 }, "risk_appetite"},
		{"unknown condition", func(r *AllocationRequest) { r.MarketCondition = "sideways" }, "market_condition"},
		{"negative allocation", func(r *AllocationRequest) { r.Stocks = 110; r.Bonds = -10 }, "bonds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validAllocationRequest()
			tt.mutate(&r)

			err := r.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAllocationRequestCondition(t *testing.T) {
	r := validAllocationRequest()
	r.MarketCondition = " Bull "
	require.NoError(t, r.Validate())
	assert.Equal(t, MarketBull, r.Condition())
}

func TestSuggestionRequestValidate(t *testing.T) {
	base := SuggestionRequest{
		Investment:    5000,
		Duration:      10,
		RiskTolerance: 0.6,
		Stocks:        40,
		Bonds:         30,
		RealEstate:    20,
		Commodities:   10,
	}
	require.NoError(t, base.Validate())
	assert.InDeltaSlice(t, []float64{0.4, 0.3, 0.2, 0.1}, base.Weights(), 1e-12)

	// fractional weights summing to 0.995 are accepted
	loose := base
	loose.Commodities = 9.5
	assert.NoError(t, loose.Validate())

	off := base
	off.Commodities = 5
	assert.Error(t, off.Validate())

	tooLong := base
	tooLong.Duration = 31
	assert.Error(t, tooLong.Validate())

	timid := base
	timid.RiskTolerance = 0
	assert.Error(t, timid.Validate())
}

func TestParseMarketCondition(t *testing.T) {
	c, ok := ParseMarketCondition("BEAR")
	assert.True(t, ok)
	assert.Equal(t, MarketBear, c)

	_, ok = ParseMarketCondition("")
	assert.False(t, ok)
}

func TestAssetKeys(t *testing.T) {
	assert.True(t, IsAssetClass(AssetRealEstate))
	assert.False(t, IsAssetClass("AAPL"))
	assert.True(t, IsStockTicker("NVDA"))
	assert.False(t, IsStockTicker(AssetStocks))
}
