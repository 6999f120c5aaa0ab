package models

import (
	"strings"
	"time"
)

// Asset-class keys understood by the historical data provider
const (
	AssetStocks      = "stocks"
	AssetBonds       = "bonds"
	AssetRealEstate  = "real_estate"
	AssetCommodities = "commodities"
)

// AssetClasses lists the asset classes in reporting order
var AssetClasses = []string{AssetStocks, AssetBonds, AssetRealEstate, AssetCommodities}

// StockTickers is the fixed basket used for intra-class stock allocation
var StockTickers = []string{"AAPL", "GOOGL", "MSFT", "TSLA", "NVDA"}

// IsAssetClass reports whether key names one of the four asset classes
func IsAssetClass(key string) bool {
	for _, c := range AssetClasses {
		if c == key {
			return true
		}
	}
	return false
}

// IsStockTicker reports whether key names one of the basket tickers
func IsStockTicker(key string) bool {
	for _, t := range StockTickers {
		if t == key {
			return true
		}
	}
	return false
}

// MarketCondition is the scenario applied to historical mean returns
type MarketCondition string

const (
	MarketBull    MarketCondition = "bull"
	MarketBear    MarketCondition = "bear"
	MarketNeutral MarketCondition = "neutral"
)

// ParseMarketCondition normalizes s and reports whether it is a known condition
func ParseMarketCondition(s string) (MarketCondition, bool) {
	switch c := MarketCondition(strings.ToLower(strings.TrimSpace(s))); c {
	case MarketBull, MarketBear, MarketNeutral:
		return c, true
	default:
		return "", false
	}
}

// PricePoint is a single closing price
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is an ascending-by-date closing price history for one asset key.
// It is never modified after the data provider builds it.
type PriceSeries struct {
	Key    string       `json:"key"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of observations
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Closes returns a fresh slice of the closing prices
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}
