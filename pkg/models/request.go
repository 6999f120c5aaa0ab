package models

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
)

// Slack allowed when allocations are checked against 100%. Suggestions compare
// fractional weights against 1 with a 0.01 slack, i.e. one percentage point.
const (
	AllocationSumTolerance = 0.01
	WeightSumTolerance     = 0.01
)

// AssetAllocation is one asset class' share of a request
type AssetAllocation struct {
	Asset   string
	Percent float64
}

// AllocationRequest drives the simulation and risk-assessment flows
type AllocationRequest struct {
	InvestmentAmount float64 `json:"investment_amount" validate:"gt=0"`
	Duration         int     `json:"duration" validate:"gt=0,lte=100"`
	RiskAppetite     float64 `json:"risk_appetite" validate:"gte=0,lte=1"`
	MarketCondition  string  `json:"market_condition" validate:"required,market"`
	Stocks           float64 `json:"stocks" validate:"gte=0,lte=100"`
	Bonds            float64 `json:"bonds" validate:"gte=0,lte=100"`
	RealEstate       float64 `json:"real_estate" validate:"gte=0,lte=100"`
	Commodities      float64 `json:"commodities" validate:"gte=0,lte=100"`
}

// Allocations returns the per-class percentages in reporting order
func (r AllocationRequest) Allocations() []AssetAllocation {
	return []AssetAllocation{
		{Asset: AssetStocks, Percent: r.Stocks},
		{Asset: AssetBonds, Percent: r.Bonds},
		{Asset: AssetRealEstate, Percent: r.RealEstate},
		{Asset: AssetCommodities, Percent: r.Commodities},
	}
}

// Condition returns the parsed market condition; call Validate first
func (r AllocationRequest) Condition() MarketCondition {
	c, _ := ParseMarketCondition(r.MarketCondition)
	return c
}

// Validate checks field ranges and that the allocations sum to 100
func (r AllocationRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return formatValidationErrors(err)
	}
	return checkAllocationSum(r.Allocations(), AllocationSumTolerance)
}

// SuggestionRequest drives the allocation suggestion flow
type SuggestionRequest struct {
	Investment    float64 `json:"investment" validate:"gt=0"`
	Duration      int     `json:"duration" validate:"gte=1,lte=30"`
	RiskTolerance float64 `json:"risk_tolerance" validate:"gte=0.01,lte=1"`
	Stocks        float64 `json:"stocks" validate:"gte=0,lte=100"`
	Bonds         float64 `json:"bonds" validate:"gte=0,lte=100"`
	RealEstate    float64 `json:"real_estate" validate:"gte=0,lte=100"`
	Commodities   float64 `json:"commodities" validate:"gte=0,lte=100"`
}

// Allocations returns the per-class percentages in reporting order
func (r SuggestionRequest) Allocations() []AssetAllocation {
	return []AssetAllocation{
		{Asset: AssetStocks, Percent: r.Stocks},
		{Asset: AssetBonds, Percent: r.Bonds},
		{Asset: AssetRealEstate, Percent: r.RealEstate},
		{Asset: AssetCommodities, Percent: r.Commodities},
	}
}

// Weights returns the starting allocation as fractions in reporting order
func (r SuggestionRequest) Weights() []float64 {
	allocs := r.Allocations()
	weights := make([]float64, len(allocs))
	for i, a := range allocs {
		weights[i] = a.Percent / 100
	}
	return weights
}

// Validate checks field ranges and that the fractional weights sum to 1
func (r SuggestionRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return formatValidationErrors(err)
	}
	return checkAllocationSum(r.Allocations(), WeightSumTolerance*100)
}

func checkAllocationSum(allocs []AssetAllocation, tolerance float64) error {
	total := 0.0
	for _, a := range allocs {
		total += a.Percent
	}
	if math.Abs(total-100) > tolerance+1e-9 {
		return errors.InvalidArgumentf("total asset allocation must sum to 100%%, currently %.2f%%", total)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("market", func(fl validator.FieldLevel) bool {
		_, ok := ParseMarketCondition(fl.Field().String())
		return ok
	})
	return v
}

func formatValidationErrors(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "validation failed")
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		switch fe.Tag() {
		case "market":
			msgs = append(msgs, fmt.Sprintf("%s must be one of bull, bear, neutral", fe.Field()))
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return errors.InvalidArgument(strings.Join(msgs, "; "))
}
