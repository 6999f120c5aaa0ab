package simulation

import (
	"math"

	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
)

// DefaultTradingDays is the number of trading days in a year
const DefaultTradingDays = 252

// Params describe one asset's allocation and its adjusted return statistics
type Params struct {
	// InitialValue is the dollar amount allocated to the asset
	InitialValue float64
	MeanReturn   float64
	Volatility   float64
	Years        int
}

func (p Params) validate() error {
	switch {
	case math.IsNaN(p.InitialValue) || math.IsInf(p.InitialValue, 0) || p.InitialValue < 0:
		return errors.InvalidArgumentf("initial value must be a finite non-negative number, got %v", p.InitialValue)
	case math.IsNaN(p.MeanReturn) || math.IsInf(p.MeanReturn, 0):
		return errors.DegenerateData("mean return is not finite")
	case math.IsNaN(p.Volatility) || math.IsInf(p.Volatility, 0) || p.Volatility < 0:
		return errors.DegenerateDataf("volatility must be finite and non-negative, got %v", p.Volatility)
	case p.Years <= 0:
		return errors.InvalidArgumentf("duration must be positive, got %d", p.Years)
	}
	return nil
}
