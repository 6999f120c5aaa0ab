package optimizer

import (
	"math"
	"sort"
	"time"

	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ReturnData holds aligned daily returns for several assets
type ReturnData struct {
	Keys []string
	// Returns has one row per date and one column per key
	Returns *mat.Dense
	Means   []float64
	Cov     *mat.SymDense
}

// Len returns the number of assets
func (d *ReturnData) Len() int {
	return len(d.Keys)
}

// Volatility returns the standard deviation of asset i's returns
func (d *ReturnData) Volatility(i int) float64 {
	return math.Sqrt(math.Max(d.Cov.At(i, i), 0))
}

// AlignReturns joins the series on the dates they all share and derives
// per-asset daily returns, their means and the sample covariance matrix.
func AlignReturns(series []models.PriceSeries) (*ReturnData, error) {
	if len(series) == 0 {
		return nil, errors.InvalidArgument("no price series to align")
	}

	counts := make(map[time.Time]int)
	lookup := make([]map[time.Time]float64, len(series))
	for i, s := range series {
		lookup[i] = make(map[time.Time]float64, s.Len())
		for _, p := range s.Points {
			if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
				return nil, errors.DegenerateDataf("asset %s has invalid price %v at %s",
					s.Key, p.Close, p.Date.Format("2006-01-02"))
			}
			if _, dup := lookup[i][p.Date]; !dup {
				counts[p.Date]++
			}
			lookup[i][p.Date] = p.Close
		}
	}

	dates := make([]time.Time, 0, len(counts))
	for d, c := range counts {
		if c == len(series) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if len(dates) < 3 {
		return nil, errors.InsufficientData("fewer than 3 common dates across assets")
	}

	keys := make([]string, len(series))
	returns := mat.NewDense(len(dates)-1, len(series), nil)
	for j, s := range series {
		keys[j] = s.Key
		for t := 1; t < len(dates); t++ {
			returns.Set(t-1, j, lookup[j][dates[t]]/lookup[j][dates[t-1]]-1)
		}
	}

	return NewReturnData(keys, returns), nil
}

// NewReturnData derives means and covariance from a returns matrix
func NewReturnData(keys []string, returns *mat.Dense) *ReturnData {
	_, cols := returns.Dims()
	means := make([]float64, cols)
	for j := 0; j < cols; j++ {
		means[j] = stat.Mean(mat.Col(nil, j, returns), nil)
	}
	cov := mat.NewSymDense(cols, nil)
	stat.CovarianceMatrix(cov, returns, nil)

	return &ReturnData{
		Keys:    keys,
		Returns: returns,
		Means:   means,
		Cov:     cov,
	}
}

// PortfolioReturn returns w·mean
func (d *ReturnData) PortfolioReturn(w []float64) float64 {
	return mat.Dot(mat.NewVecDense(len(w), w), mat.NewVecDense(len(d.Means), d.Means))
}

// PortfolioVolatility returns sqrt(wᵀ·Σ·w)
func (d *ReturnData) PortfolioVolatility(w []float64) float64 {
	v := mat.NewVecDense(len(w), w)
	return math.Sqrt(math.Max(mat.Inner(v, d.Cov, v), 0))
}

// checkFinite fails if any return, mean or covariance entry is NaN or infinite
func (d *ReturnData) checkFinite() error {
	r, c := d.Returns.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := d.Returns.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.DegenerateDataf("asset %s has a non-finite return", d.Keys[j])
			}
		}
	}
	for j, m := range d.Means {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return errors.DegenerateDataf("asset %s has a non-finite mean return", d.Keys[j])
		}
	}
	return nil
}

// checkVolatility fails on the first asset with zero historical volatility
func (d *ReturnData) checkVolatility() error {
	for j := range d.Keys {
		if d.Volatility(j) <= 0 {
			return errors.DegenerateDataf("asset %s has zero historical volatility", d.Keys[j])
		}
	}
	return nil
}
