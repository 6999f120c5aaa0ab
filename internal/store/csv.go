package store

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
)

// Column names recognised in price files
const (
	dateColumn   = "Date"
	closeColumn  = "Close"
	tickerColumn = "Ticker"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// CSVPriceStore reads one CSV file per asset class. Tickers are rows of the
// stocks file selected by its Ticker column.
type CSVPriceStore struct {
	dir     string
	files   map[string]string
	tickers []string
	log     *logger.Logger
}

// NewCSVPriceStore creates a CSV-backed price store. files maps asset-class
// keys to file names relative to dir.
func NewCSVPriceStore(dir string, files map[string]string, tickers []string) *CSVPriceStore {
	if len(tickers) == 0 {
		tickers = models.StockTickers
	}
	return &CSVPriceStore{
		dir:     dir,
		files:   files,
		tickers: tickers,
		log:     logger.GetLogger("store.csv"),
	}
}

// LoadPrices loads the series for an asset class or stock ticker
func (s *CSVPriceStore) LoadPrices(ctx context.Context, key string) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, errors.Timeout("price load cancelled")
	}

	switch {
	case s.isTicker(key):
		rows, hasTicker, err := s.readFile(models.AssetStocks)
		if err != nil {
			return models.PriceSeries{}, err
		}
		if !hasTicker {
			return models.PriceSeries{}, errors.NotFoundf("stocks file has no %s column for %s", tickerColumn, key)
		}
		return buildSeries(key, filterTicker(rows, key))

	case s.files[key] != "":
		rows, hasTicker, err := s.readFile(key)
		if err != nil {
			return models.PriceSeries{}, err
		}
		if hasTicker {
			return buildSeries(key, meanByDate(rows))
		}
		return buildSeries(key, rows)

	default:
		return models.PriceSeries{}, errors.NotFound("unknown asset key " + key)
	}
}

func (s *CSVPriceStore) isTicker(key string) bool {
	for _, t := range s.tickers {
		if t == key {
			return true
		}
	}
	return false
}

type priceRow struct {
	date   time.Time
	close  float64
	ticker string
}

func (s *CSVPriceStore) readFile(key string) ([]priceRow, bool, error) {
	path := filepath.Join(s.dir, s.files[key])
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, errors.NotFoundf("data file for %s not found: %s", key, path)
		}
		return nil, false, errors.Wrapf(err, "failed to open data file for %s", key)
	}
	defer f.Close()

	s.log.Debugw("Loading price file", "key", key, "path", path)
	return parsePrices(key, f)
}

func parsePrices(key string, r io.Reader) ([]priceRow, bool, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, false, errors.NotFoundf("data file for %s is empty", key)
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to read header for %s", key)
	}

	dateIdx, closeIdx, tickerIdx := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case dateColumn:
			dateIdx = i
		case closeColumn:
			closeIdx = i
		case tickerColumn:
			tickerIdx = i
		}
	}
	if dateIdx < 0 || closeIdx < 0 {
		return nil, false, errors.DegenerateDataf("data file for %s needs %s and %s columns", key, dateColumn, closeColumn)
	}

	var rows []priceRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, errors.Wrapf(err, "failed to read %s line %d", key, line)
		}
		if len(record) <= max(dateIdx, closeIdx) {
			return nil, false, errors.DegenerateDataf("%s line %d has too few columns", key, line)
		}

		date, err := parseDate(record[dateIdx])
		if err != nil {
			return nil, false, errors.DegenerateDataf("%s line %d: invalid date %q", key, line, record[dateIdx])
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[closeIdx]), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, false, errors.DegenerateDataf("%s line %d: invalid close %q", key, line, record[closeIdx])
		}

		row := priceRow{date: date, close: price}
		if tickerIdx >= 0 && tickerIdx < len(record) {
			row.ticker = strings.TrimSpace(record[tickerIdx])
		}
		rows = append(rows, row)
	}

	return rows, tickerIdx >= 0, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func filterTicker(rows []priceRow, ticker string) []priceRow {
	out := make([]priceRow, 0, len(rows)/4)
	for _, r := range rows {
		if r.ticker == ticker {
			out = append(out, r)
		}
	}
	return out
}

// meanByDate collapses multi-ticker rows into an equal-weight mean close per date
func meanByDate(rows []priceRow) []priceRow {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, r := range rows {
		sums[r.date] += r.close
		counts[r.date]++
	}
	out := make([]priceRow, 0, len(sums))
	for d, sum := range sums {
		out = append(out, priceRow{date: d, close: sum / float64(counts[d])})
	}
	return out
}

func buildSeries(key string, rows []priceRow) (models.PriceSeries, error) {
	if len(rows) == 0 {
		return models.PriceSeries{}, errors.NotFound("no price data for " + key)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })
	points := make([]models.PricePoint, len(rows))
	for i, r := range rows {
		points[i] = models.PricePoint{Date: r.date, Close: r.close}
	}
	return models.PriceSeries{Key: key, Points: points}, nil
}
