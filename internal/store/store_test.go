package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCSVStore() *CSVPriceStore {
	return NewCSVPriceStore("testdata", map[string]string{
		models.AssetStocks:      "stocks.csv",
		models.AssetBonds:       "bonds.csv",
		models.AssetRealEstate:  "broken.csv",
		models.AssetCommodities: "empty.csv",
	}, []string{"AAPL", "MSFT", "TSLA"})
}

func TestCSVStoreTicker(t *testing.T) {
	series, err := testCSVStore().LoadPrices(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", series.Key)
	assert.Equal(t, []float64{100, 110, 99}, series.Closes())
	assert.True(t, series.Points[0].Date.Before(series.Points[1].Date))
}

func TestCSVStoreStocksIndex(t *testing.T) {
	series, err := testCSVStore().LoadPrices(context.Background(), models.AssetStocks)
	require.NoError(t, err)
	assert.Equal(t, []float64{145, 155, 154.5}, series.Closes())
}

func TestCSVStoreAssetClass(t *testing.T) {
	series, err := testCSVStore().LoadPrices(context.Background(), models.AssetBonds)
	require.NoError(t, err)

	require.Equal(t, 3, series.Len())
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), series.Points[0].Date)
	assert.Equal(t, 50.25, series.Points[2].Close)
}

func TestCSVStoreErrors(t *testing.T) {
	store := testCSVStore()
	ctx := context.Background()

	tests := []struct {
		key      string
		expected errors.ErrorType
	}{
		{"TSLA", errors.ErrorTypeNotFound},
		{"crypto", errors.ErrorTypeNotFound},
		{models.AssetCommodities, errors.ErrorTypeNotFound},
		{models.AssetRealEstate, errors.ErrorTypeDegenerateData},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := store.LoadPrices(ctx, tt.key)
			require.Error(t, err)
			assert.Equal(t, tt.expected, errors.TypeOf(err), err.Error())
		})
	}

	missing := NewCSVPriceStore("testdata", map[string]string{models.AssetBonds: "nope.csv"}, nil)
	_, err := missing.LoadPrices(ctx, models.AssetBonds)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

type countingStore struct {
	calls atomic.Int32
	next  PriceStore
	delay time.Duration
}

func (c *countingStore) LoadPrices(ctx context.Context, key string) (models.PriceSeries, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	return c.next.LoadPrices(ctx, key)
}

type loadRecorder struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (r *loadRecorder) RecordDataLoad(key string, cached bool, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached {
		r.hits++
	} else {
		r.misses++
	}
}

func TestCachedPriceStoreDeduplicates(t *testing.T) {
	mem := NewInMemoryPriceStore()
	mem.Put("bonds", []models.PricePoint{
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: 2},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 1},
	})
	counter := &countingStore{next: mem, delay: 50 * time.Millisecond}
	rec := &loadRecorder{}
	cached := NewCachedPriceStore(counter, time.Minute, rec)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			series, err := cached.LoadPrices(context.Background(), "bonds")
			assert.NoError(t, err)
			assert.Equal(t, []float64{1, 2}, series.Closes())
		}()
	}
	wg.Wait()

	_, err := cached.LoadPrices(context.Background(), "bonds")
	require.NoError(t, err)

	assert.Equal(t, int32(1), counter.calls.Load())
	assert.Equal(t, 1, cached.Len())
	assert.Equal(t, 9, rec.hits+rec.misses)
	assert.GreaterOrEqual(t, rec.hits, 1)

	cached.Invalidate()
	assert.Equal(t, 0, cached.Len())
}

func TestCachedPriceStoreDoesNotCacheErrors(t *testing.T) {
	counter := &countingStore{next: NewInMemoryPriceStore()}
	cached := NewCachedPriceStore(counter, time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, err := cached.LoadPrices(context.Background(), "missing")
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	}
	assert.Equal(t, int32(2), counter.calls.Load())
}

func TestResultStore(t *testing.T) {
	s := NewInMemoryResultStore(2)

	first, second, third := NewID(), NewID(), NewID()
	require.NoError(t, s.Save(first, KindSimulation, map[string]int{"a": 1}))
	require.NoError(t, s.Save(second, KindSuggestion, "b"))
	require.NoError(t, s.Save(third, KindRiskAssessment, "c"))

	_, err := s.Get(first)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	rec, err := s.Get(third)
	require.NoError(t, err)
	assert.Equal(t, KindRiskAssessment, rec.Kind)
	assert.Equal(t, "c", rec.Result)

	require.NoError(t, s.Delete(second))
	assert.Equal(t, 1, s.Len())
	assert.Error(t, s.Delete(second))
	assert.Error(t, s.Save("", KindSimulation, "x"))
}
