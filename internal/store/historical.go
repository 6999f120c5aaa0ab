package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
)

// PriceStore loads closing price histories by asset-class key or ticker
type PriceStore interface {
	LoadPrices(ctx context.Context, key string) (models.PriceSeries, error)
}

// InMemoryPriceStore implements an in-memory price store
type InMemoryPriceStore struct {
	series map[string]models.PriceSeries
	mu     sync.RWMutex
	log    *logger.Logger
}

// NewInMemoryPriceStore creates a new in-memory price store
func NewInMemoryPriceStore() *InMemoryPriceStore {
	return &InMemoryPriceStore{
		series: make(map[string]models.PriceSeries),
		log:    logger.GetLogger("store.memory"),
	}
}

// Put stores a copy of points under key, sorted ascending by date
func (s *InMemoryPriceStore) Put(key string, points []models.PricePoint) {
	sorted := make([]models.PricePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[key] = models.PriceSeries{Key: key, Points: sorted}
}

// LoadPrices retrieves the series stored under key
func (s *InMemoryPriceStore) LoadPrices(ctx context.Context, key string) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, errors.Timeout("price load cancelled")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	series, exists := s.series[key]
	if !exists || series.Len() == 0 {
		return models.PriceSeries{}, errors.NotFound("no price data for " + key)
	}
	return series, nil
}

// Keys returns the stored keys in sorted order
func (s *InMemoryPriceStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.series))
	for k := range s.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
