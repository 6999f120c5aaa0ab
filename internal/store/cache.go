package store

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rzzdr/portfolio-pilot/pkg/models"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
	"github.com/rzzdr/portfolio-pilot/pkg/utils/logger"
	"golang.org/x/sync/singleflight"
)

// LoadRecorder observes price loads
type LoadRecorder interface {
	RecordDataLoad(key string, cached bool, duration time.Duration, err error)
}

// CachedPriceStore memoises an underlying PriceStore. Series are immutable so
// cached values are shared between callers; concurrent misses for the same
// key share one underlying load.
type CachedPriceStore struct {
	next     PriceStore
	cache    *cache.Cache
	group    singleflight.Group
	recorder LoadRecorder
	log      *logger.Logger
}

// NewCachedPriceStore wraps next with a TTL cache. recorder may be nil.
func NewCachedPriceStore(next PriceStore, ttl time.Duration, recorder LoadRecorder) *CachedPriceStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := 2 * ttl
	if ttl == cache.NoExpiration {
		cleanup = 0
	}
	return &CachedPriceStore{
		next:     next,
		cache:    cache.New(ttl, cleanup),
		recorder: recorder,
		log:      logger.GetLogger("store.cache"),
	}
}

// LoadPrices returns the cached series for key, loading it on a miss
func (c *CachedPriceStore) LoadPrices(ctx context.Context, key string) (models.PriceSeries, error) {
	start := time.Now()
	if v, found := c.cache.Get(key); found {
		c.record(key, true, start, nil)
		return v.(models.PriceSeries), nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		if v, found := c.cache.Get(key); found {
			return v, nil
		}
		// detached so one caller's cancellation does not fail the others
		series, err := c.next.LoadPrices(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, series, cache.DefaultExpiration)
		return series, nil
	})

	select {
	case <-ctx.Done():
		err := errors.Timeout("price load for " + key + " cancelled")
		c.record(key, false, start, err)
		return models.PriceSeries{}, err
	case res := <-ch:
		c.record(key, false, start, res.Err)
		if res.Err != nil {
			c.log.Warnw("Price load failed", "key", key, "error", res.Err)
			return models.PriceSeries{}, res.Err
		}
		if res.Shared {
			c.log.Debugw("Shared in-flight price load", "key", key)
		}
		return res.Val.(models.PriceSeries), nil
	}
}

// Invalidate drops every cached series
func (c *CachedPriceStore) Invalidate() {
	c.cache.Flush()
}

// Len returns the number of cached series
func (c *CachedPriceStore) Len() int {
	return c.cache.ItemCount()
}

func (c *CachedPriceStore) record(key string, cached bool, start time.Time, err error) {
	if c.recorder != nil {
		c.recorder.RecordDataLoad(key, cached, time.Since(start), err)
	}
}
