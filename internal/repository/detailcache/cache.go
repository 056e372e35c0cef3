// Package detailcache is a bounded TTL+LRU cache in front of the exhibit
// detail provider. Lookups are batched: cache first, one batch fetch for the
// misses, then individual fetches for whatever the batch did not resolve.
package detailcache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ucost/exhibitqa/internal/domain"
	"github.com/ucost/exhibitqa/internal/metrics"
)

// itemFetchParallelism bounds concurrent individual fetches.
const itemFetchParallelism = 4

// Fetcher is the consumer interface for the exhibit detail provider.
type Fetcher interface {
	FetchBatch(ctx context.Context, ids []string) ([]domain.ExhibitRecord, error)
	FetchOne(ctx context.Context, id string) (domain.ExhibitRecord, error)
}

type entry struct {
	id         string
	rec        domain.ExhibitRecord
	expires    time.Time
	lastAccess time.Time
}

// Cache decorates a Fetcher with an in-memory LRU. Promote-on-access and
// evict-on-overflow run under one mutex; read-then-move is not atomic
// otherwise.
type Cache struct {
	inner      Fetcher
	ttl        time.Duration
	capacity   int
	cacheTotal *prometheus.CounterVec
	recorder   *metrics.Recorder
	logger     *zap.Logger

	mu    sync.Mutex
	ll    *list.List // front = most recently used
	items map[string]*list.Element

	group singleflight.Group
	now   func() time.Time
}

// New creates a caching decorator. cacheTotal is a counter vec with label
// "result" ("hit"/"miss"), passed explicitly; it and recorder may be nil.
func New(
	inner Fetcher,
	ttl time.Duration,
	capacity int,
	cacheTotal *prometheus.CounterVec,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		inner:      inner,
		ttl:        ttl,
		capacity:   capacity,
		cacheTotal: cacheTotal,
		recorder:   recorder,
		logger:     logger,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// get returns a live cache entry and promotes it to most recently used.
// Expired entries are removed on access.
func (c *Cache) get(id string) (domain.ExhibitRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[id]
	if !ok {
		return domain.ExhibitRecord{}, false
	}
	e := el.Value.(*entry)
	now := c.now()
	if now.After(e.expires) {
		c.ll.Remove(el)
		delete(c.items, id)
		return domain.ExhibitRecord{}, false
	}
	e.lastAccess = now
	c.ll.MoveToFront(el)
	return e.rec, true
}

// put stores a record with a fresh TTL, evicting the least recently used
// entry once the capacity is exceeded.
func (c *Cache) put(id string, rec domain.ExhibitRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if el, ok := c.items[id]; ok {
		e := el.Value.(*entry)
		e.rec = rec
		e.expires = now.Add(c.ttl)
		e.lastAccess = now
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&entry{id: id, rec: rec, expires: now.Add(c.ttl), lastAccess: now})
	c.items[id] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).id)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Hydrate resolves exhibit records for the given identifiers, in the given
// order. Identifiers that neither the cache nor the provider can resolve are
// silently absent from the result; hydration degrades, it does not fail.
func (c *Cache) Hydrate(ctx context.Context, ids []string) []domain.ExhibitRecord {
	found := make(map[string]domain.ExhibitRecord, len(ids))
	var missing []string
	for _, id := range ids {
		if rec, ok := c.get(id); ok {
			c.incCache("hit")
			found[id] = rec
		} else {
			c.incCache("miss")
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		c.recorder.IncBackendBatchCalls()
		metrics.BackendBatchCallsTotal.Inc()
		recs, err := c.inner.FetchBatch(ctx, missing)
		if err != nil {
			c.logger.Warn("Batch detail fetch failed, falling back to individual fetches", zap.Error(err))
			c.recorder.IncErrors()
			metrics.ErrorsTotal.Inc()
		} else {
			for _, rec := range recs {
				if rec.ID == "" {
					continue
				}
				c.put(rec.ID, rec)
				found[rec.ID] = rec
			}
		}

		var unresolved []string
		for _, id := range missing {
			if _, ok := found[id]; !ok {
				unresolved = append(unresolved, id)
			}
		}
		if len(unresolved) > 0 {
			c.fetchIndividually(ctx, unresolved, found)
		}
	}

	out := make([]domain.ExhibitRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := found[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// fetchIndividually resolves the remaining identifiers one by one, a few in
// parallel. Concurrent requests for the same identifier share one fetch.
func (c *Cache) fetchIndividually(ctx context.Context, ids []string, found map[string]domain.ExhibitRecord) {
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(itemFetchParallelism)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			v, err, _ := c.group.Do(id, func() (any, error) {
				c.recorder.IncBackendItemCalls()
				metrics.BackendItemCallsTotal.Inc()
				return c.inner.FetchOne(ctx, id)
			})
			if err != nil {
				if !errors.Is(err, domain.ErrExhibitNotFound) {
					c.logger.Warn("Individual detail fetch failed",
						zap.String("id", id), zap.Error(err))
					c.recorder.IncErrors()
					metrics.ErrorsTotal.Inc()
				}
				return nil
			}
			rec := v.(domain.ExhibitRecord)
			if rec.ID == "" {
				return nil
			}
			c.put(rec.ID, rec)
			mu.Lock()
			found[id] = rec
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}
