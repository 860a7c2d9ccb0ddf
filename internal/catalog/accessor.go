package catalog

import (
	"context"
	"sync"
	"time"

	"brigade/internal/apperr"
	"brigade/internal/cache"
	"brigade/internal/models"
	"brigade/internal/monitoring"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

const namespace = "product"

// Accessor resolves products cache-first with storage fallback. Fresh
// storage reads repopulate the cache for future callers.
type Accessor struct {
	db      *gorm.DB
	store   cache.Store
	ttl     time.Duration
	log     *zap.Logger
	metrics *monitoring.Metrics
}

// NewAccessor creates a read-through product accessor
func NewAccessor(db *gorm.DB, store cache.Store, ttl time.Duration, log *zap.Logger, metrics *monitoring.Metrics) *Accessor {
	return &Accessor{
		db:      db,
		store:   store,
		ttl:     ttl,
		log:     log,
		metrics: metrics,
	}
}

// ResolveProducts resolves a set of product ids to products. The
// result contains an entry for every id found in cache or storage;
// ids that exist in neither are simply absent, and the caller decides
// whether that is fatal. A storage error fails the whole resolution.
func (a *Accessor) ResolveProducts(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	const op = "catalog.ResolveProducts"

	hits, misses := a.probeCache(ctx, dedupe(ids))

	var fresh []models.Product
	if len(misses) > 0 {
		if err := a.db.Where("id IN (?)", misses).Find(&fresh).Error; err != nil {
			return nil, apperr.Internal(op, err)
		}
	}

	return a.mergeAndCache(ctx, hits, fresh), nil
}

// probeCache checks the cache for every id concurrently and partitions
// the ids into hits and misses. Cache errors degrade to misses.
func (a *Accessor) probeCache(ctx context.Context, ids []uint) (map[uint]models.Product, []uint) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		hits   = make(map[uint]models.Product, len(ids))
		misses []uint
	)

	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()

			var product models.Product
			found, err := a.store.Get(ctx, cache.EntityKey(namespace, "detail", id), &product)
			if err != nil {
				a.log.Warn("product cache read failed, treating as miss",
					zap.Uint("product_id", id), zap.Error(err))
				found = false
			}

			mu.Lock()
			defer mu.Unlock()
			if found {
				hits[id] = product
				a.metrics.RecordCacheHit(namespace)
			} else {
				misses = append(misses, id)
				a.metrics.RecordCacheMiss(namespace)
			}
		}(id)
	}
	wg.Wait()

	return hits, misses
}

// mergeAndCache merges cache hits with freshly-loaded products into
// one result map and writes each fresh product back to the cache.
// Population failures are logged and skipped, never fatal.
func (a *Accessor) mergeAndCache(ctx context.Context, hits map[uint]models.Product, fresh []models.Product) map[uint]models.Product {
	result := make(map[uint]models.Product, len(hits)+len(fresh))
	for id, product := range hits {
		result[id] = product
	}

	for _, product := range fresh {
		result[product.ID] = product
		key := cache.EntityKey(namespace, "detail", product.ID)
		if err := a.store.Set(ctx, key, product, a.ttl); err != nil {
			a.log.Warn("product cache population failed",
				zap.Uint("product_id", product.ID), zap.Error(err))
		}
	}

	return result
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
