package book

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/nimburion/bookshelf/pkg/cache"
	"github.com/nimburion/bookshelf/pkg/observability/logger"
	"github.com/nimburion/bookshelf/pkg/observability/metrics"
	"github.com/nimburion/bookshelf/pkg/observability/tracing"
	"github.com/nimburion/bookshelf/pkg/repository/document"
)

// CachedRepository caches FindByID results in a cache.Store and drops the
// entry whenever the book is updated or deleted. Cache failures are logged and
// otherwise ignored; the wrapped repository stays authoritative.
//
// A miss only fills the cache when no write went through this repository
// while the book was being read, so a read racing an update cannot park the
// old version in the cache for a full TTL.
type CachedRepository struct {
	next   Repository
	store  cache.Store
	ttl    time.Duration
	logger logger.Logger

	writes atomic.Uint64
}

func NewCachedRepository(next Repository, store cache.Store, ttl time.Duration, log logger.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedRepository{next: next, store: store, ttl: ttl, logger: log}
}

func (r *CachedRepository) FindByID(ctx context.Context, id string) (*Book, error) {
	key := cacheKey(id)
	if b, ok := r.lookup(ctx, key); ok {
		return b, nil
	}

	gen := r.writes.Load()
	b, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.writes.Load() == gen {
		r.fill(ctx, key, b)
	}
	return b, nil
}

func (r *CachedRepository) Find(ctx context.Context, opts document.QueryOptions) ([]Book, error) {
	return r.next.Find(ctx, opts)
}

func (r *CachedRepository) Save(ctx context.Context, in Input) (*Book, error) {
	return r.next.Save(ctx, in)
}

func (r *CachedRepository) UpdateFields(ctx context.Context, id string, in Input) (bool, error) {
	key := cacheKey(id)
	r.beginWrite(ctx, key)
	found, err := r.next.UpdateFields(ctx, id, in)
	r.invalidate(ctx, key)
	return found, err
}

func (r *CachedRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	key := cacheKey(id)
	r.beginWrite(ctx, key)
	found, err := r.next.DeleteByID(ctx, id)
	r.invalidate(ctx, key)
	return found, err
}

// beginWrite drops the entry before the write and marks concurrent misses as
// stale. The entry is dropped again once the write lands.
func (r *CachedRepository) beginWrite(ctx context.Context, key string) {
	r.writes.Add(1)
	r.invalidate(ctx, key)
}

func (r *CachedRepository) lookup(ctx context.Context, key string) (*Book, bool) {
	ctx, span := tracing.StartCacheSpan(ctx, tracing.SpanOperationCacheGet, tracing.WithCacheKey(key))
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			tracing.End(span, nil)
		} else {
			tracing.End(span, err)
			r.logger.WithContext(ctx).Warn("book cache read failed", "key", key, "error", err)
		}
		metrics.RecordCacheLookup(false)
		return nil, false
	}
	tracing.End(span, nil)

	var b Book
	if err := json.Unmarshal(raw, &b); err != nil {
		r.logger.WithContext(ctx).Warn("discarding corrupt book cache entry", "key", key, "error", err)
		r.invalidate(ctx, key)
		metrics.RecordCacheLookup(false)
		return nil, false
	}
	metrics.RecordCacheLookup(true)
	return &b, true
}

func (r *CachedRepository) fill(ctx context.Context, key string, b *Book) {
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	ctx, span := tracing.StartCacheSpan(ctx, tracing.SpanOperationCacheSet, tracing.WithCacheKey(key))
	err = r.store.Set(ctx, key, raw, r.ttl)
	tracing.End(span, err)
	if err != nil {
		r.logger.WithContext(ctx).Warn("book cache write failed", "key", key, "error", err)
	}
}

func (r *CachedRepository) invalidate(ctx context.Context, key string) {
	ctx, span := tracing.StartCacheSpan(ctx, tracing.SpanOperationCacheDel, tracing.WithCacheKey(key))
	err := r.store.Delete(ctx, key)
	tracing.End(span, err)
	if err != nil {
		r.logger.WithContext(ctx).Warn("book cache invalidation failed", "key", key, "error", err)
	}
}

func cacheKey(id string) string {
	return "book:" + id
}
