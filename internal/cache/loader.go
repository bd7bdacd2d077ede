package cache

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/taskboard-backend/internal/observability"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

// Loader collapses concurrent misses for the same key into one computation.
// Cache failures are logged and fall through to the computation.
type Loader struct {
	cache   Cache
	group   singleflight.Group
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewLoader(c Cache, log *logger.Logger, metrics *observability.Metrics) *Loader {
	if c == nil {
		c = Noop{}
	}
	return &Loader{cache: c, log: log.With("component", "CacheLoader"), metrics: metrics}
}

func (l *Loader) Invalidate(ctx context.Context, prefix string) {
	if err := l.cache.DeletePrefix(ctx, prefix); err != nil {
		l.log.Warn("cache invalidation failed", "prefix", prefix, "error", err)
	}
}

// Load returns the cached value under namespace+":"+key or computes and stores it.
func Load[T any](ctx context.Context, l *Loader, namespace, key string, compute func(context.Context) (T, error)) (T, error) {
	full := namespace + ":" + key
	var cached T
	ok, err := l.cache.Get(ctx, full, &cached)
	switch {
	case err != nil:
		l.metrics.ObserveCache(namespace, "error")
		l.log.Warn("cache read failed", "key", full, "error", err)
	case ok:
		l.metrics.ObserveCache(namespace, "hit")
		return cached, nil
	default:
		l.metrics.ObserveCache(namespace, "miss")
	}

	v, err, _ := l.group.Do(full, func() (any, error) {
		fresh, err := compute(ctx)
		if err != nil {
			return fresh, err
		}
		if err := l.cache.Set(ctx, full, fresh); err != nil {
			l.log.Warn("cache write failed", "key", full, "error", err)
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
