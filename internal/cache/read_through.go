package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ReadThrough serves JSON values from the store and fills misses with load.
// Concurrent misses for the same key share one load. Cache failures are
// logged and never fail the read.
type ReadThrough struct {
	store  Store
	ttl    time.Duration
	sf     singleflight.Group
	logger *zap.Logger
}

func NewReadThrough(store Store, ttl time.Duration, logger ...*zap.Logger) *ReadThrough {
	l := zap.L().Named("cache.read_through")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("cache.read_through")
	}
	return &ReadThrough{store: store, ttl: ttl, logger: l}
}

// Fetch decodes the cached value for key into dst, or calls load, stores the
// result and decodes it into dst.
func (r *ReadThrough) Fetch(ctx context.Context, key string, dst any, load func(ctx context.Context) (any, error)) error {
	cached, found, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		if err := json.Unmarshal([]byte(cached), dst); err == nil {
			return nil
		}
		r.logger.Warn("cache entry undecodable, reloading", zap.String("key", key))
	}

	// Waiters share one load; it must not end with the caller that started it.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := r.sf.Do(key, func() (any, error) {
		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := r.store.Set(loadCtx, key, payload, r.ttl); err != nil {
			r.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return payload, nil
	})
	if err != nil {
		return err
	}

	return json.Unmarshal(v.([]byte), dst)
}
