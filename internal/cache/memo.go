package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"cnes-dashboard/internal/common/logger"
	"cnes-dashboard/internal/common/metrics"
	"cnes-dashboard/internal/models"
)

// Memo wraps a Store with load-through semantics. Concurrent callers for the
// same key share one load; only successful loads are written back.
type Memo struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger logger.Logger
}

func NewMemo(store Store, ttl time.Duration, log logger.Logger) *Memo {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Memo{store: store, ttl: ttl, logger: log}
}

func (m *Memo) TTL() time.Duration { return m.ttl }

// Do returns the bytes stored under key, or calls load and stores its result.
// cached reports whether the value came from the store. A failing store is
// treated as a miss.
func (m *Memo) Do(ctx context.Context, queryType models.QueryType, key string, load func(context.Context) ([]byte, error)) (data []byte, cached bool, err error) {
	label := string(queryType)

	if data, ok := m.get(ctx, key); ok {
		metrics.CacheHits.WithLabelValues(label).Inc()
		return data, true, nil
	}
	metrics.CacheMisses.WithLabelValues(label).Inc()

	ch := m.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := detach(ctx)
		defer cancel()

		// a load that finished between our miss and joining the group
		if data, ok := m.get(loadCtx, key); ok {
			return data, nil
		}

		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := m.store.Set(loadCtx, key, value, m.ttl); err != nil {
			metrics.CacheErrors.WithLabelValues("set").Inc()
			m.logger.Warn("Failed to store result in cache", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]byte), false, nil
	}
}

func (m *Memo) get(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := m.store.Get(ctx, key)
	if err != nil {
		metrics.CacheErrors.WithLabelValues("get").Inc()
		m.logger.Warn("Cache lookup failed, loading from backend", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return nil, false
	}
	return data, ok
}

// detach keeps ctx's deadline and values but not its cancellation, so one
// caller going away does not fail a load shared with others.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return base, func() {}
}

// Fetch is Do for JSON-encodable values. Hits and misses both decode from the
// stored bytes, so callers always see the same representation.
func Fetch[T any](ctx context.Context, m *Memo, queryType models.QueryType, key string, load func(context.Context) (T, error)) (T, bool, error) {
	var zero T

	data, cached, err := m.Do(ctx, queryType, key, func(ctx context.Context) ([]byte, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil {
		return zero, false, err
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, false, fmt.Errorf("decode cached %s: %w", queryType, err)
	}
	return out, cached, nil
}
