// Package cache memoizes backend results by request signature for a
// bounded time. Values are stored as encoded bytes and never mutated after
// they are written.
package cache

import (
	"context"
	"time"
)

// Store is an explicit (key, ttl) -> value cache. Get reports a miss with
// ok=false and a nil error; errors mean the store itself failed.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
