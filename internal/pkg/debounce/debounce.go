package debounce

import (
	"context"
	"time"
)

// Store is a shared set of keys with expiry. Acquire succeeds only for the first
// caller inside the TTL window.
type Store interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
