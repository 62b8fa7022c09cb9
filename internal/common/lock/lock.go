// Package lock serializes work on the same client across requests.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backends accepted by locking.backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

// Locker grants exclusive access to a key.
type Locker interface {
	// Acquire blocks until the key is free or ctx is done.
	Acquire(ctx context.Context, key string) (Unlock, error)
}

// New returns the locker for backend. rdb is required for the redis backend.
func New(backend string, rdb redis.Cmdable, ttl time.Duration) (Locker, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryLocker(), nil
	case BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis locking requires a redis client")
		}
		return NewRedisLocker(rdb, ttl), nil
	default:
		return nil, fmt.Errorf("unknown locking backend %q", backend)
	}
}
