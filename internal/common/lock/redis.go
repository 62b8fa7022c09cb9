package lock

import (
	"context"
	"sync"
	"time"

	apperrors "client-onboarding/internal/common/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL     = 2 * time.Minute
	retryInterval  = 100 * time.Millisecond
	releaseTimeout = 3 * time.Second
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds keys with SET NX PX so replicas share one lock space.
// A crashed holder's lock expires after ttl.
type RedisLocker struct {
	client   redis.Cmdable
	ttl      time.Duration
	newToken func() string
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl, newToken: uuid.NewString}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Unlock, error) {
	token := l.newToken()
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return nil, apperrors.NewLockFailedError(key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, apperrors.NewLockFailedError(key, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			// an unreleased key still expires after ttl
			_ = releaseScript.Run(rctx, l.client, []string{key}, token).Err()
		})
	}, nil
}
