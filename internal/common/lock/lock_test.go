package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "client-onboarding/internal/common/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	l := NewMemoryLocker()
	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Acquire(context.Background(), "onboarding:client:acme")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Equal(t, 0, l.Len())
}

func TestMemoryLocker_IndependentKeys(t *testing.T) {
	l := NewMemoryLocker()
	unlockA, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Acquire(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestMemoryLocker_ContextCancelled(t *testing.T) {
	l := NewMemoryLocker()
	unlock, err := l.Acquire(context.Background(), "acme")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "acme")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLockFailed))

	unlock()
	unlock()
	assert.Equal(t, 0, l.Len())
}

func TestRedisLocker_Miniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	first := NewRedisLocker(rdb, time.Minute)
	second := NewRedisLocker(rdb, time.Minute)

	unlock, err := first.Acquire(context.Background(), "onboarding:client:acme")
	require.NoError(t, err)
	assert.True(t, mr.Exists("onboarding:client:acme"))

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	_, err = second.Acquire(ctx, "onboarding:client:acme")
	assert.True(t, errors.Is(err, apperrors.ErrLockFailed))

	unlock()
	assert.False(t, mr.Exists("onboarding:client:acme"))

	unlock2, err := second.Acquire(context.Background(), "onboarding:client:acme")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedisLocker(rdb, time.Second)
	unlock, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)

	// expired and taken over by another holder
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("k", "someone-else"))

	unlock()
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_Redismock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewRedisLocker(client, 2*time.Minute)
	l.newToken = func() string { return "token-1" }

	mock.ExpectSetNX("onboarding:client:acme", "token-1", 2*time.Minute).SetVal(true)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{"onboarding:client:acme"}, "token-1").SetVal(int64(1))

	unlock, err := l.Acquire(context.Background(), "onboarding:client:acme")
	require.NoError(t, err)
	unlock()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_BackendError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewRedisLocker(client, time.Minute)
	l.newToken = func() string { return "t" }

	mock.ExpectSetNX("k", "t", time.Minute).SetErr(errors.New("connection refused"))

	_, err := l.Acquire(context.Background(), "k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLockFailed))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNew(t *testing.T) {
	l, err := New("", nil, 0)
	require.NoError(t, err)
	assert.IsType(t, &MemoryLocker{}, l)

	_, err = New(BackendRedis, nil, time.Minute)
	assert.Error(t, err)

	client, _ := redismock.NewClientMock()
	l, err = New(BackendRedis, client, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultTTL, l.(*RedisLocker).ttl)

	_, err = New("zookeeper", nil, 0)
	assert.Error(t, err)
}
