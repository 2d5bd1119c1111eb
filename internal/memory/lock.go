package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes work on one key. The returned unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process Locker. Waiting honours context cancellation.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	ch      chan struct{}
	waiters int
}

// NewKeyedMutex returns an empty KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until key is free or ctx is done.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[key] = entry
	}
	entry.waiters++
	k.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, entry, false)
		return nil, &LockError{Key: key, Cause: ctx.Err()}
	}

	var once sync.Once
	return func() {
		once.Do(func() { k.release(key, entry, true) })
	}, nil
}

func (k *KeyedMutex) release(key string, entry *keyedEntry, held bool) {
	if held {
		<-entry.ch
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	entry.waiters--
	if entry.waiters == 0 {
		delete(k.locks, key)
	}
}

const redisUnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLocker is a Locker shared by every server instance. Each lock expires after
// ttl so a crashed holder cannot block a profile forever; the version check on save
// catches the rare case where a merge outlives its lock.
type RedisLocker struct {
	client redisLockClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

// NewRedisLocker returns a Redis-backed Locker, or nil when client is nil.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if client == nil {
		return nil
	}
	return newRedisLocker(client, ttl)
}

func newRedisLocker(client redisLockClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		prefix: "memory:lock:",
	}
}

// Lock polls until the key is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, &LockError{Key: key, Cause: err}
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, &LockError{Key: key, Cause: ctx.Err()}
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even when the request context is already cancelled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			l.client.Eval(releaseCtx, redisUnlockScript, []string{redisKey}, token)
		})
	}, nil
}
