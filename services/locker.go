package services

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker gives short-lived mutual exclusion per workflow entity. Acquire
// returns ErrLocked when another holder has the key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

const lockTTL = 30 * time.Second

// releaseScript deletes the key only if we still own it
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker shares locks across every API instance.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, prefix: "microtask:lock:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	fullKey := l.prefix + key

	ok, err := l.client.SetNX(ctx, fullKey, token, lockTTL).Result()
	if err != nil {
		return nil, internal("failed to acquire lock", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		releaseScript.Run(context.Background(), l.client, []string{fullKey}, token)
	}, nil
}

// LocalLocker serialises within one process. Used when Redis is absent.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]struct{}{}}
}

func (l *LocalLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, ErrLocked
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
