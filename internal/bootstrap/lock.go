package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker guards the ingestion step against concurrent replicas. TryLock
// returns an unlock func and whether the lock was acquired; unlock is only
// valid when acquired is true.
type Locker interface {
	TryLock(ctx context.Context) (unlock func(), acquired bool, err error)
}

// NoopLocker always grants the lock. Used when no Redis address is
// configured, which preserves the original unguarded single-instance
// behavior.
type NoopLocker struct{}

func (NoopLocker) TryLock(context.Context) (func(), bool, error) {
	return func() {}, true, nil
}

// redisCmdable is the subset of the go-redis client used by RedisLocker,
// extracted so tests can run against miniredis or a fake.
type redisCmdable interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisLocker implements Locker with a SET NX + TTL lease. The TTL bounds
// how long a crashed replica can hold the lock.
type RedisLocker struct {
	client redisCmdable
	key    string
	ttl    time.Duration
}

// NewRedisLocker builds a RedisLocker against the given address.
func NewRedisLocker(addr, password string, db int, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		key:    key,
		ttl:    ttl,
	}
}

// TryLock attempts to take the lease. The returned unlock deletes the key
// only while this process still owns it, so an expired lease taken over by
// another replica is never released from here.
func (l *RedisLocker) TryLock(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquiring ingestion lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// Best-effort release; the TTL is the backstop.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		current, err := l.client.Get(ctx, l.key).Result()
		if err != nil || current != token {
			return
		}
		if err := l.client.Del(ctx, l.key).Err(); err != nil {
			slog.Warn("releasing ingestion lock failed", "error", err)
		}
	}

	return unlock, true, nil
}
