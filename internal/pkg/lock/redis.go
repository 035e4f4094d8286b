package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "lock:"

// Deletes the key only when it still carries our token, so an expired lease
// cannot remove a newer holder.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extendScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker shares leases between API replicas through redis
type RedisLocker struct {
	rdb goredis.UniversalClient
}

// NewRedisLocker wraps a connected redis client
func NewRedisLocker(rdb goredis.UniversalClient) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

// Acquire uses SET NX PX with a random token
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &redisLease{rdb: l.rdb, key: key, token: token}, nil
}

type redisLease struct {
	rdb   goredis.UniversalClient
	key   string
	token string
}

func (l *redisLease) Key() string { return l.key }

func (l *redisLease) Extend(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	n, err := extendScript.Run(ctx, l.rdb, []string{keyPrefix + l.key}, l.token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to extend lock %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

func (l *redisLease) Release(ctx context.Context) error {
	// The run context may already be canceled; release must still reach redis.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
	}
	err := releaseScript.Run(ctx, l.rdb, []string{keyPrefix + l.key}, l.token).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}
