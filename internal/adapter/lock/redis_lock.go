// Package lock provides the Redis-backed generation lock.
package lock

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hari200698/Mocksy/internal/domain"
)

const keyPrefix = "mocksy:genlock:"

// RedisLock serializes feedback generation per interview using SET NX with
// a TTL. The TTL bounds how long a crashed worker can hold the lock.
type RedisLock struct {
	rdb *redis.Client
}

// NewRedisLock constructs a RedisLock over the given client.
func NewRedisLock(rdb *redis.Client) *RedisLock { return &RedisLock{rdb: rdb} }

// Acquire takes the lock for an interview. Returns false without error when
// another generation run already holds it.
func (l *RedisLock) Acquire(ctx domain.Context, interviewID string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, keyPrefix+interviewID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("op=lock.acquire: %w", err)
	}
	return ok, nil
}

// Release drops the lock. Releasing a lock that already expired is not an
// error.
func (l *RedisLock) Release(ctx domain.Context, interviewID string) error {
	if err := l.rdb.Del(ctx, keyPrefix+interviewID).Err(); err != nil {
		return fmt.Errorf("op=lock.release: %w", err)
	}
	return nil
}
