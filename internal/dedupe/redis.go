package dedupe

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "trainer-workload:processed:"

// RedisLog keeps processed transaction ids in Redis with an expiry.
type RedisLog struct {
	rdb    goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisLog constructs a RedisLog over an existing client.
func NewRedisLog(rdb goredis.UniversalClient, ttl time.Duration) *RedisLog {
	return &RedisLog{rdb: rdb, ttl: ttl, prefix: defaultKeyPrefix}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Claim stores id with the configured expiry unless the key already exists.
func (l *RedisLog) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.prefix+id, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Release deletes id.
func (l *RedisLog) Release(ctx context.Context, id string) error {
	if err := l.rdb.Del(ctx, l.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
