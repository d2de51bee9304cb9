package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementWithTTLScript increments atomically and arms the expiry only on
// the increment that created the key, so the window TTL is never extended
// by later traffic.
// KEYS[1] = counter key
// ARGV[1] = delta
// ARGV[2] = expiration in seconds
var incrementWithTTLScript = redis.NewScript(`
	local current = redis.call('INCRBY', KEYS[1], ARGV[1])
	if current == tonumber(ARGV[1]) then
		redis.call('EXPIRE', KEYS[1], ARGV[2])
	end
	return current
`)

// RedisCounter is the production Counter. All nodes sharing the Redis
// instance see the same window counts.
type RedisCounter struct {
	client redis.Scripter
}

func NewRedis(client redis.Scripter) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	count, err := incrementWithTTLScript.Run(ctx, c.client, []string{key}, 1, seconds).Int64()
	if err != nil {
		return 0, fmt.Errorf("increment counter %q: %w", key, err)
	}
	return count, nil
}
