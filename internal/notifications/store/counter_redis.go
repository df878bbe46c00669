package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	id "civic/pkg/domain"
)

const (
	unreadKeyPrefix = "notif:unread:"
	unreadTTL       = 24 * time.Hour
)

// adjustScript applies a delta only to an existing key and clamps at zero.
var adjustScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return nil
end
local n = redis.call('INCRBY', KEYS[1], ARGV[1])
if n < 0 then
	redis.call('SET', KEYS[1], 0, 'KEEPTTL')
	n = 0
end
return n
`)

// RedisCounter shares unread counts across API instances.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func unreadKey(userID id.UserID) string {
	return unreadKeyPrefix + userID.String()
}

func (c *RedisCounter) Get(ctx context.Context, userID id.UserID) (int, bool, error) {
	n, err := c.client.Get(ctx, unreadKey(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *RedisCounter) Set(ctx context.Context, userID id.UserID, n int) error {
	return c.client.Set(ctx, unreadKey(userID), max(n, 0), unreadTTL).Err()
}

func (c *RedisCounter) Adjust(ctx context.Context, userID id.UserID, delta int) error {
	err := adjustScript.Run(ctx, c.client, []string{unreadKey(userID)}, delta).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
