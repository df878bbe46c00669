//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"civic/internal/platform/config"
	platformredis "civic/internal/platform/redis"
)

// RedisContainer is a Redis 7 instance reached through the same client
// wrapper the server uses.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *redis.Client
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	url, err := container.ConnectionString(ctx)
	if err == nil {
		var c *platformredis.Client
		if c, err = platformredis.New(ctx, config.RedisConfig{URL: url, PoolSize: 20}); err == nil {
			return &RedisContainer{Container: container, URL: url, Client: c.Client}
		}
	}
	_ = container.Terminate(ctx)
	t.Fatalf("connect to redis container: %v", err)
	return nil
}

// FlushAll removes every key; suites call it from SetupTest.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
