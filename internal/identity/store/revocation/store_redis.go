package revocation

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "civic_is_token_revoked_duration_ms",
		Help:    "Latency of token revocation checks in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	revokedTokenKeyPrefix = "trl:jti:"
	// userTokensKeyPrefix holds a sorted set of a user's live token ids
	// scored by expiry in unix milliseconds.
	userTokensKeyPrefix = "trl:user:"
)

// RedisTRL shares revocations across every API instance.
type RedisTRL struct {
	client *redis.Client
}

// NewRedisTRL constructs a Redis-backed token revocation list.
func NewRedisTRL(client *redis.Client) *RedisTRL {
	return &RedisTRL{client: client}
}

// RevokeToken sets a marker key that expires with the token.
func (t *RedisTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	return t.client.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl).Err()
}

// TrackToken adds jti to the user's live set, drops expired members and
// keeps the set alive as long as its newest token.
func (t *RedisTRL) TrackToken(ctx context.Context, userID, jti string, ttl time.Duration) error {
	if jti == "" || userID == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	key := userTokensKeyPrefix + userID
	now := time.Now()
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.Add(ttl).UnixMilli()), Member: jti})
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.UnixMilli(), 10))
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// RevokeUserTokens marks every live token of userID revoked for the rest
// of its lifetime and forgets the set.
func (t *RedisTRL) RevokeUserTokens(ctx context.Context, userID string) (int, error) {
	key := userTokensKeyPrefix + userID
	now := time.Now()
	live, err := t.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(now.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return 0, err
	}
	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, z := range live {
			jti, _ := z.Member.(string)
			ttl := time.UnixMilli(int64(z.Score)).Sub(now)
			if jti == "" || ttl <= 0 {
				continue
			}
			pipe.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl)
		}
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(live), nil
}

// IsRevoked checks for the marker key.
func (t *RedisTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if jti == "" {
		return false, nil
	}
	_, err := t.client.Get(ctx, revokedTokenKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
