//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civic/internal/identity/store/revocation"
	"civic/pkg/testutil/containers"
)

type RedisTRLSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	trl   *revocation.RedisTRL
}

func TestRedisTRLSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisTRLSuite))
}

func (s *RedisTRLSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.trl = revocation.NewRedisTRL(s.redis.Client)
}

func (s *RedisTRLSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisTRLSuite) TestRevokedUntilExpiry() {
	ctx := context.Background()
	s.Require().NoError(s.trl.RevokeToken(ctx, "jti-1", time.Second))

	revoked, err := s.trl.IsRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	s.Eventually(func() bool {
		revoked, err := s.trl.IsRevoked(ctx, "jti-1")
		return err == nil && !revoked
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisTRLSuite) TestUnknownTokenIsNotRevoked() {
	revoked, err := s.trl.IsRevoked(context.Background(), "never-seen")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RedisTRLSuite) TestRevokeUserTokens() {
	ctx := context.Background()
	s.Require().NoError(s.trl.TrackToken(ctx, "user-1", "phone", time.Minute))
	s.Require().NoError(s.trl.TrackToken(ctx, "user-1", "laptop", 2*time.Second))
	s.Require().NoError(s.trl.TrackToken(ctx, "user-2", "other", time.Minute))

	n, err := s.trl.RevokeUserTokens(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(2, n)

	for _, jti := range []string{"phone", "laptop"} {
		revoked, err := s.trl.IsRevoked(ctx, jti)
		s.Require().NoError(err)
		s.True(revoked, jti)
	}
	revoked, err := s.trl.IsRevoked(ctx, "other")
	s.Require().NoError(err)
	s.False(revoked)

	ttl, err := s.redis.Client.TTL(ctx, "trl:jti:laptop").Result()
	s.Require().NoError(err)
	s.LessOrEqual(ttl, 2*time.Second, "revocation expires with the token")

	n, err = s.trl.RevokeUserTokens(ctx, "user-1")
	s.Require().NoError(err)
	s.Zero(n)
}
