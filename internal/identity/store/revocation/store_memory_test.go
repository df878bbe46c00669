package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic/pkg/platform/sentinel"
)

func TestInMemoryTRL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	trl := NewInMemoryTRL()
	trl.now = func() time.Time { return now }

	require.NoError(t, trl.RevokeToken(ctx, "jti-1", time.Minute))

	revoked, err := trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = trl.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(time.Minute)
	revoked, err = trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry expires with the token")
}

func TestInMemoryTRLRejectsNonPositiveTTL(t *testing.T) {
	err := NewInMemoryTRL().RevokeToken(context.Background(), "jti", 0)
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
}

func TestEmptyJTIIsIgnored(t *testing.T) {
	trl := NewInMemoryTRL()
	require.NoError(t, trl.RevokeToken(context.Background(), "", time.Minute))
	revoked, err := trl.IsRevoked(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryRevokeUserTokens(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	trl := NewInMemoryTRL()
	trl.now = func() time.Time { return now }

	require.NoError(t, trl.TrackToken(ctx, "user-1", "phone", 15*time.Minute))
	require.NoError(t, trl.TrackToken(ctx, "user-1", "laptop", time.Minute))
	require.NoError(t, trl.TrackToken(ctx, "user-1", "old", time.Second))
	require.NoError(t, trl.TrackToken(ctx, "user-2", "other", 15*time.Minute))

	now = now.Add(2 * time.Second)
	n, err := trl.RevokeUserTokens(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "expired token is not counted")

	for _, jti := range []string{"phone", "laptop"} {
		revoked, err := trl.IsRevoked(ctx, jti)
		require.NoError(t, err)
		assert.True(t, revoked, jti)
	}
	revoked, err := trl.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked, "other users keep their sessions")

	// Revocation lasts only as long as each token would have.
	now = now.Add(2 * time.Minute)
	revoked, err = trl.IsRevoked(ctx, "laptop")
	require.NoError(t, err)
	assert.False(t, revoked)
	revoked, err = trl.IsRevoked(ctx, "phone")
	require.NoError(t, err)
	assert.True(t, revoked)

	n, err = trl.RevokeUserTokens(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, n, "set is forgotten after revocation")
}

func TestInMemoryTrackTokenValidates(t *testing.T) {
	trl := NewInMemoryTRL()
	assert.ErrorIs(t, trl.TrackToken(context.Background(), "user-1", "jti", 0), sentinel.ErrInvalidState)
	require.NoError(t, trl.TrackToken(context.Background(), "", "jti", time.Minute))
	n, err := trl.RevokeUserTokens(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, n)
}
