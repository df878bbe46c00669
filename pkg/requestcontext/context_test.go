package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "civic/pkg/domain"
)

func TestActor(t *testing.T) {
	t.Run("empty context has no actor", func(t *testing.T) {
		actor := Actor(context.Background())
		assert.False(t, actor.IsAuthenticated())
		assert.Equal(t, id.Role(""), actor.Role)
	})

	t.Run("actor round trips", func(t *testing.T) {
		userID := id.NewUserID()
		ctx := WithActor(context.Background(), userID, id.RoleSupervisor)
		actor := Actor(ctx)
		assert.True(t, actor.IsAuthenticated())
		assert.Equal(t, userID, actor.UserID)
		assert.Equal(t, id.RoleSupervisor, actor.Role)
	})
}

func TestNow(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := WithTime(context.Background(), fixed)
	assert.Equal(t, fixed, Now(ctx))
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)
}

func TestTokenAndMetadata(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	ctx := WithToken(context.Background(), "jti-1", exp)
	ctx = WithClientMetadata(ctx, "10.0.0.1", "curl/8.0")
	ctx = WithRequestID(ctx, "req-1")

	assert.Equal(t, "jti-1", TokenID(ctx))
	assert.Equal(t, exp, TokenExpiry(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "curl/8.0", UserAgent(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
}
