package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	id "civic/pkg/domain"
	audit "civic/pkg/platform/audit"
	"civic/pkg/platform/audit/store/memory"
)

// gatedStore holds every Append until release is closed.
type gatedStore struct {
	*memory.InMemoryStore
	release chan struct{}
}

func (s *gatedStore) Append(ctx context.Context, event audit.Event) error {
	<-s.release
	return s.InMemoryStore.Append(ctx, event)
}

func TestSyncEmitFillsDefaults(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	citizen := id.NewUserID()
	paidAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, pub.Emit(t.Context(), audit.Event{UserID: citizen, Action: string(audit.EventComplaintFiled)}))
	require.NoError(t, pub.Emit(t.Context(), audit.Event{UserID: citizen, Action: string(audit.EventBillPaid), Timestamp: paidAt}))
	require.NoError(t, pub.Emit(t.Context(), audit.Event{UserID: citizen, Action: string(audit.EventLoginFailed)}))

	events, err := pub.List(t.Context(), citizen)
	require.NoError(t, err)
	require.Len(t, events, 3)

	byAction := map[string]audit.Event{}
	for _, e := range events {
		byAction[e.Action] = e
	}
	filed := byAction[string(audit.EventComplaintFiled)]
	assert.False(t, filed.Timestamp.IsZero())
	assert.Equal(t, audit.CategoryOperations, filed.Category)

	paid := byAction[string(audit.EventBillPaid)]
	assert.True(t, paid.Timestamp.Equal(paidAt))
	assert.Equal(t, audit.CategoryCompliance, paid.Category)

	assert.Equal(t, audit.CategorySecurity, byAction[string(audit.EventLoginFailed)].Category)
}

func TestAsyncCloseDrainsBuffer(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(32))
	citizen := id.NewUserID()
	for range 10 {
		require.NoError(t, pub.Emit(t.Context(), audit.Event{UserID: citizen, Action: string(audit.EventVoteCast)}))
	}
	pub.Close()
	pub.Close()

	events, err := store.ListByUser(t.Context(), citizen)
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestAsyncFullBufferDrops(t *testing.T) {
	store := &gatedStore{InMemoryStore: memory.NewInMemoryStore(), release: make(chan struct{})}
	pub := NewPublisher(store, WithAsyncBuffer(1))
	citizen := id.NewUserID()

	// The drain goroutine may already hold one event; keep emitting until
	// the buffer refuses.
	var err error
	for range 3 {
		if err = pub.Emit(t.Context(), audit.Event{UserID: citizen, Action: string(audit.EventVoteCast)}); err != nil {
			break
		}
	}
	require.ErrorIs(t, err, ErrBufferFull)

	close(store.release)
	pub.Close()
	events, err := store.ListByUser(t.Context(), citizen)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}

func TestAsyncEmitHonoursCancellation(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(4))
	defer pub.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	err := pub.Emit(ctx, audit.Event{UserID: id.NewUserID(), Action: string(audit.EventNoticePublished)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecentAcrossUsers(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, pub.Emit(t.Context(), audit.Event{
			UserID:    id.NewUserID(),
			Action:    string(audit.EventUserRegistered),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := pub.Recent(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp), "newest first")
}
