package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	got []Event
	err error
}

func (r *recordingSink) Forward(_ context.Context, evt Event) error {
	r.got = append(r.got, evt)
	return r.err
}

func TestBusDeliversToTopicSubscribersAndSinks(t *testing.T) {
	sink := &recordingSink{}
	bus := NewBus(WithSink(sink))

	var filed, paid int
	bus.Subscribe(TopicComplaintFiled, func(context.Context, Event) error {
		filed++
		return nil
	})
	bus.Subscribe(TopicBillPaid, func(context.Context, Event) error {
		paid++
		return nil
	})

	bus.Publish(context.Background(), Event{Topic: TopicComplaintFiled, Key: "c1"})

	assert.Equal(t, 1, filed)
	assert.Equal(t, 0, paid)
	require.Len(t, sink.got, 1)
	assert.False(t, sink.got[0].OccurredAt.IsZero(), "publish stamps the event time")
}

func TestBusIsolatesHandlerFailures(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	bus := NewBus(WithSink(sink))

	second := false
	bus.Subscribe(TopicBillIssued, func(context.Context, Event) error {
		return errors.New("first fails")
	})
	bus.Subscribe(TopicBillIssued, func(context.Context, Event) error {
		second = true
		return nil
	})

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	bus.Publish(context.Background(), Event{Topic: TopicBillIssued, OccurredAt: at})

	assert.True(t, second)
	require.Len(t, sink.got, 1)
	assert.Equal(t, at, sink.got[0].OccurredAt)
}

func TestBusDetachesFromRequestCancellation(t *testing.T) {
	type key struct{}
	sink := &recordingSink{}
	bus := NewBus(WithSink(sink))

	var handlerErr error
	var carried any
	bus.Subscribe(TopicNoticePublished, func(ctx context.Context, _ Event) error {
		handlerErr = ctx.Err()
		carried = ctx.Value(key{})
		return nil
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "req-1"))
	cancel()
	bus.Publish(ctx, Event{Topic: TopicNoticePublished})

	assert.NoError(t, handlerErr)
	assert.Equal(t, "req-1", carried, "request values survive")
	assert.Len(t, sink.got, 1)
}

func TestNilBusPublishIsNoop(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), Event{Topic: TopicNoticePublished})
	})
}
