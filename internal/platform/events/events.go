// Package events is the in-process domain event bus. Modules publish facts
// after a state change commits; subscribers (the notification dispatcher, the
// Kafka forwarder) react without the publisher knowing about them.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "civic/pkg/domain"
)

// Topics published by the portal modules.
const (
	TopicComplaintFiled         = "complaint.filed"
	TopicComplaintAssigned      = "complaint.assigned"
	TopicComplaintStatusChanged = "complaint.status_changed"
	TopicBillIssued             = "bill.issued"
	TopicBillPaid               = "bill.paid"
	TopicNoticePublished        = "notice.published"
	TopicBudgetCycleClosed      = "budget.cycle_closed"
)

// Event is one published fact. Payload is one of the payload structs below.
type Event struct {
	Topic      string    `json:"topic"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type ComplaintFiled struct {
	ComplaintID id.ComplaintID `json:"complaint_id"`
	CitizenID   id.UserID      `json:"citizen_id"`
	WardID      id.WardID      `json:"ward_id"`
	Title       string         `json:"title"`
}

type ComplaintAssigned struct {
	ComplaintID id.ComplaintID `json:"complaint_id"`
	CitizenID   id.UserID      `json:"citizen_id"`
	AssigneeID  id.UserID      `json:"assignee_id"`
	PreviousID  id.UserID      `json:"previous_assignee_id,omitempty"`
	Title       string         `json:"title"`
}

type ComplaintStatusChanged struct {
	ComplaintID id.ComplaintID `json:"complaint_id"`
	CitizenID   id.UserID      `json:"citizen_id"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Title       string         `json:"title"`
}

type BillIssued struct {
	BillID    id.BillID `json:"bill_id"`
	CitizenID id.UserID `json:"citizen_id"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	DueDate   time.Time `json:"due_date"`
}

type BillPaid struct {
	BillID    id.BillID    `json:"bill_id"`
	PaymentID id.PaymentID `json:"payment_id"`
	CitizenID id.UserID    `json:"citizen_id"`
	Total     int64        `json:"total"`
}

type NoticePublished struct {
	NoticeID id.NoticeID `json:"notice_id"`
	Title    string      `json:"title"`
	Category string      `json:"category"`
	WardIDs  []id.WardID `json:"ward_ids"`
}

type BudgetCycleClosed struct {
	CycleID   id.CycleID      `json:"cycle_id"`
	Funded    []id.ProposalID `json:"funded"`
	TotalCost int64           `json:"total_cost"`
}

// Handler reacts to an event. Errors are logged by the bus, never returned
// to the publisher; a failed notification must not undo a filed complaint.
type Handler func(ctx context.Context, evt Event) error

// Sink receives every event regardless of topic.
type Sink interface {
	Forward(ctx context.Context, evt Event) error
}

// Bus fans events out synchronously to subscribers and sinks.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	sinks    []Sink
	logger   *slog.Logger
}

type Option func(*Bus)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithSink attaches a sink such as the Kafka forwarder.
func WithSink(sink Sink) Option {
	return func(b *Bus) {
		if sink != nil {
			b.sinks = append(b.sinks, sink)
		}
	}
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{handlers: make(map[string][]Handler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers evt to every subscriber of its topic, then to the sinks.
// Delivery is detached from ctx's cancellation: the state change behind evt
// has already committed, so a timed-out or disconnected request must not cut
// it short.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	if b == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[evt.Topic]...)
	sinks := b.sinks
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			b.logError(ctx, "event handler failed", evt, err)
		}
	}
	for _, sink := range sinks {
		if err := sink.Forward(ctx, evt); err != nil {
			b.logError(ctx, "event sink failed", evt, err)
		}
	}
}

func (b *Bus) logError(ctx context.Context, msg string, evt Event, err error) {
	if b.logger == nil {
		return
	}
	b.logger.WarnContext(ctx, msg,
		"topic", evt.Topic,
		"key", evt.Key,
		"error", err,
	)
}
