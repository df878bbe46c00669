// Package dispatch turns domain events into user notifications.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"civic/internal/notifications/models"
	"civic/internal/platform/events"
	id "civic/pkg/domain"
)

// Notifier stores one notification, honouring the recipient's preferences.
type Notifier interface {
	Notify(ctx context.Context, userID id.UserID, kind models.Kind, title, body, link string) (*models.Notification, error)
}

// Residents resolves the citizens of a ward; a nil ward means everyone.
type Residents interface {
	ListCitizenIDsInWard(ctx context.Context, wardID id.WardID) ([]id.UserID, error)
}

// Subscriber is the part of the event bus the dispatcher needs.
type Subscriber interface {
	Subscribe(topic string, h events.Handler)
}

const defaultFanOut = 8

type Dispatcher struct {
	notifier  Notifier
	residents Residents
	logger    *slog.Logger
	fanOut    int
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithFanOut bounds concurrent deliveries for broadcast events.
func WithFanOut(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.fanOut = n
		}
	}
}

func New(notifier Notifier, residents Residents, opts ...Option) *Dispatcher {
	d := &Dispatcher{notifier: notifier, residents: residents, fanOut: defaultFanOut}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Register subscribes the dispatcher to every topic it translates.
func (d *Dispatcher) Register(bus Subscriber) {
	bus.Subscribe(events.TopicComplaintStatusChanged, d.complaintStatusChanged)
	bus.Subscribe(events.TopicComplaintAssigned, d.complaintAssigned)
	bus.Subscribe(events.TopicBillIssued, d.billIssued)
	bus.Subscribe(events.TopicBillPaid, d.billPaid)
	bus.Subscribe(events.TopicNoticePublished, d.noticePublished)
}

func payload[T any](evt events.Event) (T, error) {
	switch p := evt.Payload.(type) {
	case T:
		return p, nil
	case *T:
		if p != nil {
			return *p, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unexpected payload %T for %s", evt.Payload, evt.Topic)
}

func (d *Dispatcher) notify(ctx context.Context, userID id.UserID, kind models.Kind, title, body, link string) error {
	if userID.IsNil() {
		return nil
	}
	_, err := d.notifier.Notify(ctx, userID, kind, title, body, link)
	return err
}

func (d *Dispatcher) complaintStatusChanged(ctx context.Context, evt events.Event) error {
	p, err := payload[events.ComplaintStatusChanged](evt)
	if err != nil {
		return err
	}
	return d.notify(ctx, p.CitizenID, models.KindComplaint,
		fmt.Sprintf("Complaint %s", humanStatus(p.To)),
		fmt.Sprintf("%q moved from %s to %s.", p.Title, humanStatus(p.From), humanStatus(p.To)),
		"/complaints/"+p.ComplaintID.String())
}

func (d *Dispatcher) complaintAssigned(ctx context.Context, evt events.Event) error {
	p, err := payload[events.ComplaintAssigned](evt)
	if err != nil {
		return err
	}
	return d.notify(ctx, p.AssigneeID, models.KindAssignment,
		"New complaint assigned",
		fmt.Sprintf("You have been assigned %q.", p.Title),
		"/staff/complaints/"+p.ComplaintID.String())
}

func (d *Dispatcher) billIssued(ctx context.Context, evt events.Event) error {
	p, err := payload[events.BillIssued](evt)
	if err != nil {
		return err
	}
	return d.notify(ctx, p.CitizenID, models.KindBilling,
		fmt.Sprintf("New %s bill", p.Kind),
		fmt.Sprintf("Amount %s due %s.", formatAmount(p.Amount), p.DueDate.Format("2 Jan 2006")),
		"/bills/"+p.BillID.String())
}

func (d *Dispatcher) billPaid(ctx context.Context, evt events.Event) error {
	p, err := payload[events.BillPaid](evt)
	if err != nil {
		return err
	}
	return d.notify(ctx, p.CitizenID, models.KindBilling,
		"Payment received",
		fmt.Sprintf("We received %s. Thank you.", formatAmount(p.Total)),
		"/bills/"+p.BillID.String())
}

// noticePublished notifies every citizen the notice reaches. Citizens in
// several targeted wards hear about it once. A failed delivery is logged and
// the rest of the fan-out carries on.
func (d *Dispatcher) noticePublished(ctx context.Context, evt events.Event) error {
	p, err := payload[events.NoticePublished](evt)
	if err != nil {
		return err
	}
	wards := p.WardIDs
	if len(wards) == 0 {
		wards = []id.WardID{{}}
	}
	seen := make(map[id.UserID]bool)
	var recipients []id.UserID
	for _, wardID := range wards {
		ids, err := d.residents.ListCitizenIDsInWard(ctx, wardID)
		if err != nil {
			return fmt.Errorf("resolve notice recipients: %w", err)
		}
		for _, userID := range ids {
			if !seen[userID] {
				seen[userID] = true
				recipients = append(recipients, userID)
			}
		}
	}

	link := "/notices/" + p.NoticeID.String()
	var (
		g      errgroup.Group
		failed atomic.Int64
	)
	g.SetLimit(d.fanOut)
	for _, userID := range recipients {
		g.Go(func() error {
			if err := d.notify(ctx, userID, models.KindNotice, p.Title, "New "+p.Category+" notice.", link); err != nil {
				failed.Add(1)
				d.logger.WarnContext(ctx, "notice delivery failed",
					"notice_id", p.NoticeID.String(), "user_id", userID.String(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	d.logger.InfoContext(ctx, "notice fan-out complete",
		"notice_id", p.NoticeID.String(), "recipients", len(recipients), "failed", failed.Load())
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("notice fan-out: %d of %d deliveries failed", n, len(recipients))
	}
	return nil
}
