package dispatch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic/internal/notifications/models"
	"civic/internal/notifications/service"
	"civic/internal/notifications/store"
	"civic/internal/platform/events"
	"civic/internal/platform/logger"
	id "civic/pkg/domain"
	"civic/pkg/requestcontext"
)

type sent struct {
	userID id.UserID
	kind   models.Kind
	title  string
	link   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
	fail id.UserID
}

func (r *recordingNotifier) Notify(ctx context.Context, userID id.UserID, kind models.Kind, title, _, link string) (*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if userID == r.fail {
		return nil, errors.New("store unavailable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{userID: userID, kind: kind, title: title, link: link})
	return &models.Notification{UserID: userID, Kind: kind}, nil
}

func (r *recordingNotifier) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.sent {
		out = append(out, s.userID.String())
	}
	sort.Strings(out)
	return out
}

type wardDirectory map[id.WardID][]id.UserID

func (w wardDirectory) ListCitizenIDsInWard(_ context.Context, wardID id.WardID) ([]id.UserID, error) {
	if wardID.IsNil() {
		var all []id.UserID
		for _, ids := range w {
			all = append(all, ids...)
		}
		return all, nil
	}
	return w[wardID], nil
}

func sortedStrings(ids ...id.UserID) []string {
	out := make([]string, 0, len(ids))
	for _, u := range ids {
		out = append(out, u.String())
	}
	sort.Strings(out)
	return out
}

func setup(t *testing.T, dir wardDirectory) (*events.Bus, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	bus := events.NewBus()
	New(notifier, dir, WithLogger(logger.Discard()), WithFanOut(2)).Register(bus)
	return bus, notifier
}

func TestComplaintEventsReachFilerAndAssignee(t *testing.T) {
	bus, notifier := setup(t, wardDirectory{})
	complaint, filer, staff := id.NewComplaintID(), id.NewUserID(), id.NewUserID()

	bus.Publish(t.Context(), events.Event{
		Topic: events.TopicComplaintAssigned,
		Payload: events.ComplaintAssigned{
			ComplaintID: complaint, CitizenID: filer, AssigneeID: staff, Title: "Pothole on Elm St",
		},
	})
	bus.Publish(t.Context(), events.Event{
		Topic: events.TopicComplaintStatusChanged,
		Payload: events.ComplaintStatusChanged{
			ComplaintID: complaint, CitizenID: filer, From: "assigned", To: "in_progress", Title: "Pothole on Elm St",
		},
	})

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, sent{staff, models.KindAssignment, "New complaint assigned", "/staff/complaints/" + complaint.String()}, notifier.sent[0])
	assert.Equal(t, sent{filer, models.KindComplaint, "Complaint in progress", "/complaints/" + complaint.String()}, notifier.sent[1])
}

func TestBillEventsReachCitizen(t *testing.T) {
	bus, notifier := setup(t, wardDirectory{})
	citizen, bill := id.NewUserID(), id.NewBillID()

	bus.Publish(t.Context(), events.Event{
		Topic: events.TopicBillIssued,
		Payload: events.BillIssued{
			BillID: bill, CitizenID: citizen, Kind: "water", Amount: 4250,
			DueDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	bus.Publish(t.Context(), events.Event{
		Topic:   events.TopicBillPaid,
		Payload: &events.BillPaid{BillID: bill, CitizenID: citizen, Total: 4335},
	})

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "New water bill", notifier.sent[0].title)
	assert.Equal(t, "Payment received", notifier.sent[1].title)
	assert.Equal(t, "42.50", formatAmount(4250))
}

func TestNoticeFansOutToWardCitizensOnce(t *testing.T) {
	north, south := id.NewWardID(), id.NewWardID()
	a, b, c := id.NewUserID(), id.NewUserID(), id.NewUserID()
	dir := wardDirectory{north: {a, b}, south: {b, c}}

	t.Run("targeted wards", func(t *testing.T) {
		bus, notifier := setup(t, dir)
		bus.Publish(t.Context(), events.Event{
			Topic: events.TopicNoticePublished,
			Payload: events.NoticePublished{
				NoticeID: id.NewNoticeID(), Title: "Water outage", Category: "maintenance", WardIDs: []id.WardID{north, south},
			},
		})
		assert.Equal(t, sortedStrings(a, b, c), notifier.recipients())
	})

	t.Run("city-wide", func(t *testing.T) {
		bus, notifier := setup(t, dir)
		bus.Publish(t.Context(), events.Event{
			Topic:   events.TopicNoticePublished,
			Payload: events.NoticePublished{NoticeID: id.NewNoticeID(), Title: "Holiday hours", Category: "general"},
		})
		assert.Equal(t, sortedStrings(a, b, c), notifier.recipients())
	})

	t.Run("one failure is reported without stopping the others", func(t *testing.T) {
		notifier := &recordingNotifier{fail: b}
		d := New(notifier, dir, WithLogger(logger.Discard()), WithFanOut(1))
		err := d.noticePublished(t.Context(), events.Event{
			Topic:   events.TopicNoticePublished,
			Payload: events.NoticePublished{NoticeID: id.NewNoticeID(), Title: "Road closure"},
		})
		assert.ErrorContains(t, err, "1 of 3 deliveries failed")
		assert.Equal(t, sortedStrings(a, c), notifier.recipients())
	})

	t.Run("a cancelled request still reaches every citizen", func(t *testing.T) {
		bus, notifier := setup(t, dir)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		bus.Publish(ctx, events.Event{
			Topic:   events.TopicNoticePublished,
			Payload: events.NoticePublished{NoticeID: id.NewNoticeID(), Title: "Storm warning", Category: "emergency"},
		})
		assert.Equal(t, sortedStrings(a, b, c), notifier.recipients())
	})
}

func TestUnexpectedPayloadIsAnError(t *testing.T) {
	d := New(&recordingNotifier{}, wardDirectory{})
	err := d.billIssued(t.Context(), events.Event{Topic: events.TopicBillIssued, Payload: "oops"})
	assert.ErrorContains(t, err, "unexpected payload string")
}

func TestDispatchHonoursPreferences(t *testing.T) {
	svc := service.New(store.NewInMemory(), store.NewInMemoryCounter(), service.WithLogger(logger.Discard()))
	citizen := id.NewUserID()
	ctx := requestcontext.WithActor(t.Context(), citizen, id.RoleCitizen)
	_, err := svc.UpdatePreferences(ctx, &models.PreferencesPatch{Categories: map[string]bool{"billing": false}})
	require.NoError(t, err)

	bus := events.NewBus()
	New(svc, wardDirectory{}, WithLogger(logger.Discard())).Register(bus)
	bus.Publish(t.Context(), events.Event{
		Topic:   events.TopicBillIssued,
		Payload: events.BillIssued{BillID: id.NewBillID(), CitizenID: citizen, Kind: "tax", Amount: 100},
	})
	bus.Publish(t.Context(), events.Event{
		Topic:   events.TopicComplaintStatusChanged,
		Payload: events.ComplaintStatusChanged{ComplaintID: id.NewComplaintID(), CitizenID: citizen, From: "open", To: "resolved", Title: "Broken light"},
	})

	count, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "the billing notification was dropped")
}
