package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	notifymetrics "civic/internal/notifications/metrics"
	"civic/internal/notifications/models"
	"civic/internal/notifications/service/mocks"
	"civic/internal/notifications/store"
	"civic/internal/platform/logger"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	"civic/pkg/requestcontext"
)

type NotificationSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	counter *store.InMemoryCounter
	metrics *notifymetrics.Metrics
	svc     *Service
	user    id.UserID
	now     time.Time
}

func TestNotificationSuite(t *testing.T) {
	suite.Run(t, new(NotificationSuite))
}

func (s *NotificationSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.counter = store.NewInMemoryCounter()
	s.metrics = notifymetrics.New(prometheus.NewRegistry())
	s.svc = New(s.store, s.counter, WithLogger(logger.Discard()), WithMetrics(s.metrics))
	s.user = id.NewUserID()
	s.now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
}

func quietHours(start, end string) models.QuietHours {
	return models.QuietHours{Enabled: true, Start: start, End: end}
}

func (s *NotificationSuite) ctx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithActor(ctx, s.user, id.RoleCitizen)
}

func (s *NotificationSuite) notify(kind models.Kind) *models.Notification {
	n, err := s.svc.Notify(s.ctx(), s.user, kind, "Complaint updated", "Now in progress", "/complaints/1")
	s.Require().NoError(err)
	return n
}

func (s *NotificationSuite) unread() int {
	n, err := s.svc.UnreadCount(s.ctx())
	s.Require().NoError(err)
	return n
}

func (s *NotificationSuite) TestOptOutDropsNotification() {
	_, err := s.svc.UpdatePreferences(s.ctx(), &models.PreferencesPatch{
		Categories: map[string]bool{"billing": false},
	})
	s.Require().NoError(err)

	s.Nil(s.notify(models.KindBilling))
	s.NotNil(s.notify(models.KindComplaint))

	list, err := s.svc.List(s.ctx(), models.Filter{})
	s.Require().NoError(err)
	s.Equal(1, list.Total)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Notifications.WithLabelValues("billing", notifymetrics.OutcomeDropped)))
}

func (s *NotificationSuite) TestQuietHoursStoreSilently() {
	on := quietHours("22:00", "07:00")
	tz := "America/New_York"
	_, err := s.svc.UpdatePreferences(s.ctx(), &models.PreferencesPatch{QuietHours: &on, Timezone: &tz})
	s.Require().NoError(err)

	// 03:00 UTC is 23:00 in New York.
	s.now = time.Date(2026, 5, 4, 3, 0, 0, 0, time.UTC)
	n := s.notify(models.KindComplaint)
	s.True(n.Silent)

	s.now = time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)
	n = s.notify(models.KindComplaint)
	s.False(n.Silent)

	s.Equal(2, s.unread(), "silent notifications still count as unread")
}

func (s *NotificationSuite) TestUnreadCountTracksReads() {
	s.Zero(s.unread())
	first := s.notify(models.KindComplaint)
	s.notify(models.KindNotice)
	s.notify(models.KindBudget)
	s.Equal(3, s.unread())

	_, err := s.svc.MarkRead(s.ctx(), first.ID)
	s.Require().NoError(err)
	_, err = s.svc.MarkRead(s.ctx(), first.ID)
	s.Require().NoError(err)
	s.Equal(2, s.unread(), "re-reading does not decrement twice")

	unread, err := s.svc.List(s.ctx(), models.Filter{UnreadOnly: true, Page: httputil.Page{Limit: 1}})
	s.Require().NoError(err)
	s.Equal(2, unread.Total)
	s.Len(unread.Items, 1)

	marked, err := s.svc.MarkAllRead(s.ctx())
	s.Require().NoError(err)
	s.Equal(2, marked)
	s.Zero(s.unread())
}

func (s *NotificationSuite) TestMarkReadOfAnotherUsersNotification() {
	n := s.notify(models.KindComplaint)
	ctx := requestcontext.WithActor(context.Background(), id.NewUserID(), id.RoleCitizen)
	_, err := s.svc.MarkRead(ctx, n.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *NotificationSuite) TestPreferencesDefaultsAndMerge() {
	prefs, err := s.svc.GetPreferences(s.ctx())
	s.Require().NoError(err)
	s.Equal(models.DefaultPreferences(s.user), prefs)

	off := false
	_, err = s.svc.UpdatePreferences(s.ctx(), &models.PreferencesPatch{Email: &off})
	s.Require().NoError(err)
	prefs, err = s.svc.UpdatePreferences(s.ctx(), &models.PreferencesPatch{Categories: map[string]bool{"notice": false}})
	s.Require().NoError(err)
	s.False(prefs.Email)
	s.False(prefs.Allows(models.KindNotice))

	bad := "Nowhere/Land"
	_, err = s.svc.UpdatePreferences(s.ctx(), &models.PreferencesPatch{Timezone: &bad})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *NotificationSuite) TestInvalidNotification() {
	_, err := s.svc.Notify(s.ctx(), s.user, models.KindComplaint, "   ", "", "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestCounterFailuresDoNotFailNotify(t *testing.T) {
	ctrl := gomock.NewController(t)
	counter := mocks.NewMockCounter(ctrl)
	svc := New(store.NewInMemory(), counter, WithLogger(logger.Discard()))
	user := id.NewUserID()
	ctx := requestcontext.WithActor(context.Background(), user, id.RoleCitizen)

	counter.EXPECT().Adjust(gomock.Any(), user, 1).Return(errors.New("redis down"))
	_, err := svc.Notify(ctx, user, models.KindSystem, "Maintenance tonight", "", "")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	counter.EXPECT().Get(gomock.Any(), user).Return(0, false, errors.New("redis down"))
	counter.EXPECT().Set(gomock.Any(), user, 1).Return(nil)
	n, err := svc.UnreadCount(ctx)
	if err != nil || n != 1 {
		t.Fatalf("unread = %d, %v; want 1 from the store", n, err)
	}
}

func TestStoreFailureIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	svc := New(st, nil, WithLogger(logger.Discard()))
	user := id.NewUserID()

	st.EXPECT().GetPreferences(gomock.Any(), user).Return(nil, errors.New("connection reset"))
	_, err := svc.Notify(context.Background(), user, models.KindBilling, "Bill issued", "", "")
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("want internal error, got %v", err)
	}
}
