package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	billingmodels "civic/internal/billing/models"
	budgetmodels "civic/internal/budget/models"
	complaintmodels "civic/internal/complaints/models"
	"civic/internal/platform/logger"
	reportmetrics "civic/internal/reports/metrics"
	"civic/internal/reports/models"
	"civic/internal/reports/service/mocks"
	"civic/internal/reports/store"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

type ReportsSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	complaints *mocks.MockComplaintStats
	billing    *mocks.MockBillingStats
	budget     *mocks.MockBudgetStats
	store      *store.InMemoryStore
	metrics    *reportmetrics.Metrics
	svc        *Service
	now        time.Time
	admin      id.UserID
}

func TestReportsSuite(t *testing.T) {
	suite.Run(t, new(ReportsSuite))
}

func (s *ReportsSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.complaints = mocks.NewMockComplaintStats(s.ctrl)
	s.billing = mocks.NewMockBillingStats(s.ctrl)
	s.budget = mocks.NewMockBudgetStats(s.ctrl)
	s.store = store.NewInMemory()
	s.metrics = reportmetrics.New(prometheus.NewRegistry())
	s.svc = New(s.store, s.complaints, s.billing, s.budget,
		WithLogger(logger.Discard()), WithMetrics(s.metrics))
	s.now = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s.admin = id.NewUserID()
}

func (s *ReportsSuite) ctx() context.Context {
	return requestcontext.WithActor(requestcontext.WithTime(context.Background(), s.now), s.admin, id.RoleAdmin)
}

func (s *ReportsSuite) expectStats(times int) {
	s.complaints.EXPECT().Stats(gomock.Any(), gomock.Any()).Return(&complaintmodels.Stats{
		Total:    12,
		ByStatus: map[string]int{"open": 5, "resolved": 7},
		ByWard:   map[string]int{"north": 12},
		Overdue:  2,
	}, nil).Times(times)
	s.billing.EXPECT().Stats(gomock.Any()).Return(&billingmodels.Stats{
		Bills: 4, Issued: 40000, Collected: 25000, Outstanding: 15000, Overdue: 1, LateFees: 500,
	}, nil).Times(times)
	s.budget.EXPECT().Stats(gomock.Any()).Return(&budgetmodels.Stats{Cycles: 1, Proposals: 6, Votes: 90}, nil).Times(times)
}

func (s *ReportsSuite) schedule(freq string, startAt time.Time) *models.Schedule {
	sch, err := s.svc.CreateSchedule(s.ctx(), &models.ScheduleRequest{
		Name: "Council digest", Frequency: freq, Recipients: []string{"council@city.gov"}, StartAt: startAt,
	})
	s.Require().NoError(err)
	return sch
}

func (s *ReportsSuite) TestSummaryMergesModules() {
	s.expectStats(1)
	got, err := s.svc.Summary(s.ctx())
	s.Require().NoError(err)

	want := &models.Summary{
		GeneratedAt: s.now,
		Complaints: models.ComplaintSection{
			Total:    12,
			ByStatus: map[string]int{"open": 5, "resolved": 7},
			ByWard:   map[string]int{"north": 12},
			Overdue:  2,
		},
		Billing: models.BillingSection{Issued: 40000, Collected: 25000, Outstanding: 15000, LateFees: 500},
		Budget:  models.BudgetSection{Cycles: 1, Proposals: 6, Votes: 90},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		s.Failf("summary mismatch", "(-want +got):\n%s", diff)
	}
}

func (s *ReportsSuite) TestSummaryFailsWhenAModuleFails() {
	s.complaints.EXPECT().Stats(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout")).AnyTimes()
	s.billing.EXPECT().Stats(gomock.Any()).Return(&billingmodels.Stats{}, nil).AnyTimes()
	s.budget.EXPECT().Stats(gomock.Any()).Return(&budgetmodels.Stats{}, nil).AnyTimes()

	_, err := s.svc.Summary(s.ctx())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.ErrorContains(err, "complaints")
}

func (s *ReportsSuite) TestRunDueAdvancesSchedules() {
	daily := s.schedule("daily", s.now)
	s.schedule("monthly", time.Time{})

	s.expectStats(1)
	n, err := s.svc.RunDue(s.ctx())
	s.Require().NoError(err)
	s.Equal(1, n, "only the daily schedule is due")

	runs, err := s.svc.ListRuns(s.ctx(), daily.ID)
	s.Require().NoError(err)
	s.Require().Len(runs, 1)
	s.Equal(s.now, runs[0].GeneratedAt)
	s.Equal(90, runs[0].Summary.Budget.Votes)

	schedules, err := s.svc.ListSchedules(s.ctx())
	s.Require().NoError(err)
	s.Require().Len(schedules, 2)
	s.Equal(daily.ID, schedules[0].ID)
	s.Equal(s.now.AddDate(0, 0, 1), schedules[0].NextRunAt)
	s.Equal(s.now, *schedules[0].LastRunAt)

	n, err = s.svc.RunDue(s.ctx())
	s.Require().NoError(err)
	s.Zero(n, "nothing due until tomorrow; no stats gathered")
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Runs.WithLabelValues("generated")))
}

func (s *ReportsSuite) TestRunDueSkipsPeriodsAlreadyRun() {
	sch := &models.Schedule{ID: id.NewScheduleID(), Frequency: models.FrequencyWeekly, NextRunAt: s.now}
	st := mocks.NewMockStore(s.ctrl)
	svc := New(st, s.complaints, s.billing, s.budget, WithLogger(logger.Discard()), WithMetrics(s.metrics))
	s.expectStats(1)
	st.EXPECT().DueSchedules(gomock.Any(), s.now).Return([]*models.Schedule{sch}, nil)
	st.EXPECT().RecordRun(gomock.Any(), gomock.Any(), sch.NextRunAt).Return(nil, store.ErrAlreadyRun)

	n, err := svc.RunDue(s.ctx())
	s.Require().NoError(err)
	s.Zero(n)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Runs.WithLabelValues("skipped")))
}

func (s *ReportsSuite) TestRunDueReportsStoreFailures() {
	st := mocks.NewMockStore(s.ctrl)
	svc := New(st, s.complaints, s.billing, s.budget, WithLogger(logger.Discard()))
	first := &models.Schedule{ID: id.NewScheduleID(), Frequency: models.FrequencyDaily, NextRunAt: s.now}
	second := &models.Schedule{ID: id.NewScheduleID(), Frequency: models.FrequencyDaily, NextRunAt: s.now}

	s.expectStats(1)
	st.EXPECT().DueSchedules(gomock.Any(), s.now).Return([]*models.Schedule{first, second}, nil)
	gomock.InOrder(
		st.EXPECT().RecordRun(gomock.Any(), gomock.Any(), s.now).Return(nil, errors.New("disk full")),
		st.EXPECT().RecordRun(gomock.Any(), gomock.Any(), s.now).Return(&models.Schedule{NextRunAt: s.now.AddDate(0, 0, 1)}, nil),
	)

	n, err := svc.RunDue(s.ctx())
	s.Equal(1, n, "the second schedule still runs")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.ErrorContains(err, first.ID.String())
}

func (s *ReportsSuite) TestScheduleValidationAndDelete() {
	_, err := s.svc.CreateSchedule(s.ctx(), &models.ScheduleRequest{
		Name: "Digest", Frequency: "hourly", Recipients: []string{"a@city.gov"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.CreateSchedule(s.ctx(), &models.ScheduleRequest{
		Name: "Digest", Frequency: "daily", Recipients: []string{"nobody"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	sch := s.schedule("weekly", time.Time{})
	s.Equal(s.admin, sch.CreatedBy)
	s.Require().NoError(s.svc.DeleteSchedule(s.ctx(), sch.ID))
	s.True(dErrors.HasCode(s.svc.DeleteSchedule(s.ctx(), sch.ID), dErrors.CodeNotFound))
	_, err = s.svc.ListRuns(s.ctx(), sch.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
