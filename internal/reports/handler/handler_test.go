package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billingmodels "civic/internal/billing/models"
	budgetmodels "civic/internal/budget/models"
	complaintmodels "civic/internal/complaints/models"
	"civic/internal/platform/logger"
	"civic/internal/reports/models"
	"civic/internal/reports/service"
	"civic/internal/reports/store"
	id "civic/pkg/domain"
	"civic/pkg/testutil"
)

type complaintStats struct{}

func (complaintStats) Stats(context.Context, time.Time) (*complaintmodels.Stats, error) {
	return &complaintmodels.Stats{Total: 3, ByStatus: map[string]int{"open": 3}, ByWard: map[string]int{}}, nil
}

type billingStats struct{}

func (billingStats) Stats(context.Context) (*billingmodels.Stats, error) {
	return &billingmodels.Stats{Issued: 1000, Collected: 400, Outstanding: 600}, nil
}

type budgetStats struct{}

func (budgetStats) Stats(context.Context) (*budgetmodels.Stats, error) {
	return &budgetmodels.Stats{Cycles: 2}, nil
}

func newRouter() chi.Router {
	svc := service.New(store.NewInMemory(), complaintStats{}, billingStats{}, budgetStats{},
		service.WithLogger(logger.Discard()))
	r := chi.NewRouter()
	New(svc, logger.Discard()).Register(r)
	return r
}

func TestSummaryAccess(t *testing.T) {
	r := newRouter()

	req := testutil.AsActor(testutil.NewRequest(t, http.MethodGet, "/reports/summary"), id.NewUserID(), id.RoleStaff)
	testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusForbidden, "forbidden")

	req = testutil.AsActor(testutil.NewRequest(t, http.MethodGet, "/reports/summary"), id.NewUserID(), id.RoleSupervisor)
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	summary := testutil.UnmarshalResponse[models.Summary](t, rr)
	assert.Equal(t, 3, summary.Complaints.Total)
	assert.Equal(t, int64(600), summary.Billing.Outstanding)
	assert.Equal(t, 2, summary.Budget.Cycles)
}

func TestScheduleLifecycle(t *testing.T) {
	r := newRouter()
	admin := id.NewUserID()
	as := func(req *http.Request) *http.Request { return testutil.AsActor(req, admin, id.RoleAdmin) }

	rr := testutil.DoRequest(r, as(testutil.NewJSONRequest(t, http.MethodPost, "/reports/schedules", map[string]any{
		"name":       "Monthly council pack",
		"frequency":  "monthly",
		"recipients": []string{"council@city.gov"},
	})))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	sch := testutil.UnmarshalResponse[models.Schedule](t, rr)
	assert.Equal(t, models.FrequencyMonthly, sch.Frequency)

	rr = testutil.DoRequest(r, as(testutil.NewRequest(t, http.MethodGet, "/reports/schedules")))
	list := testutil.UnmarshalResponse[struct {
		Items []models.Schedule `json:"items"`
	}](t, rr)
	require.Len(t, list.Items, 1)

	rr = testutil.DoRequest(r, as(testutil.NewRequest(t, http.MethodGet, "/reports/schedules/"+sch.ID.String()+"/runs")))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(r, as(testutil.NewRequest(t, http.MethodDelete, "/reports/schedules/"+sch.ID.String())))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(r, as(testutil.NewRequest(t, http.MethodDelete, "/reports/schedules/"+sch.ID.String())))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(r, as(testutil.NewJSONRequest(t, http.MethodPost, "/reports/schedules", map[string]any{
		"name": "Bad", "frequency": "yearly", "recipients": []string{"council@city.gov"},
	})))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}
