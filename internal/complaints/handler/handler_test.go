package handler

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic/internal/complaints/models"
	"civic/internal/complaints/service"
	"civic/internal/complaints/store"
	"civic/internal/platform/logger"
	id "civic/pkg/domain"
	"civic/pkg/testutil"
)

func newRouter() chi.Router {
	h := New(service.New(store.NewInMemory()), logger.Discard())
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func fileBody(wardID id.WardID) map[string]string {
	return map[string]string{
		"title":       "Overflowing bins",
		"description": "Bins on Market Street have not been emptied since Monday.",
		"category":    "waste",
		"ward_id":     wardID.String(),
	}
}

func TestComplaintFlow(t *testing.T) {
	r := newRouter()
	wardID := id.NewWardID()
	citizen := id.NewUserID()
	staff := id.NewUserID()
	supervisor := id.NewUserID()

	req := testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPost, "/complaints", fileBody(wardID)), citizen, id.RoleCitizen)
	rr := testutil.DoRequest(r, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	c := testutil.UnmarshalResponse[models.Complaint](t, rr)
	assert.Equal(t, models.StatusSubmitted, c.Status)
	path := "/complaints/" + c.ID.String()

	req = testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPost, path+"/assign", map[string]string{"staff_id": staff.String()}), staff, id.RoleStaff)
	testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusForbidden, "forbidden")

	req = testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPost, path+"/assign", map[string]string{"staff_id": staff.String()}), supervisor, id.RoleSupervisor)
	rr = testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "status", "assigned")

	req = testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPost, path+"/status", map[string]string{"status": "in_progress"}), staff, id.RoleStaff)
	testutil.AssertStatus(t, testutil.DoRequest(r, req), http.StatusOK)

	req = testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPost, path+"/status", map[string]string{"status": "closed"}), staff, id.RoleStaff)
	testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusForbidden, "forbidden")

	req = testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPost, path+"/status", map[string]string{"status": "teleported"}), staff, id.RoleStaff)
	testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusBadRequest, "invalid_input")

	req = testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPost, path+"/comments", map[string]any{"body": "Truck scheduled", "internal": true}), staff, id.RoleStaff)
	testutil.AssertStatus(t, testutil.DoRequest(r, req), http.StatusCreated)

	req = testutil.AsActor(testutil.NewRequest(t, http.MethodGet, path+"/comments"), citizen, id.RoleCitizen)
	rr = testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	comments := testutil.UnmarshalResponse[struct {
		Items []models.Comment `json:"items"`
	}](t, rr)
	assert.Empty(t, comments.Items)

	req = testutil.AsActor(testutil.NewRequest(t, http.MethodGet, path), id.NewUserID(), id.RoleCitizen)
	testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusNotFound, "not_found")
}

func TestListAndOverdueRoutes(t *testing.T) {
	r := newRouter()
	wardID := id.NewWardID()
	citizen := id.NewUserID()

	for range 2 {
		req := testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPost, "/complaints", fileBody(wardID)), citizen, id.RoleCitizen)
		require.Equal(t, http.StatusCreated, testutil.DoRequest(r, req).Code)
	}

	req := testutil.AsActor(testutil.NewRequest(t, http.MethodGet, "/complaints?limit=1"), citizen, id.RoleCitizen)
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	page := testutil.UnmarshalResponse[struct {
		Items []models.Complaint `json:"items"`
		Total int                `json:"total"`
	}](t, rr)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 1)

	req = testutil.AsActor(testutil.NewRequest(t, http.MethodGet, "/complaints?ward_id=nope"), citizen, id.RoleCitizen)
	testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusBadRequest, "invalid_input")

	req = testutil.AsActor(testutil.NewRequest(t, http.MethodGet, "/complaints/overdue"), citizen, id.RoleCitizen)
	testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusForbidden, "forbidden")

	req = testutil.AsActor(testutil.NewRequest(t, http.MethodGet, "/complaints/overdue"), id.NewUserID(), id.RoleStaff)
	testutil.AssertStatus(t, testutil.DoRequest(r, req), http.StatusOK)
}

func TestSLAPolicyRoutes(t *testing.T) {
	r := newRouter()
	admin := id.NewUserID()

	req := testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPut, "/sla-policies", map[string]any{"category": "roads", "resolution_hours": 0}), admin, id.RoleAdmin)
	testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusBadRequest, "validation_error")

	req = testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPut, "/sla-policies", map[string]any{"category": "roads", "resolution_hours": 48}), admin, id.RoleAdmin)
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "resolution_hours", float64(48))

	req = testutil.AsActor(testutil.NewRequest(t, http.MethodGet, "/sla-policies"), id.NewUserID(), id.RoleStaff)
	testutil.AssertStatus(t, testutil.DoRequest(r, req), http.StatusOK)
}
