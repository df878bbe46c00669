package handler

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic/internal/notices/models"
	"civic/internal/notices/service"
	"civic/internal/notices/store"
	"civic/internal/platform/logger"
	id "civic/pkg/domain"
	"civic/pkg/testutil"
)

func newRouter() chi.Router {
	h := New(service.New(store.NewInMemory()), logger.Discard())
	r := chi.NewRouter()
	h.RegisterPublic(r)
	h.Register(r)
	return r
}

func TestNoticeBoard(t *testing.T) {
	r := newRouter()
	admin := id.NewUserID()
	ward := id.NewWardID()
	body := map[string]any{
		"title":    "Community clean-up day",
		"body":     "Meet at the park gates, 9am Saturday.",
		"category": "event",
		"ward_ids": []string{ward.String()},
	}

	req := testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPost, "/notices", body), id.NewUserID(), id.RoleStaff)
	testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusForbidden, "forbidden")

	req = testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPost, "/notices", body), admin, id.RoleAdmin)
	rr := testutil.DoRequest(r, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	n := testutil.UnmarshalResponse[models.Notice](t, rr)
	path := "/notices/" + n.ID.String()

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, path))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	req = testutil.AsActor(testutil.NewRequest(t, http.MethodPost, path+"/publish"), admin, id.RoleAdmin)
	testutil.AssertStatus(t, testutil.DoRequest(r, req), http.StatusOK)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/notices?ward_id="+ward.String()))
	testutil.AssertStatus(t, rr, http.StatusOK)
	board := testutil.UnmarshalResponse[struct {
		Items []models.Notice `json:"items"`
	}](t, rr)
	require.Len(t, board.Items, 1)
	assert.Equal(t, n.ID, board.Items[0].ID)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/notices?ward_id="+id.NewWardID().String()))
	board = testutil.UnmarshalResponse[struct {
		Items []models.Notice `json:"items"`
	}](t, rr)
	assert.Empty(t, board.Items)

	req = testutil.AsActor(testutil.NewJSONRequest(t, http.MethodPut, path, body), admin, id.RoleAdmin)
	testutil.AssertStatusAndError(t, testutil.DoRequest(r, req), http.StatusConflict, "conflict")

	req = testutil.AsActor(testutil.NewRequest(t, http.MethodGet, "/staff/notices?status=published"), id.NewUserID(), id.RoleStaff)
	rr = testutil.DoRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "total", float64(1))

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/staff/notices"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}
