package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	complaintmodels "civic/internal/complaints/models"
	"civic/internal/workforce/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
	"civic/pkg/requestcontext"
)

type Service interface {
	UpsertStaff(ctx context.Context, userID id.UserID, req *models.StaffRequest) (*models.StaffProfile, error)
	UpsertSupervisor(ctx context.Context, userID id.UserID, req *models.SupervisorRequest) (*models.SupervisorProfile, error)
	GetStaff(ctx context.Context, userID id.UserID) (*models.StaffProfile, error)
	GetSupervisor(ctx context.Context, userID id.UserID) (*models.SupervisorProfile, error)
	ListStaff(ctx context.Context, filter models.StaffFilter) ([]*models.StaffProfile, error)
	Workload(ctx context.Context, userID id.UserID) (*models.Workload, error)
	WardWorkload(ctx context.Context, wardID id.WardID) ([]models.Workload, error)
	SuggestAssignee(ctx context.Context, wardID id.WardID, deptID id.DepartmentID) (*models.StaffProfile, error)
	Reassign(ctx context.Context, complaintID id.ComplaintID, staffID id.UserID) (*complaintmodels.Complaint, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleStaff, h.logger))
		r.Get("/workforce/me/workload", h.HandleMyWorkload)
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleSupervisor, h.logger))
		r.Get("/workforce/staff", h.HandleListStaff)
		r.Get("/workforce/staff/{id}", h.HandleGetStaff)
		r.Get("/workforce/staff/{id}/workload", h.HandleWorkload)
		r.Get("/workforce/supervisors/{id}", h.HandleGetSupervisor)
		r.Get("/workforce/wards/{id}/workload", h.HandleWardWorkload)
		r.Get("/workforce/wards/{id}/suggest", h.HandleSuggest)
		r.Post("/complaints/{id}/reassign", h.HandleReassign)
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleAdmin, h.logger))
		r.Put("/workforce/staff/{id}", h.HandleUpsertStaff)
		r.Put("/workforce/supervisors/{id}", h.HandleUpsertSupervisor)
	})
}

func (h *Handler) HandleUpsertStaff(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.StaffRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.UpsertStaff(r.Context(), userID, &req)
	if err != nil {
		h.fail(r, "upsert staff profile failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleUpsertSupervisor(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.SupervisorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.UpsertSupervisor(r.Context(), userID, &req)
	if err != nil {
		h.fail(r, "upsert supervisor profile failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleGetStaff(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.GetStaff(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleGetSupervisor(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.GetSupervisor(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleListStaff(w http.ResponseWriter, r *http.Request) {
	var (
		filter models.StaffFilter
		err    error
	)
	q := r.URL.Query()
	if raw := q.Get("ward_id"); raw != "" {
		if filter.WardID, err = id.ParseWardID(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if raw := q.Get("department_id"); raw != "" {
		if filter.DepartmentID, err = id.ParseDepartmentID(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	filter.ActiveOnly = q.Get("active") == "true"
	profiles, err := h.service.ListStaff(r.Context(), filter)
	if err != nil {
		h.fail(r, "list staff failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": profiles})
}

func (h *Handler) HandleMyWorkload(w http.ResponseWriter, r *http.Request) {
	h.writeWorkload(w, r, requestcontext.UserID(r.Context()))
}

func (h *Handler) HandleWorkload(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeWorkload(w, r, userID)
}

func (h *Handler) writeWorkload(w http.ResponseWriter, r *http.Request, userID id.UserID) {
	wl, err := h.service.Workload(r.Context(), userID)
	if err != nil {
		h.fail(r, "workload failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, wl)
}

func (h *Handler) HandleWardWorkload(w http.ResponseWriter, r *http.Request) {
	wardID, err := id.ParseWardID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rows, err := h.service.WardWorkload(r.Context(), wardID)
	if err != nil {
		h.fail(r, "ward workload failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": rows})
}

func (h *Handler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	wardID, err := id.ParseWardID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var deptID id.DepartmentID
	if raw := r.URL.Query().Get("department_id"); raw != "" {
		if deptID, err = id.ParseDepartmentID(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	p, err := h.service.SuggestAssignee(r.Context(), wardID, deptID)
	if err != nil {
		h.fail(r, "suggest assignee failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleReassign(w http.ResponseWriter, r *http.Request) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ReassignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	staffID, err := id.ParseUserID(req.StaffID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Reassign(r.Context(), complaintID, staffID)
	if err != nil {
		h.fail(r, "reassign failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) fail(r *http.Request, msg string, err error) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(r.Context(), msg,
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
	)
}
