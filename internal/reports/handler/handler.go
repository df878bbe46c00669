package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"civic/internal/reports/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
	"civic/pkg/requestcontext"
)

type Service interface {
	Summary(ctx context.Context) (*models.Summary, error)
	CreateSchedule(ctx context.Context, req *models.ScheduleRequest) (*models.Schedule, error)
	ListSchedules(ctx context.Context) ([]*models.Schedule, error)
	DeleteSchedule(ctx context.Context, scheduleID id.ScheduleID) error
	ListRuns(ctx context.Context, scheduleID id.ScheduleID) ([]*models.Run, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the summary for supervisors and schedule management for
// admins.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleSupervisor, h.logger))
		r.Get("/reports/summary", h.HandleSummary)
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleAdmin, h.logger))
		r.Get("/reports/schedules", h.HandleListSchedules)
		r.Post("/reports/schedules", h.HandleCreateSchedule)
		r.Delete("/reports/schedules/{id}", h.HandleDeleteSchedule)
		r.Get("/reports/schedules/{id}/runs", h.HandleListRuns)
	})
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(r, "summary failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) HandleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.service.ListSchedules(r.Context())
	if err != nil {
		h.fail(r, "list schedules failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": schedules})
}

func (h *Handler) HandleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req models.ScheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sch, err := h.service.CreateSchedule(r.Context(), &req)
	if err != nil {
		h.fail(r, "create schedule failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sch)
}

func (h *Handler) HandleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := id.ParseScheduleID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteSchedule(r.Context(), scheduleID); err != nil {
		h.fail(r, "delete schedule failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := id.ParseScheduleID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	runs, err := h.service.ListRuns(r.Context(), scheduleID)
	if err != nil {
		h.fail(r, "list runs failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": runs})
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
