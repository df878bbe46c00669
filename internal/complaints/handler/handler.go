package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"civic/internal/complaints/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
	"civic/pkg/requestcontext"
)

type Service interface {
	File(ctx context.Context, req *models.FileRequest) (*models.Complaint, error)
	Get(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error)
	List(ctx context.Context, filter models.Filter) (*httputil.ListResponse[*models.Complaint], error)
	Assign(ctx context.Context, complaintID id.ComplaintID, staffID id.UserID) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, complaintID id.ComplaintID, req *models.StatusRequest) (*models.Complaint, error)
	Reopen(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error)
	AddComment(ctx context.Context, complaintID id.ComplaintID, req *models.CommentRequest) (*models.Comment, error)
	ListComments(ctx context.Context, complaintID id.ComplaintID) ([]*models.Comment, error)
	ListOverdue(ctx context.Context, now time.Time) ([]*models.Complaint, error)
	SetSLAPolicy(ctx context.Context, req *models.SLARequest) (*models.SLAPolicy, error)
	ListSLAPolicies(ctx context.Context) ([]*models.SLAPolicy, error)
}

// Handler exposes the complaint desk.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts complaint routes. All of them need an authenticated
// actor; ownership is enforced by the service.
func (h *Handler) Register(r chi.Router) {
	r.Post("/complaints", h.HandleFile)
	r.Get("/complaints", h.HandleList)
	r.Get("/complaints/{id}", h.HandleGet)
	r.Post("/complaints/{id}/status", h.HandleUpdateStatus)
	r.Post("/complaints/{id}/reopen", h.HandleReopen)
	r.Get("/complaints/{id}/comments", h.HandleListComments)
	r.Post("/complaints/{id}/comments", h.HandleAddComment)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleStaff, h.logger))
		r.Get("/complaints/overdue", h.HandleListOverdue)
		r.Get("/sla-policies", h.HandleListSLAPolicies)
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleSupervisor, h.logger))
		r.Post("/complaints/{id}/assign", h.HandleAssign)
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleAdmin, h.logger))
		r.Put("/sla-policies", h.HandleSetSLAPolicy)
	})
}

func (h *Handler) HandleFile(w http.ResponseWriter, r *http.Request) {
	var req models.FileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.File(r.Context(), &req)
	if err != nil {
		h.fail(r, "file complaint failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func parseFilter(r *http.Request) (models.Filter, error) {
	page, err := httputil.ParsePage(r)
	if err != nil {
		return models.Filter{}, err
	}
	filter := models.Filter{Page: page}
	q := r.URL.Query()
	if raw := q.Get("ward_id"); raw != "" {
		if filter.WardID, err = id.ParseWardID(raw); err != nil {
			return models.Filter{}, err
		}
	}
	if raw := q.Get("citizen_id"); raw != "" {
		if filter.CitizenID, err = id.ParseUserID(raw); err != nil {
			return models.Filter{}, err
		}
	}
	if raw := q.Get("assignee_id"); raw != "" {
		if filter.AssigneeID, err = id.ParseUserID(raw); err != nil {
			return models.Filter{}, err
		}
	}
	if raw := q.Get("status"); raw != "" {
		if filter.Status, err = models.ParseStatus(raw); err != nil {
			return models.Filter{}, err
		}
	}
	filter.Category = models.NormalizeCategory(q.Get("category"))
	return filter, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(r, "list complaints failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), complaintID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.AssignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	staffID, err := id.ParseUserID(req.StaffID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Assign(r.Context(), complaintID, staffID)
	if err != nil {
		h.fail(r, "assign complaint failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.StatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.UpdateStatus(r.Context(), complaintID, &req)
	if err != nil {
		h.fail(r, "update complaint status failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) HandleReopen(w http.ResponseWriter, r *http.Request) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Reopen(r.Context(), complaintID)
	if err != nil {
		h.fail(r, "reopen complaint failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	comments, err := h.service.ListComments(r.Context(), complaintID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": comments})
}

func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.CommentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	comment, err := h.service.AddComment(r.Context(), complaintID, &req)
	if err != nil {
		h.fail(r, "add comment failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

func (h *Handler) HandleListOverdue(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListOverdue(r.Context(), requestcontext.Now(r.Context()))
	if err != nil {
		h.fail(r, "list overdue failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) HandleListSLAPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.ListSLAPolicies(r.Context())
	if err != nil {
		h.fail(r, "list sla policies failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": policies})
}

func (h *Handler) HandleSetSLAPolicy(w http.ResponseWriter, r *http.Request) {
	var req models.SLARequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.SetSLAPolicy(r.Context(), &req)
	if err != nil {
		h.fail(r, "set sla policy failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
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
