package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"civic/internal/notices/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
	"civic/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, req *models.NoticeRequest) (*models.Notice, error)
	Update(ctx context.Context, noticeID id.NoticeID, req *models.NoticeRequest) (*models.Notice, error)
	Publish(ctx context.Context, noticeID id.NoticeID) (*models.Notice, error)
	Archive(ctx context.Context, noticeID id.NoticeID) (*models.Notice, error)
	Get(ctx context.Context, noticeID id.NoticeID) (*models.Notice, error)
	ListPublished(ctx context.Context, wardID id.WardID) ([]*models.Notice, error)
	List(ctx context.Context, filter models.Filter) (*httputil.ListResponse[*models.Notice], error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the notice board, readable without an account.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/notices", h.HandleListPublished)
	r.Get("/notices/{id}", h.HandleGet)
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleStaff, h.logger))
		r.Get("/staff/notices", h.HandleList)
		r.Get("/staff/notices/{id}", h.HandleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleAdmin, h.logger))
		r.Post("/notices", h.HandleCreate)
		r.Put("/notices/{id}", h.HandleUpdate)
		r.Post("/notices/{id}/publish", h.HandlePublish)
		r.Post("/notices/{id}/archive", h.HandleArchive)
	})
}

func (h *Handler) HandleListPublished(w http.ResponseWriter, r *http.Request) {
	var wardID id.WardID
	if raw := r.URL.Query().Get("ward_id"); raw != "" {
		var err error
		if wardID, err = id.ParseWardID(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	notices, err := h.service.ListPublished(r.Context(), wardID)
	if err != nil {
		h.fail(r, "list notices failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": notices})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter := models.Filter{Page: page}
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		if filter.Status, err = models.ParseStatus(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if raw := q.Get("ward_id"); raw != "" {
		if filter.WardID, err = id.ParseWardID(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	filter.Category = models.Category(q.Get("category"))
	res, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(r, "list notices failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	noticeID, err := id.ParseNoticeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.service.Get(r.Context(), noticeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.NoticeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.fail(r, "create notice failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, n)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	noticeID, err := id.ParseNoticeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.NoticeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.service.Update(r.Context(), noticeID, &req)
	if err != nil {
		h.fail(r, "update notice failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Publish)
}

func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Archive)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, id.NoticeID) (*models.Notice, error)) {
	noticeID, err := id.ParseNoticeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := apply(r.Context(), noticeID)
	if err != nil {
		h.fail(r, "notice status change failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
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
