package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"civic/internal/notifications/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	"civic/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context, filter models.Filter) (*httputil.ListResponse[*models.Notification], error)
	MarkRead(ctx context.Context, notificationID id.NotificationID) (*models.Notification, error)
	MarkAllRead(ctx context.Context) (int, error)
	UnreadCount(ctx context.Context) (int, error)
	GetPreferences(ctx context.Context) (*models.Preferences, error)
	UpdatePreferences(ctx context.Context, patch *models.PreferencesPatch) (*models.Preferences, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the caller's inbox. Every route acts on the authenticated
// user only.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Get("/notifications/unread-count", h.HandleUnreadCount)
	r.Post("/notifications/read-all", h.HandleMarkAllRead)
	r.Post("/notifications/{id}/read", h.HandleMarkRead)
	r.Get("/notifications/preferences", h.HandleGetPreferences)
	r.Patch("/notifications/preferences", h.HandleUpdatePreferences)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter := models.Filter{Page: page}
	if raw := r.URL.Query().Get("unread"); raw != "" {
		if filter.UnreadOnly, err = strconv.ParseBool(raw); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unread must be true or false"))
			return
		}
	}
	res, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(r, "list notifications failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.UnreadCount(r.Context())
	if err != nil {
		h.fail(r, "unread count failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.service.MarkRead(r.Context(), notificationID)
	if err != nil {
		h.fail(r, "mark read failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	marked, err := h.service.MarkAllRead(r.Context())
	if err != nil {
		h.fail(r, "mark all read failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"marked": marked})
}

func (h *Handler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.service.GetPreferences(r.Context())
	if err != nil {
		h.fail(r, "get preferences failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, prefs)
}

func (h *Handler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch models.PreferencesPatch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.WriteError(w, err)
		return
	}
	prefs, err := h.service.UpdatePreferences(r.Context(), &patch)
	if err != nil {
		h.fail(r, "update preferences failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, prefs)
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
