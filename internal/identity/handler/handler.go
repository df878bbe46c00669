package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"civic/internal/identity/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
	"civic/pkg/requestcontext"
)

// Service defines the identity operations the handler exposes.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, userID id.UserID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID id.UserID, req *models.UpdateProfileRequest) (*models.User, error)
	GetUser(ctx context.Context, userID id.UserID) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) (*httputil.ListResponse[*models.User], error)
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	ChangeRole(ctx context.Context, userID id.UserID, role id.Role) (*models.User, error)
	Deactivate(ctx context.Context, userID id.UserID) (*models.User, error)
	Reactivate(ctx context.Context, userID id.UserID) (*models.User, error)
}

// Handler wires account and session endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
}

// Register mounts endpoints that need an authenticated actor.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/me", h.HandleMe)
	r.Patch("/me", h.HandleUpdateProfile)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleAdmin, h.logger))
		r.Get("/admin/users", h.HandleListUsers)
		r.Post("/admin/users", h.HandleCreateUser)
		r.Get("/admin/users/{id}", h.HandleGetUser)
		r.Put("/admin/users/{id}/role", h.HandleChangeRole)
		r.Post("/admin/users/{id}/deactivate", h.HandleDeactivate)
		r.Post("/admin/users/{id}/reactivate", h.HandleReactivate)
	})
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.fail(r, "registration failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Logout(ctx, requestcontext.TokenID(ctx), requestcontext.TokenExpiry(ctx)); err != nil {
		h.fail(r, "logout failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), requestcontext.UserID(r.Context()), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter := models.UserFilter{Page: page}
	q := r.URL.Query()
	if raw := q.Get("role"); raw != "" {
		if filter.Role, err = id.ParseRole(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if raw := q.Get("status"); raw != "" {
		if filter.Status, err = models.ParseUserStatus(raw); err != nil {
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

	res, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.service.CreateUser(r.Context(), &req)
	if err != nil {
		h.fail(r, "create user failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ChangeRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := id.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.service.ChangeRole(r.Context(), userID, role)
	if err != nil {
		h.fail(r, "change role failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.Deactivate)
}

func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.Reactivate)
}

func (h *Handler) statusChange(w http.ResponseWriter, r *http.Request, apply func(context.Context, id.UserID) (*models.User, error)) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := apply(r.Context(), userID)
	if err != nil {
		h.fail(r, "user status change failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// fail logs server-side failures; client errors are already described in
// the response.
func (h *Handler) fail(r *http.Request, msg string, err error) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(r.Context(), msg,
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
	)
}
