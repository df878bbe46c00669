package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"civic/internal/directory/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/httputil"
	authmw "civic/pkg/platform/middleware/auth"
)

type Service interface {
	CreateWard(ctx context.Context, req *models.WardRequest) (*models.Ward, error)
	GetWard(ctx context.Context, wardID id.WardID) (*models.Ward, error)
	ListWards(ctx context.Context) ([]*models.Ward, error)
	UpdateWard(ctx context.Context, wardID id.WardID, patch *models.WardPatch) (*models.Ward, error)
	CreateDepartment(ctx context.Context, req *models.DepartmentRequest) (*models.Department, error)
	GetDepartment(ctx context.Context, deptID id.DepartmentID) (*models.Department, error)
	ListDepartments(ctx context.Context, includeInactive bool) ([]*models.Department, error)
	UpdateDepartment(ctx context.Context, deptID id.DepartmentID, patch *models.DepartmentPatch) (*models.Department, error)
	DeactivateDepartment(ctx context.Context, deptID id.DepartmentID) (*models.Department, error)
}

// Handler serves the ward and department directory.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the read endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/wards", h.HandleListWards)
	r.Get("/wards/{id}", h.HandleGetWard)
	r.Get("/departments", h.HandleListDepartments)
	r.Get("/departments/{id}", h.HandleGetDepartment)
}

// Register mounts the admin endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(id.RoleAdmin, h.logger))
		r.Post("/wards", h.HandleCreateWard)
		r.Patch("/wards/{id}", h.HandleUpdateWard)
		r.Post("/departments", h.HandleCreateDepartment)
		r.Patch("/departments/{id}", h.HandleUpdateDepartment)
		r.Post("/departments/{id}/deactivate", h.HandleDeactivateDepartment)
	})
}

func (h *Handler) HandleListWards(w http.ResponseWriter, r *http.Request) {
	wards, err := h.service.ListWards(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": wards})
}

func (h *Handler) HandleGetWard(w http.ResponseWriter, r *http.Request) {
	wardID, err := id.ParseWardID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ward, err := h.service.GetWard(r.Context(), wardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ward)
}

func (h *Handler) HandleCreateWard(w http.ResponseWriter, r *http.Request) {
	var req models.WardRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	ward, err := h.service.CreateWard(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ward)
}

func (h *Handler) HandleUpdateWard(w http.ResponseWriter, r *http.Request) {
	wardID, err := id.ParseWardID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var patch models.WardPatch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.WriteError(w, err)
		return
	}
	ward, err := h.service.UpdateWard(r.Context(), wardID, &patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ward)
}

func (h *Handler) HandleListDepartments(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	depts, err := h.service.ListDepartments(r.Context(), includeInactive)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": depts})
}

func (h *Handler) HandleGetDepartment(w http.ResponseWriter, r *http.Request) {
	deptID, err := id.ParseDepartmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dept, err := h.service.GetDepartment(r.Context(), deptID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dept)
}

func (h *Handler) HandleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req models.DepartmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	dept, err := h.service.CreateDepartment(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, dept)
}

func (h *Handler) HandleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	deptID, err := id.ParseDepartmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var patch models.DepartmentPatch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.WriteError(w, err)
		return
	}
	dept, err := h.service.UpdateDepartment(r.Context(), deptID, &patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dept)
}

func (h *Handler) HandleDeactivateDepartment(w http.ResponseWriter, r *http.Request) {
	deptID, err := id.ParseDepartmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dept, err := h.service.DeactivateDepartment(r.Context(), deptID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dept)
}
