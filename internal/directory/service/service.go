package service

import (
	"context"
	"errors"
	"log/slog"

	"civic/internal/directory/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

type Store interface {
	CreateWard(ctx context.Context, w *models.Ward) error
	FindWard(ctx context.Context, wardID id.WardID) (*models.Ward, error)
	ListWards(ctx context.Context) ([]*models.Ward, error)
	UpdateWard(ctx context.Context, wardID id.WardID, mutate func(*models.Ward) error) (*models.Ward, error)
	CreateDepartment(ctx context.Context, d *models.Department) error
	FindDepartment(ctx context.Context, deptID id.DepartmentID) (*models.Department, error)
	ListDepartments(ctx context.Context, includeInactive bool) ([]*models.Department, error)
	UpdateDepartment(ctx context.Context, deptID id.DepartmentID, mutate func(*models.Department) error) (*models.Department, error)
}

// Service manages the ward and department reference data.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// translate maps store facts and model invariants to client errors.
func translate(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, what+" name or code is already in use")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
}

func (s *Service) CreateWard(ctx context.Context, req *models.WardRequest) (*models.Ward, error) {
	w, err := models.NewWard(id.NewWardID(), req.Name, req.Code, req.Zone, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "ward")
	}
	if err := s.store.CreateWard(ctx, w); err != nil {
		return nil, translate(err, "ward")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "ward created", "ward_id", w.ID.String(), "code", w.Code)
	}
	return w, nil
}

func (s *Service) GetWard(ctx context.Context, wardID id.WardID) (*models.Ward, error) {
	w, err := s.store.FindWard(ctx, wardID)
	if err != nil {
		return nil, translate(err, "ward")
	}
	return w, nil
}

func (s *Service) ListWards(ctx context.Context) ([]*models.Ward, error) {
	wards, err := s.store.ListWards(ctx)
	if err != nil {
		return nil, translate(err, "wards")
	}
	return wards, nil
}

func (s *Service) UpdateWard(ctx context.Context, wardID id.WardID, patch *models.WardPatch) (*models.Ward, error) {
	w, err := s.store.UpdateWard(ctx, wardID, patch.Apply)
	if err != nil {
		return nil, translate(err, "ward")
	}
	return w, nil
}

// WardExists lets other modules validate ward references.
func (s *Service) WardExists(ctx context.Context, wardID id.WardID) (bool, error) {
	_, err := s.store.FindWard(ctx, wardID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) CreateDepartment(ctx context.Context, req *models.DepartmentRequest) (*models.Department, error) {
	d, err := models.NewDepartment(id.NewDepartmentID(), req.Name, req.Description, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "department")
	}
	if err := s.store.CreateDepartment(ctx, d); err != nil {
		return nil, translate(err, "department")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "department created", "department_id", d.ID.String())
	}
	return d, nil
}

func (s *Service) GetDepartment(ctx context.Context, deptID id.DepartmentID) (*models.Department, error) {
	d, err := s.store.FindDepartment(ctx, deptID)
	if err != nil {
		return nil, translate(err, "department")
	}
	return d, nil
}

func (s *Service) ListDepartments(ctx context.Context, includeInactive bool) ([]*models.Department, error) {
	out, err := s.store.ListDepartments(ctx, includeInactive)
	if err != nil {
		return nil, translate(err, "departments")
	}
	return out, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, deptID id.DepartmentID, patch *models.DepartmentPatch) (*models.Department, error) {
	now := requestcontext.Now(ctx)
	d, err := s.store.UpdateDepartment(ctx, deptID, func(d *models.Department) error {
		return patch.Apply(d, now)
	})
	if err != nil {
		return nil, translate(err, "department")
	}
	return d, nil
}

// DeactivateDepartment stops new routing to the department.
func (s *Service) DeactivateDepartment(ctx context.Context, deptID id.DepartmentID) (*models.Department, error) {
	now := requestcontext.Now(ctx)
	d, err := s.store.UpdateDepartment(ctx, deptID, func(d *models.Department) error {
		if err := d.Deactivate(now); err != nil {
			return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "department")
	}
	return d, nil
}

// ActiveDepartmentExists reports whether deptID names an active department.
func (s *Service) ActiveDepartmentExists(ctx context.Context, deptID id.DepartmentID) (bool, error) {
	d, err := s.store.FindDepartment(ctx, deptID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return d.IsActive, nil
}
