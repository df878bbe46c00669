package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,ComplaintDesk,UserLookup

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	complaintmodels "civic/internal/complaints/models"
	identitymodels "civic/internal/identity/models"
	"civic/internal/workforce/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/audit"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

type Store interface {
	UpsertStaff(ctx context.Context, p *models.StaffProfile) (*models.StaffProfile, error)
	FindStaff(ctx context.Context, userID id.UserID) (*models.StaffProfile, error)
	ListStaff(ctx context.Context, filter models.StaffFilter) ([]*models.StaffProfile, error)
	AdjustLoad(ctx context.Context, userID id.UserID, delta int, now time.Time) (*models.StaffProfile, error)
	UpsertSupervisor(ctx context.Context, p *models.SupervisorProfile) error
	FindSupervisor(ctx context.Context, userID id.UserID) (*models.SupervisorProfile, error)
}

// ComplaintDesk is the slice of the complaints service reassignment needs.
type ComplaintDesk interface {
	Get(ctx context.Context, complaintID id.ComplaintID) (*complaintmodels.Complaint, error)
	Assign(ctx context.Context, complaintID id.ComplaintID, staffID id.UserID) (*complaintmodels.Complaint, error)
}

// UserLookup confirms a profile belongs to an account of the right role.
type UserLookup interface {
	GetUser(ctx context.Context, userID id.UserID) (*identitymodels.User, error)
}

// Service manages staff capacity and supervisor jurisdiction.
type Service struct {
	store   Store
	desk    ComplaintDesk
	users   UserLookup
	logger  *slog.Logger
	auditor audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithUserLookup(users UserLookup) Option {
	return func(s *Service) {
		s.users = users
	}
}

func New(store Store, desk ComplaintDesk, opts ...Option) *Service {
	s := &Service{store: store, desk: desk}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func translate(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
}

func (s *Service) requireRole(ctx context.Context, userID id.UserID, role id.Role) error {
	if s.users == nil {
		return nil
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role != role {
		return dErrors.New(dErrors.CodeValidation, "user is not a "+role.String())
	}
	return nil
}

// UpsertStaff creates or replaces a staff profile. The current load is
// owned by complaint assignment and never set here.
func (s *Service) UpsertStaff(ctx context.Context, userID id.UserID, req *models.StaffRequest) (*models.StaffProfile, error) {
	deptID, wardIDs, err := models.ParseRefs(req.DepartmentID, req.WardIDs)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, userID, id.RoleStaff); err != nil {
		return nil, err
	}
	active := req.Active == nil || *req.Active
	p, err := models.NewStaffProfile(userID, deptID, wardIDs, req.MaxLoad, active, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "staff profile")
	}
	stored, err := s.store.UpsertStaff(ctx, p)
	if err != nil {
		return nil, translate(err, "staff profile")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventStaffProfileSaved,
		"user_id", userID.String(), "max_load", stored.MaxLoad, "active", stored.Active)
	return stored, nil
}

func (s *Service) UpsertSupervisor(ctx context.Context, userID id.UserID, req *models.SupervisorRequest) (*models.SupervisorProfile, error) {
	deptID, wardIDs, err := models.ParseRefs(req.DepartmentID, req.WardIDs)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, userID, id.RoleSupervisor); err != nil {
		return nil, err
	}
	p, err := models.NewSupervisorProfile(userID, deptID, wardIDs, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "supervisor profile")
	}
	if err := s.store.UpsertSupervisor(ctx, p); err != nil {
		return nil, translate(err, "supervisor profile")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventSupervisorProfileSaved,
		"user_id", userID.String(), "wards", len(p.WardIDs))
	return p, nil
}

func (s *Service) GetStaff(ctx context.Context, userID id.UserID) (*models.StaffProfile, error) {
	p, err := s.store.FindStaff(ctx, userID)
	if err != nil {
		return nil, translate(err, "staff profile")
	}
	return p, nil
}

func (s *Service) GetSupervisor(ctx context.Context, userID id.UserID) (*models.SupervisorProfile, error) {
	p, err := s.store.FindSupervisor(ctx, userID)
	if err != nil {
		return nil, translate(err, "supervisor profile")
	}
	return p, nil
}

func (s *Service) ListStaff(ctx context.Context, filter models.StaffFilter) ([]*models.StaffProfile, error) {
	profiles, err := s.store.ListStaff(ctx, filter)
	if err != nil {
		return nil, translate(err, "staff profiles")
	}
	return profiles, nil
}

func (s *Service) Workload(ctx context.Context, userID id.UserID) (*models.Workload, error) {
	p, err := s.GetStaff(ctx, userID)
	if err != nil {
		return nil, err
	}
	w := p.Workload()
	return &w, nil
}

// WardWorkload lists staff covering the ward, busiest first.
func (s *Service) WardWorkload(ctx context.Context, wardID id.WardID) ([]models.Workload, error) {
	profiles, err := s.ListStaff(ctx, models.StaffFilter{WardID: wardID})
	if err != nil {
		return nil, err
	}
	rows := make([]models.Workload, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, p.Workload())
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Percentage != rows[j].Percentage {
			return rows[i].Percentage > rows[j].Percentage
		}
		return rows[i].UserID.String() < rows[j].UserID.String()
	})
	return rows, nil
}

// SuggestAssignee picks the active staff member covering the ward with the
// lowest utilisation and spare capacity. Ties go to the lower current load,
// then the lower user id.
func (s *Service) SuggestAssignee(ctx context.Context, wardID id.WardID, deptID id.DepartmentID) (*models.StaffProfile, error) {
	profiles, err := s.ListStaff(ctx, models.StaffFilter{WardID: wardID, DepartmentID: deptID, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	var best *models.StaffProfile
	for _, p := range profiles {
		if !p.HasCapacity() {
			continue
		}
		if best == nil || lessLoaded(p, best) {
			best = p
		}
	}
	if best == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no staff member with spare capacity covers this ward")
	}
	return best, nil
}

func lessLoaded(a, b *models.StaffProfile) bool {
	pa, pb := a.Workload().Percentage, b.Workload().Percentage
	if pa != pb {
		return pa < pb
	}
	if a.CurrentLoad != b.CurrentLoad {
		return a.CurrentLoad < b.CurrentLoad
	}
	return a.UserID.String() < b.UserID.String()
}

// Reassign moves a complaint to another staff member. Supervisors may only
// act inside their wards; admins act anywhere.
func (s *Service) Reassign(ctx context.Context, complaintID id.ComplaintID, staffID id.UserID) (*complaintmodels.Complaint, error) {
	actor := requestcontext.Actor(ctx)
	c, err := s.desk.Get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if actor.Role != id.RoleAdmin {
		sup, err := s.store.FindSupervisor(ctx, actor.UserID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, translate(err, "supervisor profile")
		}
		if sup == nil || !sup.Covers(c.WardID) {
			return nil, dErrors.New(dErrors.CodeForbidden, "complaint ward is outside your jurisdiction")
		}
	}
	target, err := s.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if !target.HasCapacity() {
		return nil, dErrors.New(dErrors.CodeConflict, "staff member is inactive or at capacity")
	}
	return s.desk.Assign(ctx, complaintID, staffID)
}

// LoadTracker adjusts staff load on behalf of the complaints service.
type LoadTracker struct {
	store  Store
	logger *slog.Logger
}

func NewLoadTracker(store Store, logger *slog.Logger) *LoadTracker {
	return &LoadTracker{store: store, logger: logger}
}

// Reserve takes one unit of capacity.
func (t *LoadTracker) Reserve(ctx context.Context, staffID id.UserID) error {
	_, err := t.store.AdjustLoad(ctx, staffID, 1, requestcontext.Now(ctx))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeValidation, "staff member has no workforce profile")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "staff member is inactive or at capacity")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve staff capacity")
}

// Release returns one unit. A missing profile is logged and ignored so a
// deleted profile never blocks closing out its complaints.
func (t *LoadTracker) Release(ctx context.Context, staffID id.UserID) error {
	_, err := t.store.AdjustLoad(ctx, staffID, -1, requestcontext.Now(ctx))
	if errors.Is(err, sentinel.ErrNotFound) {
		if t.logger != nil {
			t.logger.WarnContext(ctx, "releasing load for staff without profile", "user_id", staffID.String())
		}
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release staff capacity")
	}
	return nil
}
