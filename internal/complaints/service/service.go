package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Workforce,Publisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	complaintmetrics "civic/internal/complaints/metrics"
	"civic/internal/complaints/models"
	"civic/internal/platform/events"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/audit"
	"civic/pkg/platform/httputil"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

var tracer = otel.Tracer("civic/complaints")

const (
	DefaultSLA          = 72 * time.Hour
	DefaultReopenWindow = 14 * 24 * time.Hour
)

type Store interface {
	Create(ctx context.Context, c *models.Complaint) error
	FindByID(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error)
	Update(ctx context.Context, complaintID id.ComplaintID, mutate func(context.Context, *models.Complaint) error) (*models.Complaint, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Complaint, int, error)
	ListOverdue(ctx context.Context, now time.Time) ([]*models.Complaint, error)
	Stats(ctx context.Context, now time.Time) (*models.Stats, error)
	AddComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, complaintID id.ComplaintID, includeInternal bool) ([]*models.Comment, error)
	UpsertSLAPolicy(ctx context.Context, p *models.SLAPolicy) error
	FindSLAPolicy(ctx context.Context, category string) (*models.SLAPolicy, error)
	ListSLAPolicies(ctx context.Context) ([]*models.SLAPolicy, error)
}

// Workforce tracks how many open complaints each staff member holds.
// Reserve fails when the staff member is inactive or at capacity.
type Workforce interface {
	Reserve(ctx context.Context, staffID id.UserID) error
	Release(ctx context.Context, staffID id.UserID) error
}

type Publisher interface {
	Publish(ctx context.Context, evt events.Event)
}

// DepartmentChecker confirms an optional department reference is active.
type DepartmentChecker interface {
	ActiveDepartmentExists(ctx context.Context, deptID id.DepartmentID) (bool, error)
}

// WardChecker confirms the complaint ward exists.
type WardChecker interface {
	WardExists(ctx context.Context, wardID id.WardID) (bool, error)
}

// Service runs the complaint lifecycle.
type Service struct {
	store       Store
	workforce   Workforce
	publisher   Publisher
	wards       WardChecker
	departments DepartmentChecker
	logger      *slog.Logger
	auditor     audit.Emitter
	metrics     *complaintmetrics.Metrics
	defaultSLA  time.Duration
	reopen      time.Duration
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

func WithMetrics(m *complaintmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithWorkforce(w Workforce) Option {
	return func(s *Service) {
		s.workforce = w
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithDirectory(wards WardChecker, departments DepartmentChecker) Option {
	return func(s *Service) {
		s.wards = wards
		s.departments = departments
	}
}

// WithDefaultSLA sets the deadline for categories without a policy.
func WithDefaultSLA(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.defaultSLA = d
		}
	}
}

// WithReopenWindow sets how long after resolution a filer may reopen.
func WithReopenWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reopen = d
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default(), defaultSLA: DefaultSLA, reopen: DefaultReopenWindow}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// translate maps store facts and model invariants to client errors. State
// machine violations surface as conflicts.
func translate(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
}

func (s *Service) publish(ctx context.Context, topic string, c *models.Complaint, payload any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, events.Event{
		Topic:      topic,
		Key:        c.ID.String(),
		OccurredAt: requestcontext.Now(ctx),
		Payload:    payload,
	})
}

func (s *Service) slaFor(ctx context.Context, category string) (time.Duration, error) {
	p, err := s.store.FindSLAPolicy(ctx, category)
	if errors.Is(err, sentinel.ErrNotFound) {
		return s.defaultSLA, nil
	}
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sla policy")
	}
	return p.Resolution(), nil
}

func (s *Service) checkReferences(ctx context.Context, wardID id.WardID, deptID id.DepartmentID) error {
	if s.wards != nil {
		ok, err := s.wards.WardExists(ctx, wardID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ward")
		}
		if !ok {
			return dErrors.New(dErrors.CodeValidation, "ward does not exist")
		}
	}
	if s.departments != nil && !deptID.IsNil() {
		ok, err := s.departments.ActiveDepartmentExists(ctx, deptID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check department")
		}
		if !ok {
			return dErrors.New(dErrors.CodeValidation, "department does not exist or is inactive")
		}
	}
	return nil
}

// File records a new complaint for the calling citizen. The due time comes
// from the category SLA policy.
func (s *Service) File(ctx context.Context, req *models.FileRequest) (*models.Complaint, error) {
	ctx, span := tracer.Start(ctx, "complaints.File")
	defer span.End()

	req.Normalize()
	wardID, deptID, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, wardID, deptID); err != nil {
		return nil, err
	}
	sla, err := s.slaFor(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	citizenID := requestcontext.UserID(ctx)
	c, err := models.NewComplaint(id.NewComplaintID(), citizenID, req.Title, req.Description, req.Category,
		wardID, deptID, req.Location, models.Priority(req.Priority), now.Add(sla), now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save complaint")
	}

	audit.Log(ctx, s.logger, s.auditor, audit.EventComplaintFiled,
		"user_id", citizenID.String(), "subject", c.ID.String(), "category", c.Category)
	if s.metrics != nil {
		s.metrics.IncrementFiled(c.Category)
	}
	s.publish(ctx, events.TopicComplaintFiled, c, events.ComplaintFiled{
		ComplaintID: c.ID,
		CitizenID:   c.CitizenID,
		WardID:      c.WardID,
		Title:       c.Title,
	})
	return c, nil
}

// Get returns a complaint. Citizens only see their own; other complaints
// read as missing.
func (s *Service) Get(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	c, err := s.store.FindByID(ctx, complaintID)
	if err != nil {
		return nil, translate(err, "complaint")
	}
	if !canView(requestcontext.Actor(ctx), c) {
		return nil, dErrors.New(dErrors.CodeNotFound, "complaint not found")
	}
	return c, nil
}

func canView(actor requestcontext.ActorInfo, c *models.Complaint) bool {
	return actor.Role.IsStaffSide() || c.CitizenID == actor.UserID
}

// List pages through complaints. Citizens are always scoped to their own.
func (s *Service) List(ctx context.Context, filter models.Filter) (*httputil.ListResponse[*models.Complaint], error) {
	actor := requestcontext.Actor(ctx)
	if !actor.Role.IsStaffSide() {
		filter.CitizenID = actor.UserID
	}
	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list complaints")
	}
	if items == nil {
		items = []*models.Complaint{}
	}
	return &httputil.ListResponse[*models.Complaint]{
		Items:  items,
		Total:  total,
		Limit:  filter.Page.Limit,
		Offset: filter.Page.Offset,
	}, nil
}

// Assign hands the complaint to a staff member. The new assignee's load is
// reserved and the previous assignee's released with the update's context,
// so on Postgres both land in the complaint's transaction and a failed
// update rolls them back.
func (s *Service) Assign(ctx context.Context, complaintID id.ComplaintID, staffID id.UserID) (*models.Complaint, error) {
	if staffID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "staff_id is required")
	}
	var (
		previous id.UserID
		prevHeld bool
	)
	c, err := s.store.Update(ctx, complaintID, func(ctx context.Context, c *models.Complaint) error {
		previous, prevHeld = c.AssigneeID, c.HoldsAssignee()
		if err := c.Assign(staffID, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if prevHeld && previous == staffID {
			return nil
		}
		if err := s.reserve(ctx, staffID); err != nil {
			return err
		}
		if !prevHeld {
			return nil
		}
		if err := s.release(ctx, previous); err != nil {
			// Undo the reservation for stores without a transaction.
			if undo := s.release(ctx, staffID); undo != nil {
				s.logger.ErrorContext(ctx, "undo load reservation failed", "staff_id", staffID.String(), "error", undo)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "complaint")
	}

	event := audit.EventComplaintAssigned
	if !previous.IsNil() {
		event = audit.EventComplaintReassigned
	}
	audit.Log(ctx, s.logger, s.auditor, event,
		"user_id", staffID.String(), "subject", c.ID.String(), "previous_assignee", previous.String())
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(models.StatusAssigned))
	}
	s.publish(ctx, events.TopicComplaintAssigned, c, events.ComplaintAssigned{
		ComplaintID: c.ID,
		CitizenID:   c.CitizenID,
		AssigneeID:  staffID,
		PreviousID:  previous,
		Title:       c.Title,
	})
	return c, nil
}

func (s *Service) reserve(ctx context.Context, staffID id.UserID) error {
	if s.workforce == nil {
		return nil
	}
	return s.workforce.Reserve(ctx, staffID)
}

func (s *Service) release(ctx context.Context, staffID id.UserID) error {
	if s.workforce == nil || staffID.IsNil() {
		return nil
	}
	return s.workforce.Release(ctx, staffID)
}

// authorizeStatus applies the per-role rules on top of the transition
// table: citizens may only close their own resolved complaints, staff may
// only progress work assigned to them.
func authorizeStatus(actor requestcontext.ActorInfo, c *models.Complaint, target models.Status) error {
	switch actor.Role {
	case id.RoleSupervisor, id.RoleAdmin:
		return nil
	case id.RoleStaff:
		if c.AssigneeID != actor.UserID {
			return dErrors.New(dErrors.CodeForbidden, "complaint is not assigned to you")
		}
		if target != models.StatusInProgress && target != models.StatusResolved {
			return dErrors.New(dErrors.CodeForbidden, "staff may only start or resolve complaints")
		}
		return nil
	default:
		if c.CitizenID != actor.UserID {
			return dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		if target != models.StatusClosed {
			return dErrors.New(dErrors.CodeForbidden, "citizens may only close their complaints")
		}
		return nil
	}
}

// UpdateStatus moves a complaint along its lifecycle. Leaving a status that
// holds the assignee releases their load.
func (s *Service) UpdateStatus(ctx context.Context, complaintID id.ComplaintID, req *models.StatusRequest) (*models.Complaint, error) {
	target, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	actor := requestcontext.Actor(ctx)
	var from models.Status
	c, err := s.store.Update(ctx, complaintID, func(ctx context.Context, c *models.Complaint) error {
		if err := authorizeStatus(actor, c, target); err != nil {
			return err
		}
		from = c.Status
		holder, held := c.AssigneeID, c.HoldsAssignee()
		if err := c.TransitionTo(target, req.Note, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if held && !c.HoldsAssignee() {
			return s.release(ctx, holder)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "complaint")
	}
	s.statusChanged(ctx, c, from)
	return c, nil
}

// Reopen lets the filer reopen a resolved complaint within the reopen
// window of its resolution.
func (s *Service) Reopen(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	actor := requestcontext.Actor(ctx)
	var from models.Status
	c, err := s.store.Update(ctx, complaintID, func(ctx context.Context, c *models.Complaint) error {
		if c.CitizenID != actor.UserID {
			if actor.Role.IsStaffSide() {
				return dErrors.New(dErrors.CodeForbidden, "only the filer can reopen a complaint")
			}
			return dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		from = c.Status
		return c.Reopen(requestcontext.Now(ctx), s.reopen)
	})
	if err != nil {
		return nil, translate(err, "complaint")
	}
	s.statusChanged(ctx, c, from)
	return c, nil
}

func (s *Service) statusChanged(ctx context.Context, c *models.Complaint, from models.Status) {
	audit.Log(ctx, s.logger, s.auditor, audit.EventComplaintStatus,
		"user_id", c.CitizenID.String(), "subject", c.ID.String(),
		"from", string(from), "to", string(c.Status), "reason", c.ResolutionNote)
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(c.Status))
	}
	s.publish(ctx, events.TopicComplaintStatusChanged, c, events.ComplaintStatusChanged{
		ComplaintID: c.ID,
		CitizenID:   c.CitizenID,
		From:        string(from),
		To:          string(c.Status),
		Title:       c.Title,
	})
}

// AddComment appends to the thread. Internal comments are staff-side only.
func (s *Service) AddComment(ctx context.Context, complaintID id.ComplaintID, req *models.CommentRequest) (*models.Comment, error) {
	actor := requestcontext.Actor(ctx)
	if req.Internal && !actor.Role.IsStaffSide() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only staff can post internal comments")
	}
	if _, err := s.Get(ctx, complaintID); err != nil {
		return nil, err
	}
	comment, err := models.NewComment(id.NewCommentID(), complaintID, actor.UserID, req.Body, req.Internal, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return nil, translate(err, "complaint")
	}
	return comment, nil
}

// ListComments returns the thread oldest first; citizens never see
// internal comments.
func (s *Service) ListComments(ctx context.Context, complaintID id.ComplaintID) ([]*models.Comment, error) {
	if _, err := s.Get(ctx, complaintID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, complaintID, requestcontext.Role(ctx).IsStaffSide())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list comments")
	}
	return comments, nil
}

// ListOverdue returns open complaints past due at now, most overdue first.
func (s *Service) ListOverdue(ctx context.Context, now time.Time) ([]*models.Complaint, error) {
	items, err := s.store.ListOverdue(ctx, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list overdue complaints")
	}
	if s.metrics != nil {
		s.metrics.SetOverdue(len(items))
	}
	if items == nil {
		items = []*models.Complaint{}
	}
	return items, nil
}

// Stats aggregates complaint counts for reports.
func (s *Service) Stats(ctx context.Context, now time.Time) (*models.Stats, error) {
	stats, err := s.store.Stats(ctx, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate complaints")
	}
	return stats, nil
}

// SetSLAPolicy sets the resolution deadline for a category. Existing
// complaints keep the due time they were filed with.
func (s *Service) SetSLAPolicy(ctx context.Context, req *models.SLARequest) (*models.SLAPolicy, error) {
	p, err := models.NewSLAPolicy(req.Category, req.ResolutionHours, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	if err := s.store.UpsertSLAPolicy(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save sla policy")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventSLAPolicyChanged,
		"user_id", requestcontext.UserID(ctx).String(), "subject", p.Category, "hours", p.ResolutionHours)
	return p, nil
}

func (s *Service) ListSLAPolicies(ctx context.Context) ([]*models.SLAPolicy, error) {
	policies, err := s.store.ListSLAPolicies(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sla policies")
	}
	return policies, nil
}
