package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,UserLookup,Publisher

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"

	budgetmetrics "civic/internal/budget/metrics"
	"civic/internal/budget/models"
	budgetstore "civic/internal/budget/store"
	identitymodels "civic/internal/identity/models"
	"civic/internal/platform/events"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/audit"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

var tracer = otel.Tracer("civic/budget")

type Store interface {
	CreateCycle(ctx context.Context, c *models.Cycle) error
	FindCycle(ctx context.Context, cycleID id.CycleID) (*models.Cycle, error)
	UpdateCycle(ctx context.Context, cycleID id.CycleID, mutate func(*models.Cycle) error) (*models.Cycle, error)
	ListCycles(ctx context.Context) ([]*models.Cycle, error)
	CreateProposal(ctx context.Context, p *models.Proposal) error
	FindProposal(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error)
	UpdateProposal(ctx context.Context, proposalID id.ProposalID, mutate func(*models.Proposal) error) (*models.Proposal, error)
	ListProposals(ctx context.Context, cycleID id.CycleID) ([]*models.Proposal, error)
	CastVote(ctx context.Context, v models.Vote, check budgetstore.VoteCheck) (*models.Proposal, error)
	WithdrawVote(ctx context.Context, proposalID id.ProposalID, citizenID id.UserID, check budgetstore.VoteCheck) (*models.Proposal, error)
	ListVotes(ctx context.Context, cycleID id.CycleID, citizenID id.UserID) ([]models.Vote, error)
	CloseCycle(ctx context.Context, cycleID id.CycleID, decide budgetstore.CloseFunc) (*models.Cycle, []*models.Proposal, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// UserLookup resolves a citizen's ward for ward-scoped cycles.
type UserLookup interface {
	GetUser(ctx context.Context, userID id.UserID) (*identitymodels.User, error)
}

type Publisher interface {
	Publish(ctx context.Context, evt events.Event)
}

// Service runs participatory budgeting cycles.
type Service struct {
	store     Store
	users     UserLookup
	publisher Publisher
	logger    *slog.Logger
	auditor   audit.Emitter
	metrics   *budgetmetrics.Metrics
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

func WithMetrics(m *budgetmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithUserLookup(users UserLookup) Option {
	return func(s *Service) {
		s.users = users
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
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
		return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
}

func invalid(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	return err
}

// CreateCycle opens a new cycle in draft.
func (s *Service) CreateCycle(ctx context.Context, req *models.CycleRequest) (*models.Cycle, error) {
	wardID, err := req.Ward()
	if err != nil {
		return nil, err
	}
	c, err := models.NewCycle(id.NewCycleID(), req.Name, wardID, req.TotalBudget, req.VotesPerCitizen,
		req.OpensAt, req.ClosesAt, requestcontext.Now(ctx))
	if err != nil {
		return nil, invalid(err)
	}
	if err := s.store.CreateCycle(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "ward does not exist")
		}
		return nil, translate(err, "cycle")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventCycleCreated,
		"user_id", requestcontext.UserID(ctx).String(), "subject", c.ID.String())
	return c, nil
}

func (s *Service) GetCycle(ctx context.Context, cycleID id.CycleID) (*models.Cycle, error) {
	c, err := s.store.FindCycle(ctx, cycleID)
	if err != nil {
		return nil, translate(err, "cycle")
	}
	return c, nil
}

func (s *Service) ListCycles(ctx context.Context) ([]*models.Cycle, error) {
	cycles, err := s.store.ListCycles(ctx)
	if err != nil {
		return nil, translate(err, "cycles")
	}
	return cycles, nil
}

// AdvanceCycle moves a cycle to its next phase. Leaving voting closes the
// cycle, which funds the winners.
func (s *Service) AdvanceCycle(ctx context.Context, cycleID id.CycleID) (*models.Cycle, error) {
	current, err := s.store.FindCycle(ctx, cycleID)
	if err != nil {
		return nil, translate(err, "cycle")
	}
	if current.Status == models.CycleVoting {
		c, _, err := s.Close(ctx, cycleID)
		return c, err
	}
	now := requestcontext.Now(ctx)
	c, err := s.store.UpdateCycle(ctx, cycleID, func(c *models.Cycle) error {
		if c.Status == models.CycleVoting {
			return dErrors.New(dErrors.CodeInvariantViolation, "cycle is voting; close it instead")
		}
		return c.Advance(now)
	})
	if err != nil {
		return nil, translate(err, "cycle")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventCycleAdvanced,
		"user_id", requestcontext.UserID(ctx).String(), "subject", c.ID.String(), "status", string(c.Status))
	return c, nil
}

// checkResident rejects citizens outside a ward-scoped cycle.
func (s *Service) checkResident(ctx context.Context, c *models.Cycle) error {
	if c.WardID.IsNil() || s.users == nil {
		return nil
	}
	u, err := s.users.GetUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		return err
	}
	if !c.Open(u.WardID) {
		return dErrors.New(dErrors.CodeForbidden, "this cycle is limited to residents of its ward")
	}
	return nil
}

// SubmitProposal adds the caller's proposal to a cycle in its proposals
// phase.
func (s *Service) SubmitProposal(ctx context.Context, cycleID id.CycleID, req *models.ProposalRequest) (*models.Proposal, error) {
	c, err := s.store.FindCycle(ctx, cycleID)
	if err != nil {
		return nil, translate(err, "cycle")
	}
	if err := s.checkResident(ctx, c); err != nil {
		return nil, err
	}
	authorID := requestcontext.UserID(ctx)
	p, err := models.NewProposal(id.NewProposalID(), c, authorID, req.Title, req.Description,
		req.EstimatedCost, requestcontext.Now(ctx))
	if err != nil {
		return nil, invalid(err)
	}
	if err := s.store.CreateProposal(ctx, p); err != nil {
		if errors.Is(err, budgetstore.ErrPhaseClosed) {
			return nil, dErrors.New(dErrors.CodeConflict, "cycle is not accepting proposals")
		}
		return nil, translate(err, "cycle")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventProposalSubmitted,
		"user_id", authorID.String(), "subject", p.ID.String(), "cycle_id", cycleID.String())
	return p, nil
}

// ReviewProposal approves or rejects a submitted proposal. Reviews are only
// taken before voting starts.
func (s *Service) ReviewProposal(ctx context.Context, proposalID id.ProposalID, req *models.ReviewRequest) (*models.Proposal, error) {
	existing, err := s.store.FindProposal(ctx, proposalID)
	if err != nil {
		return nil, translate(err, "proposal")
	}
	c, err := s.store.FindCycle(ctx, existing.CycleID)
	if err != nil {
		return nil, translate(err, "cycle")
	}
	if c.Status != models.CycleDraft && c.Status != models.CycleProposals {
		return nil, dErrors.New(dErrors.CodeConflict, "proposals can only be reviewed before voting opens")
	}
	now := requestcontext.Now(ctx)
	p, err := s.store.UpdateProposal(ctx, proposalID, func(p *models.Proposal) error {
		return p.Review(req.Approve, now)
	})
	if err != nil {
		return nil, translate(err, "proposal")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventProposalReviewed,
		"user_id", requestcontext.UserID(ctx).String(), "subject", p.ID.String(),
		"decision", string(p.Status), "reason", req.Reason)
	return p, nil
}

func visibleTo(actor requestcontext.ActorInfo, p *models.Proposal) bool {
	return actor.Role.IsStaffSide() || p.Status != models.ProposalRejected || p.AuthorID == actor.UserID
}

func (s *Service) GetProposal(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	p, err := s.store.FindProposal(ctx, proposalID)
	if err != nil {
		return nil, translate(err, "proposal")
	}
	if !visibleTo(requestcontext.Actor(ctx), p) {
		return nil, dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	return p, nil
}

// ListProposals returns a cycle's proposals. Rejected proposals are only
// shown to staff and their authors.
func (s *Service) ListProposals(ctx context.Context, cycleID id.CycleID) ([]*models.Proposal, error) {
	if _, err := s.store.FindCycle(ctx, cycleID); err != nil {
		return nil, translate(err, "cycle")
	}
	proposals, err := s.store.ListProposals(ctx, cycleID)
	if err != nil {
		return nil, translate(err, "proposals")
	}
	actor := requestcontext.Actor(ctx)
	out := make([]*models.Proposal, 0, len(proposals))
	for _, p := range proposals {
		if visibleTo(actor, p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// checkBallot runs inside the store's lock before a vote changes.
func checkBallot(c *models.Cycle, p *models.Proposal) error {
	if !c.AcceptsVotes() {
		return dErrors.New(dErrors.CodeConflict, "cycle is not open for voting")
	}
	if !p.Votable() {
		return dErrors.New(dErrors.CodeConflict, "proposal is not on the ballot")
	}
	return nil
}

// Vote records the caller's support for an approved proposal.
func (s *Service) Vote(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	ctx, span := tracer.Start(ctx, "budget.Vote")
	defer span.End()

	existing, err := s.store.FindProposal(ctx, proposalID)
	if err != nil {
		return nil, translate(err, "proposal")
	}
	c, err := s.store.FindCycle(ctx, existing.CycleID)
	if err != nil {
		return nil, translate(err, "cycle")
	}
	if err := s.checkResident(ctx, c); err != nil {
		return nil, err
	}
	citizenID := requestcontext.UserID(ctx)
	p, err := s.store.CastVote(ctx, models.Vote{
		CycleID:    c.ID,
		ProposalID: proposalID,
		CitizenID:  citizenID,
		CastAt:     requestcontext.Now(ctx),
	}, checkBallot)
	switch {
	case errors.Is(err, budgetstore.ErrAlreadyVoted):
		return nil, dErrors.New(dErrors.CodeConflict, "you have already voted for this proposal")
	case errors.Is(err, budgetstore.ErrVoteLimit):
		return nil, dErrors.New(dErrors.CodeConflict, "vote limit reached for this cycle")
	case err != nil:
		return nil, translate(err, "proposal")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventVoteCast,
		"user_id", citizenID.String(), "subject", proposalID.String(), "cycle_id", c.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementVote("cast")
	}
	return p, nil
}

// Unvote withdraws the caller's vote while voting is open.
func (s *Service) Unvote(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	citizenID := requestcontext.UserID(ctx)
	p, err := s.store.WithdrawVote(ctx, proposalID, citizenID, checkBallot)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "vote not found")
		}
		return nil, translate(err, "proposal")
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventVoteWithdrawn,
		"user_id", citizenID.String(), "subject", proposalID.String())
	if s.metrics != nil {
		s.metrics.IncrementVote("withdrawn")
	}
	return p, nil
}

// MyVotes lists the caller's votes in a cycle.
func (s *Service) MyVotes(ctx context.Context, cycleID id.CycleID) ([]models.Vote, error) {
	votes, err := s.store.ListVotes(ctx, cycleID, requestcontext.UserID(ctx))
	if err != nil {
		return nil, translate(err, "votes")
	}
	return votes, nil
}

// Simulate reports who would be funded if the cycle closed now.
func (s *Service) Simulate(ctx context.Context, cycleID id.CycleID) (*models.Simulation, error) {
	c, err := s.store.FindCycle(ctx, cycleID)
	if err != nil {
		return nil, translate(err, "cycle")
	}
	proposals, err := s.store.ListProposals(ctx, cycleID)
	if err != nil {
		return nil, translate(err, "proposals")
	}
	sim := models.Simulate(c, proposals)
	return &sim, nil
}

// Close ends voting, funds the simulated winners and announces the result.
func (s *Service) Close(ctx context.Context, cycleID id.CycleID) (*models.Cycle, *models.Simulation, error) {
	ctx, span := tracer.Start(ctx, "budget.Close")
	defer span.End()

	now := requestcontext.Now(ctx)
	var sim models.Simulation
	c, _, err := s.store.CloseCycle(ctx, cycleID, func(c *models.Cycle, proposals []*models.Proposal) error {
		if c.Status != models.CycleVoting {
			return dErrors.New(dErrors.CodeInvariantViolation, "only a cycle in voting can be closed")
		}
		sim = models.Simulate(c, proposals)
		winners := make(map[id.ProposalID]bool, len(sim.Winners))
		for _, w := range sim.Winners {
			winners[w.ProposalID] = true
		}
		for _, p := range proposals {
			if winners[p.ID] {
				if err := p.MarkFunded(now); err != nil {
					return err
				}
			}
		}
		return c.Advance(now)
	})
	if err != nil {
		return nil, nil, translate(err, "cycle")
	}

	audit.Log(ctx, s.logger, s.auditor, audit.EventCycleClosed,
		"user_id", requestcontext.UserID(ctx).String(), "subject", c.ID.String(),
		"funded", len(sim.Winners), "total_cost", sim.TotalCost)
	if s.metrics != nil {
		s.metrics.ObserveClose(len(sim.Winners), sim.TotalCost)
	}
	if s.publisher != nil {
		s.publisher.Publish(ctx, events.Event{
			Topic:      events.TopicBudgetCycleClosed,
			Key:        c.ID.String(),
			OccurredAt: now,
			Payload: events.BudgetCycleClosed{
				CycleID:   c.ID,
				Funded:    sim.WinnerIDs(),
				TotalCost: sim.TotalCost,
			},
		})
	}
	return c, &sim, nil
}

func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, translate(err, "budget stats")
	}
	return stats, nil
}
