package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"civic/internal/budget/models"
	"civic/internal/budget/service/mocks"
	"civic/internal/budget/store"
	identitymodels "civic/internal/identity/models"
	"civic/internal/platform/events"
	"civic/internal/platform/logger"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

// Justification: vote limits and the close decision run inside the store's
// locked section; the in-memory store keeps that path real.
type BudgetSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	users     *mocks.MockUserLookup
	publisher *mocks.MockPublisher
	svc       *Service
	now       time.Time
	admin     id.UserID
}

func TestBudgetSuite(t *testing.T) {
	suite.Run(t, new(BudgetSuite))
}

func (s *BudgetSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUserLookup(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.svc = New(store.NewInMemory(),
		WithUserLookup(s.users),
		WithPublisher(s.publisher),
		WithLogger(logger.Discard()),
	)
	s.now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.admin = id.NewUserID()
}

func (s *BudgetSuite) as(userID id.UserID, role id.Role) context.Context {
	s.now = s.now.Add(time.Second)
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithActor(ctx, userID, role)
}

func (s *BudgetSuite) asAdmin() context.Context {
	return s.as(s.admin, id.RoleAdmin)
}

func (s *BudgetSuite) cycle(budget int64, votes int, wardID id.WardID) *models.Cycle {
	req := &models.CycleRequest{
		Name:            "Harbour ward 2026",
		TotalBudget:     budget,
		VotesPerCitizen: votes,
		OpensAt:         s.now,
		ClosesAt:        s.now.Add(60 * 24 * time.Hour),
	}
	if !wardID.IsNil() {
		req.WardID = wardID.String()
	}
	c, err := s.svc.CreateCycle(s.asAdmin(), req)
	s.Require().NoError(err)
	c, err = s.svc.AdvanceCycle(s.asAdmin(), c.ID)
	s.Require().NoError(err)
	s.Require().Equal(models.CycleProposals, c.Status)
	return c
}

func (s *BudgetSuite) propose(c *models.Cycle, title string, cost int64, approve bool) *models.Proposal {
	p, err := s.svc.SubmitProposal(s.as(id.NewUserID(), id.RoleCitizen), c.ID, &models.ProposalRequest{
		Title: title, EstimatedCost: cost,
	})
	s.Require().NoError(err)
	p, err = s.svc.ReviewProposal(s.asAdmin(), p.ID, &models.ReviewRequest{Approve: approve})
	s.Require().NoError(err)
	return p
}

func (s *BudgetSuite) openVoting(c *models.Cycle) {
	got, err := s.svc.AdvanceCycle(s.asAdmin(), c.ID)
	s.Require().NoError(err)
	s.Require().Equal(models.CycleVoting, got.Status)
}

func (s *BudgetSuite) votes(citizen id.UserID, proposals ...*models.Proposal) {
	for _, p := range proposals {
		_, err := s.svc.Vote(s.as(citizen, id.RoleCitizen), p.ID)
		s.Require().NoError(err)
	}
}

func (s *BudgetSuite) TestPhasesGateActions() {
	c := s.cycle(1000, 2, id.WardID{})
	p := s.propose(c, "Skate park ramps", 400, true)

	_, err := s.svc.Vote(s.as(id.NewUserID(), id.RoleCitizen), p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "no voting before the voting phase")

	s.openVoting(c)
	_, err = s.svc.SubmitProposal(s.as(id.NewUserID(), id.RoleCitizen), c.ID, &models.ProposalRequest{
		Title: "Late idea here", EstimatedCost: 10,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.svc.ReviewProposal(s.asAdmin(), p.ID, &models.ReviewRequest{Approve: false})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *BudgetSuite) TestProposalValidation() {
	c := s.cycle(1000, 2, id.WardID{})
	_, err := s.svc.SubmitProposal(s.as(id.NewUserID(), id.RoleCitizen), c.ID, &models.ProposalRequest{
		Title: "Gold-plated fountain", EstimatedCost: 1001,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.SubmitProposal(s.as(id.NewUserID(), id.RoleCitizen), id.NewCycleID(), &models.ProposalRequest{
		Title: "Nowhere plan", EstimatedCost: 1,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *BudgetSuite) TestVoteRules() {
	c := s.cycle(1000, 2, id.WardID{})
	a := s.propose(c, "Playground shade", 300, true)
	b := s.propose(c, "Community garden", 200, true)
	third := s.propose(c, "Bus shelter", 100, true)
	rejected := s.propose(c, "Private helipad", 100, false)
	s.openVoting(c)
	citizen := id.NewUserID()

	s.votes(citizen, a)
	_, err := s.svc.Vote(s.as(citizen, id.RoleCitizen), a.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "one vote per proposal")

	_, err = s.svc.Vote(s.as(citizen, id.RoleCitizen), rejected.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "rejected proposals are not on the ballot")

	s.votes(citizen, b)
	_, err = s.svc.Vote(s.as(citizen, id.RoleCitizen), third.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "allowance is spent")

	got, err := s.svc.Unvote(s.as(citizen, id.RoleCitizen), a.ID)
	s.Require().NoError(err)
	s.Equal(0, got.VoteCount)
	s.votes(citizen, third)

	mine, err := s.svc.MyVotes(s.as(citizen, id.RoleCitizen), c.ID)
	s.Require().NoError(err)
	s.Len(mine, 2)

	_, err = s.svc.Unvote(s.as(citizen, id.RoleCitizen), a.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *BudgetSuite) TestConcurrentVotesRespectAllowance() {
	c := s.cycle(1000, 3, id.WardID{})
	var ballot []*models.Proposal
	for _, title := range []string{"Option one", "Option two", "Option three", "Option four", "Option five", "Option six"} {
		ballot = append(ballot, s.propose(c, title, 10, true))
	}
	s.openVoting(c)
	citizen := id.NewUserID()
	ctx := s.as(citizen, id.RoleCitizen)

	var wg sync.WaitGroup
	for _, p := range ballot {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.svc.Vote(ctx, p.ID)
		}()
	}
	wg.Wait()

	mine, err := s.svc.MyVotes(ctx, c.ID)
	s.Require().NoError(err)
	s.Len(mine, 3)
}

func (s *BudgetSuite) TestWardScopedCycle() {
	ward := id.NewWardID()
	c := s.cycle(1000, 1, ward)
	p := s.propose(c, "Harbour lights", 100, true)
	s.openVoting(c)

	resident, outsider := id.NewUserID(), id.NewUserID()
	s.users.EXPECT().GetUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, userID id.UserID) (*identitymodels.User, error) {
		u := &identitymodels.User{ID: userID, Role: id.RoleCitizen}
		if userID == resident {
			u.WardID = ward
		}
		return u, nil
	}).AnyTimes()

	_, err := s.svc.Vote(s.as(outsider, id.RoleCitizen), p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.votes(resident, p)
}

func (s *BudgetSuite) TestCloseFundsSimulatedWinners() {
	c := s.cycle(500, 3, id.WardID{})
	big := s.propose(c, "Library extension", 400, true)
	mid := s.propose(c, "Cycle lanes plan", 200, true)
	small := s.propose(c, "Tree planting day", 100, true)
	s.openVoting(c)

	for range 3 {
		s.votes(id.NewUserID(), big, mid, small)
	}
	s.votes(id.NewUserID(), big)
	s.votes(id.NewUserID(), mid)

	preview, err := s.svc.Simulate(s.as(s.admin, id.RoleStaff), c.ID)
	s.Require().NoError(err)

	var got events.Event
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Do(func(_ context.Context, evt events.Event) {
		got = evt
	})
	closed, err := s.svc.AdvanceCycle(s.asAdmin(), c.ID)
	s.Require().NoError(err)
	s.Equal(models.CycleClosed, closed.Status)

	wantWinners := []id.ProposalID{big.ID, small.ID}
	if diff := cmp.Diff(wantWinners, preview.WinnerIDs()); diff != "" {
		s.Failf("winners mismatch", "(-want +got):\n%s", diff)
	}
	s.Equal(int64(500), preview.TotalCost)
	s.Zero(preview.Remaining)

	payload, ok := got.Payload.(events.BudgetCycleClosed)
	s.Require().True(ok)
	s.Equal(wantWinners, payload.Funded)

	proposals, err := s.svc.ListProposals(s.as(id.NewUserID(), id.RoleCitizen), c.ID)
	s.Require().NoError(err)
	status := map[id.ProposalID]models.ProposalStatus{}
	for _, p := range proposals {
		status[p.ID] = p.Status
	}
	s.Equal(models.ProposalFunded, status[big.ID])
	s.Equal(models.ProposalApproved, status[mid.ID])
	s.Equal(models.ProposalFunded, status[small.ID])

	after, err := s.svc.Simulate(s.as(s.admin, id.RoleStaff), c.ID)
	s.Require().NoError(err)
	if diff := cmp.Diff(preview, after); diff != "" {
		s.Failf("simulation changed after close", "(-before +after):\n%s", diff)
	}

	_, _, err = s.svc.Close(s.asAdmin(), c.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	stats, err := s.svc.Stats(s.asAdmin())
	s.Require().NoError(err)
	s.Equal(models.Stats{Cycles: 1, Proposals: 3, Votes: 11}, *stats)
}

func (s *BudgetSuite) TestRejectedProposalsHiddenFromOtherCitizens() {
	c := s.cycle(1000, 1, id.WardID{})
	author := id.NewUserID()
	p, err := s.svc.SubmitProposal(s.as(author, id.RoleCitizen), c.ID, &models.ProposalRequest{
		Title: "Moat around city hall", EstimatedCost: 900,
	})
	s.Require().NoError(err)
	_, err = s.svc.ReviewProposal(s.asAdmin(), p.ID, &models.ReviewRequest{Approve: false, Reason: "out of scope"})
	s.Require().NoError(err)

	_, err = s.svc.GetProposal(s.as(id.NewUserID(), id.RoleCitizen), p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.svc.GetProposal(s.as(author, id.RoleCitizen), p.ID)
	s.NoError(err)
}
