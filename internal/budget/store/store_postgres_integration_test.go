//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civic/internal/budget/models"
	"civic/internal/budget/store"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
	"civic/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	author   id.UserID
	citizen  id.UserID
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "budget_votes", "budget_proposals", "budget_cycles", "users"))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.author = s.user("author@example.org")
	s.citizen = s.user("voter@example.org")
}

func (s *PostgresStoreSuite) user(email string) id.UserID {
	userID := id.NewUserID()
	_, err := s.postgres.Exec(context.Background(), `INSERT INTO users (id, email, display_name, role, status, password_hash, created_at, updated_at)
		VALUES ($1, $2, 'Resident', 'citizen', 'active', 'x', $3, $3)`, userID, email, s.now)
	s.Require().NoError(err)
	return userID
}

// votingCycle creates a cycle in the voting phase with the given number of
// proposals.
func (s *PostgresStoreSuite) votingCycle(votesPerCitizen, proposals int) (*models.Cycle, []*models.Proposal) {
	ctx := context.Background()
	c, err := models.NewCycle(id.NewCycleID(), "Parks 2026", id.WardID{}, 1_000_000, votesPerCitizen, s.now, s.now.Add(30*24*time.Hour), s.now)
	s.Require().NoError(err)
	s.Require().NoError(c.Advance(s.now))
	s.Require().NoError(s.store.CreateCycle(ctx, c))

	out := make([]*models.Proposal, 0, proposals)
	for range proposals {
		p, err := models.NewProposal(id.NewProposalID(), c, s.author, "New benches", "Benches along the river walk.", 25_000, s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.store.CreateProposal(ctx, p))
		out = append(out, p)
	}
	c, err = s.store.UpdateCycle(ctx, c.ID, func(c *models.Cycle) error { return c.Advance(s.now) })
	s.Require().NoError(err)
	s.Require().True(c.AcceptsVotes())
	return c, out
}

func allowAll(*models.Cycle, *models.Proposal) error { return nil }

func (s *PostgresStoreSuite) vote(c *models.Cycle, p *models.Proposal) (*models.Proposal, error) {
	return s.store.CastVote(context.Background(), models.Vote{
		CycleID: c.ID, ProposalID: p.ID, CitizenID: s.citizen, CastAt: s.now,
	}, allowAll)
}

func (s *PostgresStoreSuite) voteCount(proposalID id.ProposalID) int {
	p, err := s.store.FindProposal(context.Background(), proposalID)
	s.Require().NoError(err)
	return p.VoteCount
}

func (s *PostgresStoreSuite) TestVoteLimitSpansProposals() {
	c, ps := s.votingCycle(1, 2)

	updated, err := s.vote(c, ps[0])
	s.Require().NoError(err)
	s.Equal(1, updated.VoteCount)

	_, err = s.vote(c, ps[1])
	s.ErrorIs(err, store.ErrVoteLimit)
	s.Equal(0, s.voteCount(ps[1].ID), "refused vote leaves no trace")

	votes, err := s.store.ListVotes(context.Background(), c.ID, s.citizen)
	s.Require().NoError(err)
	s.Require().Len(votes, 1)
	s.Equal(ps[0].ID, votes[0].ProposalID)

	// Withdrawing frees the slot for another proposal.
	_, err = s.store.WithdrawVote(context.Background(), ps[0].ID, s.citizen, allowAll)
	s.Require().NoError(err)
	updated, err = s.vote(c, ps[1])
	s.Require().NoError(err)
	s.Equal(1, updated.VoteCount)
	s.Equal(0, s.voteCount(ps[0].ID))
}

func (s *PostgresStoreSuite) TestDuplicateVoteIsRejected() {
	c, ps := s.votingCycle(3, 1)

	_, err := s.vote(c, ps[0])
	s.Require().NoError(err)
	_, err = s.vote(c, ps[0])
	s.ErrorIs(err, store.ErrAlreadyVoted)
	s.Equal(1, s.voteCount(ps[0].ID))
}

func (s *PostgresStoreSuite) TestConcurrentVotesRespectLimit() {
	c, ps := s.votingCycle(2, 6)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for _, p := range ps {
		wg.Go(func() {
			_, err := s.vote(c, p)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			s.True(errors.Is(err, store.ErrVoteLimit), "unexpected error: %v", err)
		})
	}
	wg.Wait()

	s.Equal(2, accepted)
	votes, err := s.store.ListVotes(context.Background(), c.ID, s.citizen)
	s.Require().NoError(err)
	s.Len(votes, 2)

	total := 0
	for _, p := range ps {
		total += s.voteCount(p.ID)
	}
	s.Equal(2, total, "tallies match stored votes")
}

func (s *PostgresStoreSuite) TestCheckRunsUnderLock() {
	c, ps := s.votingCycle(1, 1)
	closed := errors.New("voting closed")

	_, err := s.store.CastVote(context.Background(), models.Vote{
		CycleID: c.ID, ProposalID: ps[0].ID, CitizenID: s.citizen, CastAt: s.now,
	}, func(*models.Cycle, *models.Proposal) error { return closed })
	s.ErrorIs(err, closed)
	s.Equal(0, s.voteCount(ps[0].ID))
}

func (s *PostgresStoreSuite) TestProposalsOnlyDuringProposalPhase() {
	c, _ := s.votingCycle(1, 0)
	late, err := models.NewProposal(id.NewProposalID(), c, s.author, "Late idea", "", 1_000, s.now)
	s.Require().NoError(err)

	err = s.store.CreateProposal(context.Background(), late)
	s.ErrorIs(err, store.ErrPhaseClosed)

	_, err = s.store.FindProposal(context.Background(), late.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCloseCycleWritesDecisions() {
	c, ps := s.votingCycle(1, 2)
	_, err := s.vote(c, ps[1])
	s.Require().NoError(err)

	closed, proposals, err := s.store.CloseCycle(context.Background(), c.ID, func(c *models.Cycle, ps []*models.Proposal) error {
		for _, p := range ps {
			p.Status = models.ProposalRejected
			if p.VoteCount > 0 {
				p.Status = models.ProposalFunded
			}
		}
		return c.Advance(s.now)
	})
	s.Require().NoError(err)
	s.Equal(models.CycleClosed, closed.Status)
	s.Len(proposals, 2)

	stored, err := s.store.FindProposal(context.Background(), ps[1].ID)
	s.Require().NoError(err)
	s.Equal(models.ProposalFunded, stored.Status)

	stats, err := s.store.Stats(context.Background())
	s.Require().NoError(err)
	s.Equal(1, stats.Cycles)
	s.Equal(2, stats.Proposals)
	s.Equal(1, stats.Votes)
}
