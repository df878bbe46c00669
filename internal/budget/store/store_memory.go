package store

import (
	"context"
	"sort"
	"sync"

	"civic/internal/budget/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

var (
	ErrNotFound     = sentinel.ErrNotFound
	ErrAlreadyVoted = sentinel.ErrAlreadyUsed
	ErrVoteLimit    = sentinel.ErrInvalidState
	ErrPhaseClosed  = sentinel.ErrInvalidState
)

// VoteCheck runs with the cycle and proposal locked, before a vote is
// recorded or withdrawn.
type VoteCheck func(c *models.Cycle, p *models.Proposal) error

// CloseFunc decides a closing cycle with every proposal locked. It mutates
// both in place.
type CloseFunc func(c *models.Cycle, proposals []*models.Proposal) error

type voteKey struct {
	proposal id.ProposalID
	citizen  id.UserID
}

// InMemoryStore serialises all budget writes behind one lock, which is what
// keeps per-citizen vote limits exact.
type InMemoryStore struct {
	mu        sync.RWMutex
	cycles    map[id.CycleID]*models.Cycle
	proposals map[id.ProposalID]*models.Proposal
	votes     map[voteKey]models.Vote
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		cycles:    make(map[id.CycleID]*models.Cycle),
		proposals: make(map[id.ProposalID]*models.Proposal),
		votes:     make(map[voteKey]models.Vote),
	}
}

func cloneCycle(c *models.Cycle) *models.Cycle {
	out := *c
	return &out
}

func cloneProposal(p *models.Proposal) *models.Proposal {
	out := *p
	return &out
}

func (s *InMemoryStore) CreateCycle(_ context.Context, c *models.Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cycles[c.ID]; ok {
		return sentinel.ErrConflict
	}
	s.cycles[c.ID] = cloneCycle(c)
	return nil
}

func (s *InMemoryStore) FindCycle(_ context.Context, cycleID id.CycleID) (*models.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cycles[cycleID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCycle(c), nil
}

func (s *InMemoryStore) UpdateCycle(_ context.Context, cycleID id.CycleID, mutate func(*models.Cycle) error) (*models.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cycles[cycleID]
	if !ok {
		return nil, ErrNotFound
	}
	working := cloneCycle(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.cycles[cycleID] = working
	return cloneCycle(working), nil
}

// ListCycles returns cycles newest first.
func (s *InMemoryStore) ListCycles(_ context.Context) ([]*models.Cycle, error) {
	s.mu.RLock()
	out := make([]*models.Cycle, 0, len(s.cycles))
	for _, c := range s.cycles {
		out = append(out, cloneCycle(c))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// CreateProposal stores p if its cycle still accepts proposals, failing
// with ErrPhaseClosed otherwise.
func (s *InMemoryStore) CreateProposal(_ context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cycles[p.CycleID]
	if !ok {
		return ErrNotFound
	}
	if !c.AcceptsProposals() {
		return ErrPhaseClosed
	}
	if _, ok := s.proposals[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.proposals[p.ID] = cloneProposal(p)
	return nil
}

func (s *InMemoryStore) FindProposal(_ context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[proposalID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProposal(p), nil
}

func (s *InMemoryStore) UpdateProposal(_ context.Context, proposalID id.ProposalID, mutate func(*models.Proposal) error) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.proposals[proposalID]
	if !ok {
		return nil, ErrNotFound
	}
	working := cloneProposal(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.proposals[proposalID] = working
	return cloneProposal(working), nil
}

// ListProposals returns a cycle's proposals in submission order.
func (s *InMemoryStore) ListProposals(_ context.Context, cycleID id.CycleID) ([]*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proposalsOf(cycleID), nil
}

func (s *InMemoryStore) proposalsOf(cycleID id.CycleID) []*models.Proposal {
	out := []*models.Proposal{}
	for _, p := range s.proposals {
		if p.CycleID == cycleID {
			out = append(out, cloneProposal(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (s *InMemoryStore) locked(proposalID id.ProposalID) (*models.Cycle, *models.Proposal, error) {
	p, ok := s.proposals[proposalID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	c, ok := s.cycles[p.CycleID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	return c, p, nil
}

// CastVote records a vote and bumps the proposal count. It fails with
// ErrAlreadyVoted for a repeat and ErrVoteLimit once the citizen has used
// the cycle's allowance.
func (s *InMemoryStore) CastVote(_ context.Context, v models.Vote, check VoteCheck) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, p, err := s.locked(v.ProposalID)
	if err != nil {
		return nil, err
	}
	if err := check(cloneCycle(c), cloneProposal(p)); err != nil {
		return nil, err
	}
	key := voteKey{proposal: v.ProposalID, citizen: v.CitizenID}
	if _, ok := s.votes[key]; ok {
		return nil, ErrAlreadyVoted
	}
	used := 0
	for _, existing := range s.votes {
		if existing.CycleID == c.ID && existing.CitizenID == v.CitizenID {
			used++
		}
	}
	if used >= c.VotesPerCitizen {
		return nil, ErrVoteLimit
	}
	v.CycleID = c.ID
	s.votes[key] = v
	p.VoteCount++
	return cloneProposal(p), nil
}

// WithdrawVote removes a vote and decrements the count.
func (s *InMemoryStore) WithdrawVote(_ context.Context, proposalID id.ProposalID, citizenID id.UserID, check VoteCheck) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, p, err := s.locked(proposalID)
	if err != nil {
		return nil, err
	}
	if err := check(cloneCycle(c), cloneProposal(p)); err != nil {
		return nil, err
	}
	key := voteKey{proposal: proposalID, citizen: citizenID}
	if _, ok := s.votes[key]; !ok {
		return nil, ErrNotFound
	}
	delete(s.votes, key)
	p.VoteCount = max(p.VoteCount-1, 0)
	return cloneProposal(p), nil
}

// ListVotes returns a citizen's votes in a cycle, oldest first.
func (s *InMemoryStore) ListVotes(_ context.Context, cycleID id.CycleID, citizenID id.UserID) ([]models.Vote, error) {
	s.mu.RLock()
	out := []models.Vote{}
	for _, v := range s.votes {
		if v.CycleID == cycleID && v.CitizenID == citizenID {
			out = append(out, v)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CastAt.Equal(out[j].CastAt) {
			return out[i].CastAt.Before(out[j].CastAt)
		}
		return out[i].ProposalID.String() < out[j].ProposalID.String()
	})
	return out, nil
}

// CloseCycle applies decide to the cycle and all of its proposals as one
// write.
func (s *InMemoryStore) CloseCycle(_ context.Context, cycleID id.CycleID, decide CloseFunc) (*models.Cycle, []*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cycles[cycleID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	c := cloneCycle(current)
	proposals := s.proposalsOf(cycleID)
	if err := decide(c, proposals); err != nil {
		return nil, nil, err
	}
	s.cycles[cycleID] = cloneCycle(c)
	for _, p := range proposals {
		s.proposals[p.ID] = cloneProposal(p)
	}
	return c, proposals, nil
}

func (s *InMemoryStore) Stats(_ context.Context) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &models.Stats{
		Cycles:    len(s.cycles),
		Proposals: len(s.proposals),
		Votes:     len(s.votes),
	}, nil
}
