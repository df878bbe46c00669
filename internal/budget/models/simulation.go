package models

import (
	"sort"

	id "civic/pkg/domain"
)

// Allocation is a proposal's place in the funding order.
type Allocation struct {
	ProposalID id.ProposalID `json:"proposal_id"`
	Title      string        `json:"title"`
	Votes      int           `json:"votes"`
	Cost       int64         `json:"cost"`
	Funded     bool          `json:"funded"`
}

// Simulation is the outcome of funding proposals greedily by support.
type Simulation struct {
	CycleID   id.CycleID   `json:"cycle_id"`
	Budget    int64        `json:"budget"`
	Winners   []Allocation `json:"winners"`
	Unfunded  []Allocation `json:"unfunded"`
	TotalCost int64        `json:"total_cost"`
	Remaining int64        `json:"remaining"`
}

// Rank orders proposals by votes, then earlier submission, then id.
func Rank(proposals []*Proposal) []*Proposal {
	ranked := make([]*Proposal, len(proposals))
	copy(ranked, proposals)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return ranked
}

// Simulate walks approved proposals in rank order and funds each one that
// still fits the remaining budget. A proposal that does not fit is skipped
// and the walk continues, so cheaper proposals further down can still win.
// Funded proposals are eligible too, so the result is stable after close.
func Simulate(cycle *Cycle, proposals []*Proposal) Simulation {
	sim := Simulation{
		CycleID:   cycle.ID,
		Budget:    cycle.TotalBudget,
		Winners:   []Allocation{},
		Unfunded:  []Allocation{},
		Remaining: cycle.TotalBudget,
	}
	var eligible []*Proposal
	for _, p := range proposals {
		if p.Status == ProposalApproved || p.Status == ProposalFunded {
			eligible = append(eligible, p)
		}
	}
	for _, p := range Rank(eligible) {
		a := Allocation{ProposalID: p.ID, Title: p.Title, Votes: p.VoteCount, Cost: p.EstimatedCost}
		if p.EstimatedCost <= sim.Remaining {
			a.Funded = true
			sim.Remaining -= p.EstimatedCost
			sim.TotalCost += p.EstimatedCost
			sim.Winners = append(sim.Winners, a)
			continue
		}
		sim.Unfunded = append(sim.Unfunded, a)
	}
	return sim
}

// WinnerIDs lists the funded proposal ids in rank order.
func (s Simulation) WinnerIDs() []id.ProposalID {
	ids := make([]id.ProposalID, 0, len(s.Winners))
	for _, w := range s.Winners {
		ids = append(ids, w.ProposalID)
	}
	return ids
}
