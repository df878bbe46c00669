package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"civic/internal/complaints/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

var ErrNotFound = sentinel.ErrNotFound

// InMemoryStore holds complaints, their comment threads and SLA policies.
type InMemoryStore struct {
	mu         sync.RWMutex
	complaints map[id.ComplaintID]*models.Complaint
	comments   map[id.ComplaintID][]*models.Comment
	policies   map[string]*models.SLAPolicy
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		complaints: make(map[id.ComplaintID]*models.Complaint),
		comments:   make(map[id.ComplaintID][]*models.Comment),
		policies:   make(map[string]*models.SLAPolicy),
	}
}

func clone(c *models.Complaint) *models.Complaint {
	out := *c
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		out.ResolvedAt = &t
	}
	return &out
}

func (s *InMemoryStore) Create(_ context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.complaints[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.complaints[c.ID] = clone(c)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.complaints[complaintID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

// Update applies mutate under the write lock; a failed mutate leaves the
// stored complaint unchanged.
func (s *InMemoryStore) Update(ctx context.Context, complaintID id.ComplaintID, mutate func(context.Context, *models.Complaint) error) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.complaints[complaintID]
	if !ok {
		return nil, ErrNotFound
	}
	working := clone(current)
	if err := mutate(ctx, working); err != nil {
		return nil, err
	}
	s.complaints[complaintID] = working
	return clone(working), nil
}

func matches(c *models.Complaint, f models.Filter) bool {
	switch {
	case !f.CitizenID.IsNil() && c.CitizenID != f.CitizenID:
		return false
	case !f.WardID.IsNil() && c.WardID != f.WardID:
		return false
	case f.Status != "" && c.Status != f.Status:
		return false
	case !f.AssigneeID.IsNil() && c.AssigneeID != f.AssigneeID:
		return false
	case f.Category != "" && c.Category != f.Category:
		return false
	}
	return true
}

// List returns matches newest first with the unpaged total.
func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Complaint, int, error) {
	s.mu.RLock()
	var matched []*models.Complaint
	for _, c := range s.complaints {
		if matches(c, filter) {
			matched = append(matched, clone(c))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	start, end := filter.Page.Window(len(matched))
	return matched[start:end], len(matched), nil
}

// ListOverdue returns open complaints past due, most overdue first.
func (s *InMemoryStore) ListOverdue(_ context.Context, now time.Time) ([]*models.Complaint, error) {
	s.mu.RLock()
	var out []*models.Complaint
	for _, c := range s.complaints {
		if c.IsOverdue(now) {
			out = append(out, clone(c))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].DueAt.Before(out[j].DueAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) Stats(_ context.Context, now time.Time) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &models.Stats{ByStatus: map[string]int{}, ByWard: map[string]int{}}
	for _, c := range s.complaints {
		stats.Total++
		stats.ByStatus[string(c.Status)]++
		stats.ByWard[c.WardID.String()]++
		if c.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}

func (s *InMemoryStore) AddComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.complaints[comment.ComplaintID]; !ok {
		return ErrNotFound
	}
	c := *comment
	s.comments[comment.ComplaintID] = append(s.comments[comment.ComplaintID], &c)
	return nil
}

// ListComments returns the thread oldest first.
func (s *InMemoryStore) ListComments(_ context.Context, complaintID id.ComplaintID, includeInternal bool) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Comment{}
	for _, c := range s.comments[complaintID] {
		if c.Internal && !includeInternal {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) UpsertSLAPolicy(_ context.Context, policy *models.SLAPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *policy
	s.policies[policy.Category] = &p
	return nil
}

func (s *InMemoryStore) FindSLAPolicy(_ context.Context, category string) (*models.SLAPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[category]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) ListSLAPolicies(_ context.Context) ([]*models.SLAPolicy, error) {
	s.mu.RLock()
	out := make([]*models.SLAPolicy, 0, len(s.policies))
	for _, p := range s.policies {
		cp := *p
		out = append(out, &cp)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}
