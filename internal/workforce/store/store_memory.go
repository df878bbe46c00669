package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"civic/internal/workforce/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	// ErrNoCapacity is returned by AdjustLoad when a positive delta would
	// exceed the profile's capacity or the profile is inactive.
	ErrNoCapacity = sentinel.ErrInvalidState
)

// InMemoryStore holds workforce profiles for single-process deployments.
type InMemoryStore struct {
	mu          sync.RWMutex
	staff       map[id.UserID]*models.StaffProfile
	supervisors map[id.UserID]*models.SupervisorProfile
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		staff:       make(map[id.UserID]*models.StaffProfile),
		supervisors: make(map[id.UserID]*models.SupervisorProfile),
	}
}

func cloneStaff(p *models.StaffProfile) *models.StaffProfile {
	out := *p
	out.WardIDs = slices.Clone(p.WardIDs)
	return &out
}

// UpsertStaff writes p. An existing profile keeps its current load.
func (s *InMemoryStore) UpsertStaff(_ context.Context, p *models.StaffProfile) (*models.StaffProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneStaff(p)
	if existing, ok := s.staff[p.UserID]; ok {
		stored.CurrentLoad = existing.CurrentLoad
	}
	s.staff[p.UserID] = stored
	return cloneStaff(stored), nil
}

func (s *InMemoryStore) FindStaff(_ context.Context, userID id.UserID) (*models.StaffProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.staff[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneStaff(p), nil
}

// ListStaff returns matching profiles ordered by user id.
func (s *InMemoryStore) ListStaff(_ context.Context, filter models.StaffFilter) ([]*models.StaffProfile, error) {
	s.mu.RLock()
	out := []*models.StaffProfile{}
	for _, p := range s.staff {
		if filter.Matches(p) {
			out = append(out, cloneStaff(p))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out, nil
}

// AdjustLoad adds delta to the current load, flooring at zero. Positive
// deltas require an active profile with room for them.
func (s *InMemoryStore) AdjustLoad(_ context.Context, userID id.UserID, delta int, now time.Time) (*models.StaffProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.staff[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if delta > 0 && (!p.Active || p.CurrentLoad+delta > p.MaxLoad) {
		return nil, ErrNoCapacity
	}
	p.CurrentLoad = max(p.CurrentLoad+delta, 0)
	p.UpdatedAt = now
	return cloneStaff(p), nil
}

func (s *InMemoryStore) UpsertSupervisor(_ context.Context, p *models.SupervisorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *p
	stored.WardIDs = slices.Clone(p.WardIDs)
	s.supervisors[p.UserID] = &stored
	return nil
}

func (s *InMemoryStore) FindSupervisor(_ context.Context, userID id.UserID) (*models.SupervisorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.supervisors[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	out.WardIDs = slices.Clone(p.WardIDs)
	return &out, nil
}
