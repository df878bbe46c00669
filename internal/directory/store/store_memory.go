package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"civic/internal/directory/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	// ErrDuplicate is returned when a name or ward code is already taken.
	ErrDuplicate = sentinel.ErrConflict
)

// InMemoryStore keeps wards and departments in maps guarded by one mutex.
type InMemoryStore struct {
	mu          sync.RWMutex
	wards       map[id.WardID]*models.Ward
	departments map[id.DepartmentID]*models.Department
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		wards:       make(map[id.WardID]*models.Ward),
		departments: make(map[id.DepartmentID]*models.Department),
	}
}

func (s *InMemoryStore) wardClashLocked(w *models.Ward) bool {
	for _, other := range s.wards {
		if other.ID == w.ID {
			continue
		}
		if strings.EqualFold(other.Name, w.Name) || other.Code == w.Code {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) CreateWard(_ context.Context, w *models.Ward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wardClashLocked(w) {
		return ErrDuplicate
	}
	c := *w
	s.wards[w.ID] = &c
	return nil
}

func (s *InMemoryStore) FindWard(_ context.Context, wardID id.WardID) (*models.Ward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wards[wardID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *w
	return &c, nil
}

// ListWards returns every ward ordered by code.
func (s *InMemoryStore) ListWards(_ context.Context) ([]*models.Ward, error) {
	s.mu.RLock()
	out := make([]*models.Ward, 0, len(s.wards))
	for _, w := range s.wards {
		c := *w
		out = append(out, &c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *InMemoryStore) UpdateWard(_ context.Context, wardID id.WardID, mutate func(*models.Ward) error) (*models.Ward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.wards[wardID]
	if !ok {
		return nil, ErrNotFound
	}
	working := *current
	if err := mutate(&working); err != nil {
		return nil, err
	}
	if s.wardClashLocked(&working) {
		return nil, ErrDuplicate
	}
	s.wards[wardID] = &working
	c := working
	return &c, nil
}

func (s *InMemoryStore) departmentClashLocked(d *models.Department) bool {
	for _, other := range s.departments {
		if other.ID != d.ID && strings.EqualFold(other.Name, d.Name) {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) CreateDepartment(_ context.Context, d *models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.departmentClashLocked(d) {
		return ErrDuplicate
	}
	c := *d
	s.departments[d.ID] = &c
	return nil
}

func (s *InMemoryStore) FindDepartment(_ context.Context, deptID id.DepartmentID) (*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.departments[deptID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *d
	return &c, nil
}

// ListDepartments returns departments ordered by name. Inactive ones are
// included only when asked.
func (s *InMemoryStore) ListDepartments(_ context.Context, includeInactive bool) ([]*models.Department, error) {
	s.mu.RLock()
	out := make([]*models.Department, 0, len(s.departments))
	for _, d := range s.departments {
		if !d.IsActive && !includeInactive {
			continue
		}
		c := *d
		out = append(out, &c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *InMemoryStore) UpdateDepartment(_ context.Context, deptID id.DepartmentID, mutate func(*models.Department) error) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.departments[deptID]
	if !ok {
		return nil, ErrNotFound
	}
	working := *current
	if err := mutate(&working); err != nil {
		return nil, err
	}
	if s.departmentClashLocked(&working) {
		return nil, ErrDuplicate
	}
	s.departments[deptID] = &working
	c := working
	return &c, nil
}
