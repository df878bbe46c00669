package user

import (
	"context"
	"sort"
	"sync"

	"civic/internal/identity/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = sentinel.ErrNotFound

// ErrEmailTaken is returned when the email belongs to another account.
var ErrEmailTaken = sentinel.ErrAlreadyUsed

// InMemoryUserStore keeps users in maps guarded by a RWMutex. Returned users
// are copies so callers cannot mutate stored state without Update.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

// New creates an empty in-memory user store.
func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return ErrEmailTaken
	}
	s.users[user.ID] = clone(user)
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(u), nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s.users[userID]), nil
}

// Update loads the user, applies mutate, and stores the result atomically.
// A mutate error leaves the stored user untouched.
func (s *InMemoryUserStore) Update(_ context.Context, userID id.UserID, mutate func(*models.User) error) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	working := clone(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.users[userID] = working
	return clone(working), nil
}

func matches(u *models.User, f models.UserFilter) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	if !f.WardID.IsNil() && u.WardID != f.WardID {
		return false
	}
	return true
}

// List returns users matching filter ordered by creation time, newest first,
// and the total number of matches before paging.
func (s *InMemoryUserStore) List(_ context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	s.mu.RLock()
	var matched []*models.User
	for _, u := range s.users {
		if matches(u, filter) {
			matched = append(matched, clone(u))
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

// ListIDs returns ids of active users with role in ward, unpaged.
func (s *InMemoryUserStore) ListIDs(_ context.Context, role id.Role, wardID id.WardID) ([]id.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []id.UserID
	for _, u := range s.users {
		if u.Role == role && u.IsActive() && (wardID.IsNil() || u.WardID == wardID) {
			out = append(out, u.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
