package store

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"civic/internal/notifications/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

var ErrNotFound = sentinel.ErrNotFound

type InMemoryStore struct {
	mu            sync.RWMutex
	notifications map[id.NotificationID]*models.Notification
	preferences   map[id.UserID]*models.Preferences
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		notifications: make(map[id.NotificationID]*models.Notification),
		preferences:   make(map[id.UserID]*models.Preferences),
	}
}

func clone(n *models.Notification) *models.Notification {
	out := *n
	if n.ReadAt != nil {
		t := *n.ReadAt
		out.ReadAt = &t
	}
	return &out
}

func (s *InMemoryStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[n.ID]; ok {
		return sentinel.ErrConflict
	}
	s.notifications[n.ID] = clone(n)
	return nil
}

// List returns the user's notifications newest first, with the total before
// paging.
func (s *InMemoryStore) List(_ context.Context, userID id.UserID, filter models.Filter) ([]*models.Notification, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.Notification
	for _, n := range s.notifications {
		if n.UserID != userID || (filter.UnreadOnly && n.IsRead()) {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})
	start, end := filter.Page.Window(len(matched))
	out := make([]*models.Notification, 0, end-start)
	for _, n := range matched[start:end] {
		out = append(out, clone(n))
	}
	return out, len(matched), nil
}

// MarkRead marks one of the user's notifications read. changed is false when
// it already was. Another user's notification is ErrNotFound.
func (s *InMemoryStore) MarkRead(_ context.Context, userID id.UserID, notificationID id.NotificationID, now time.Time) (*models.Notification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok || n.UserID != userID {
		return nil, false, ErrNotFound
	}
	changed := n.MarkRead(now)
	return clone(n), changed, nil
}

func (s *InMemoryStore) MarkAllRead(_ context.Context, userID id.UserID, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	marked := 0
	for _, n := range s.notifications {
		if n.UserID == userID && n.MarkRead(now) {
			marked++
		}
	}
	return marked, nil
}

func (s *InMemoryStore) CountUnread(_ context.Context, userID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead() {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) GetPreferences(_ context.Context, userID id.UserID) (*models.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.preferences[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	out.Categories = maps.Clone(p.Categories)
	return &out, nil
}

func (s *InMemoryStore) SavePreferences(_ context.Context, p *models.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *p
	stored.Categories = maps.Clone(p.Categories)
	s.preferences[p.UserID] = &stored
	return nil
}
