package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"civic/internal/notices/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

var ErrNotFound = sentinel.ErrNotFound

type InMemoryStore struct {
	mu      sync.RWMutex
	notices map[id.NoticeID]*models.Notice
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{notices: make(map[id.NoticeID]*models.Notice)}
}

func clone(n *models.Notice) *models.Notice {
	out := *n
	out.WardIDs = slices.Clone(n.WardIDs)
	out.Tags = slices.Clone(n.Tags)
	if n.PublishedAt != nil {
		t := *n.PublishedAt
		out.PublishedAt = &t
	}
	if n.ExpiresAt != nil {
		t := *n.ExpiresAt
		out.ExpiresAt = &t
	}
	return &out
}

func (s *InMemoryStore) Create(_ context.Context, n *models.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notices[n.ID]; ok {
		return sentinel.ErrConflict
	}
	s.notices[n.ID] = clone(n)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, noticeID id.NoticeID) (*models.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notices[noticeID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(n), nil
}

func (s *InMemoryStore) Update(_ context.Context, noticeID id.NoticeID, mutate func(*models.Notice) error) (*models.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.notices[noticeID]
	if !ok {
		return nil, ErrNotFound
	}
	working := clone(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.notices[noticeID] = working
	return clone(working), nil
}

// List returns matches newest first.
func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Notice, int, error) {
	s.mu.RLock()
	var matched []*models.Notice
	for _, n := range s.notices {
		if filter.Matches(n) {
			matched = append(matched, clone(n))
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

// ListPublished returns live notices reaching wardID, most recently
// published first.
func (s *InMemoryStore) ListPublished(_ context.Context, wardID id.WardID, now time.Time) ([]*models.Notice, error) {
	s.mu.RLock()
	out := []*models.Notice{}
	for _, n := range s.notices {
		if n.VisibleIn(wardID, now) {
			out = append(out, clone(n))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(*out[j].PublishedAt) {
			return out[i].PublishedAt.After(*out[j].PublishedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
