// Package authlockout stores failed-login counters. Stores are plain I/O;
// thresholds and lock decisions belong to the service.
package authlockout

import (
	"context"
	"sync"
	"time"

	"civic/internal/ratelimit/models"
)

// InMemoryStore keeps lockout records for a single instance.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.AuthLockout
}

func New() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*models.AuthLockout)}
}

func clone(r *models.AuthLockout) *models.AuthLockout {
	out := *r
	if r.LockedUntil != nil {
		t := *r.LockedUntil
		out.LockedUntil = &t
	}
	return &out
}

// Get returns nil without error when identifier has no record.
func (s *InMemoryStore) Get(_ context.Context, identifier string) (*models.AuthLockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[identifier]
	if !ok {
		return nil, nil
	}
	return clone(r), nil
}

// RecordFailure counts one failure at now. Counts whose last failure
// predates windowStart or dayStart restart from one.
func (s *InMemoryStore) RecordFailure(_ context.Context, identifier string, now, windowStart, dayStart time.Time) (*models.AuthLockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[identifier]
	if !ok {
		r = &models.AuthLockout{Identifier: identifier}
		s.records[identifier] = r
	}
	if r.LastFailureAt.Before(windowStart) {
		r.FailureCount = 0
	}
	if r.LastFailureAt.Before(dayStart) {
		r.DailyFailures = 0
	}
	r.FailureCount++
	r.DailyFailures++
	r.LastFailureAt = now
	return clone(r), nil
}

func (s *InMemoryStore) Update(_ context.Context, record *models.AuthLockout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Identifier] = clone(record)
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identifier)
	return nil
}
