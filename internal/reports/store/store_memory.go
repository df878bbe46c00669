package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"civic/internal/reports/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	// ErrAlreadyRun means another worker recorded this period first.
	ErrAlreadyRun = sentinel.ErrAlreadyUsed
)

type InMemoryStore struct {
	mu        sync.RWMutex
	schedules map[id.ScheduleID]*models.Schedule
	runs      map[id.ScheduleID][]*models.Run
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		schedules: make(map[id.ScheduleID]*models.Schedule),
		runs:      make(map[id.ScheduleID][]*models.Run),
	}
}

func cloneSchedule(s *models.Schedule) *models.Schedule {
	out := *s
	out.Recipients = slices.Clone(s.Recipients)
	if s.LastRunAt != nil {
		t := *s.LastRunAt
		out.LastRunAt = &t
	}
	return &out
}

func cloneRun(r *models.Run) *models.Run {
	out := *r
	out.Summary.Complaints.ByStatus = maps.Clone(r.Summary.Complaints.ByStatus)
	out.Summary.Complaints.ByWard = maps.Clone(r.Summary.Complaints.ByWard)
	return &out
}

func (s *InMemoryStore) CreateSchedule(_ context.Context, sch *models.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[sch.ID]; ok {
		return sentinel.ErrConflict
	}
	s.schedules[sch.ID] = cloneSchedule(sch)
	return nil
}

func (s *InMemoryStore) FindSchedule(_ context.Context, scheduleID id.ScheduleID) (*models.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sch, ok := s.schedules[scheduleID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSchedule(sch), nil
}

// ListSchedules orders schedules by their next run.
func (s *InMemoryStore) ListSchedules(_ context.Context) ([]*models.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Schedule, 0, len(s.schedules))
	for _, sch := range s.schedules {
		out = append(out, cloneSchedule(sch))
	}
	sortByNextRun(out)
	return out, nil
}

func sortByNextRun(schedules []*models.Schedule) {
	sort.Slice(schedules, func(i, j int) bool {
		if !schedules[i].NextRunAt.Equal(schedules[j].NextRunAt) {
			return schedules[i].NextRunAt.Before(schedules[j].NextRunAt)
		}
		return schedules[i].ID.String() < schedules[j].ID.String()
	})
}

// DeleteSchedule removes a schedule together with its runs.
func (s *InMemoryStore) DeleteSchedule(_ context.Context, scheduleID id.ScheduleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[scheduleID]; !ok {
		return ErrNotFound
	}
	delete(s.schedules, scheduleID)
	delete(s.runs, scheduleID)
	return nil
}

func (s *InMemoryStore) DueSchedules(_ context.Context, now time.Time) ([]*models.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Schedule
	for _, sch := range s.schedules {
		if sch.Due(now) {
			out = append(out, cloneSchedule(sch))
		}
	}
	sortByNextRun(out)
	return out, nil
}

// RecordRun stores run and advances its schedule, provided the schedule is
// still waiting on the period the caller claimed.
func (s *InMemoryStore) RecordRun(_ context.Context, run *models.Run, claimed time.Time) (*models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sch, ok := s.schedules[run.ScheduleID]
	if !ok {
		return nil, ErrNotFound
	}
	if !sch.NextRunAt.Equal(claimed) {
		return nil, ErrAlreadyRun
	}
	sch.Advance(run.GeneratedAt)
	s.runs[run.ScheduleID] = append(s.runs[run.ScheduleID], cloneRun(run))
	return cloneSchedule(sch), nil
}

// ListRuns returns up to limit runs, newest first.
func (s *InMemoryStore) ListRuns(_ context.Context, scheduleID id.ScheduleID, limit int) ([]*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.schedules[scheduleID]; !ok {
		return nil, ErrNotFound
	}
	runs := s.runs[scheduleID]
	out := make([]*models.Run, 0, min(len(runs), limit))
	for i := len(runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneRun(runs[i]))
	}
	return out, nil
}
