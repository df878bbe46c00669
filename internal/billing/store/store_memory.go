package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"civic/internal/billing/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

var (
	ErrNotFound    = sentinel.ErrNotFound
	ErrAlreadyPaid = sentinel.ErrAlreadyUsed
)

// SettleFunc marks a locked bill paid and returns the payment to record.
type SettleFunc func(b *models.Bill) (*models.Payment, error)

type InMemoryStore struct {
	mu       sync.RWMutex
	bills    map[id.BillID]*models.Bill
	payments map[id.BillID]*models.Payment
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		bills:    make(map[id.BillID]*models.Bill),
		payments: make(map[id.BillID]*models.Payment),
	}
}

func cloneBill(b *models.Bill) *models.Bill {
	out := *b
	if b.PaidAt != nil {
		t := *b.PaidAt
		out.PaidAt = &t
	}
	return &out
}

func (s *InMemoryStore) Create(_ context.Context, b *models.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bills[b.ID]; ok {
		return sentinel.ErrConflict
	}
	s.bills[b.ID] = cloneBill(b)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, billID id.BillID) (*models.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bills[billID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBill(b), nil
}

// List returns matches ordered by due date, then id.
func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Bill, int, error) {
	s.mu.RLock()
	var matched []*models.Bill
	for _, b := range s.bills {
		if filter.Matches(b) {
			matched = append(matched, cloneBill(b))
		}
	}
	s.mu.RUnlock()
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].DueDate.Equal(matched[j].DueDate) {
			return matched[i].DueDate.Before(matched[j].DueDate)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	start, end := filter.Page.Window(len(matched))
	return matched[start:end], len(matched), nil
}

func (s *InMemoryStore) Update(_ context.Context, billID id.BillID, mutate func(*models.Bill) error) (*models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.bills[billID]
	if !ok {
		return nil, ErrNotFound
	}
	working := cloneBill(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.bills[billID] = working
	return cloneBill(working), nil
}

// Settle runs settle under the write lock and records the payment with the
// bill change. A bill that already has a payment yields ErrAlreadyPaid.
func (s *InMemoryStore) Settle(_ context.Context, billID id.BillID, settle SettleFunc) (*models.Bill, *models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.bills[billID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	if _, paid := s.payments[billID]; paid {
		return nil, nil, ErrAlreadyPaid
	}
	working := cloneBill(current)
	payment, err := settle(working)
	if err != nil {
		return nil, nil, err
	}
	s.bills[billID] = working
	p := *payment
	s.payments[billID] = &p
	return cloneBill(working), payment, nil
}

// ListPayments returns a citizen's payments newest first. A nil citizen
// lists everyone's.
func (s *InMemoryStore) ListPayments(_ context.Context, citizenID id.UserID) ([]*models.Payment, error) {
	s.mu.RLock()
	out := []*models.Payment{}
	for _, p := range s.payments {
		if citizenID.IsNil() || p.CitizenID == citizenID {
			cp := *p
			out = append(out, &cp)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].PaidAt.After(out[j].PaidAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) Stats(_ context.Context, now time.Time) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &models.Stats{}
	for _, b := range s.bills {
		if b.Status == models.StatusCancelled {
			continue
		}
		stats.Bills++
		stats.Issued += b.Amount
		if b.Status == models.StatusUnpaid {
			stats.Outstanding += b.Amount
		}
		if b.IsOverdue(now) {
			stats.Overdue++
		}
	}
	for _, p := range s.payments {
		stats.Collected += p.Total()
		stats.LateFees += p.LateFee
	}
	return stats, nil
}
