package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryTRL is a single-process revocation list.
type InMemoryTRL struct {
	mu       sync.Mutex
	revoked  map[string]time.Time
	sessions map[string]map[string]time.Time
	now      func() time.Time
}

// NewInMemoryTRL creates an empty list.
func NewInMemoryTRL() *InMemoryTRL {
	return &InMemoryTRL{
		revoked:  make(map[string]time.Time),
		sessions: make(map[string]map[string]time.Time),
		now:      time.Now,
	}
}

// TrackToken remembers jti as a live session of userID until now+ttl.
func (t *InMemoryTRL) TrackToken(_ context.Context, userID, jti string, ttl time.Duration) error {
	if jti == "" || userID == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	live, ok := t.sessions[userID]
	if !ok {
		live = make(map[string]time.Time)
		t.sessions[userID] = live
	}
	live[jti] = t.now().Add(ttl)
	t.sweepLocked()
	return nil
}

// RevokeUserTokens revokes every live token tracked for userID and reports
// how many were revoked.
func (t *InMemoryTRL) RevokeUserTokens(_ context.Context, userID string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	n := 0
	for jti, until := range t.sessions[userID] {
		if now.Before(until) {
			t.revoked[jti] = until
			n++
		}
	}
	delete(t.sessions, userID)
	return n, nil
}

// RevokeToken records jti until now+ttl.
func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = t.now().Add(ttl)
	t.sweepLocked()
	return nil
}

// IsRevoked reports whether jti is revoked and not yet expired.
func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	until, ok := t.revoked[jti]
	if !ok {
		return false, nil
	}
	if !t.now().Before(until) {
		delete(t.revoked, jti)
		return false, nil
	}
	return true, nil
}

func (t *InMemoryTRL) sweepLocked() {
	now := t.now()
	for jti, until := range t.revoked {
		if !now.Before(until) {
			delete(t.revoked, jti)
		}
	}
	for userID, live := range t.sessions {
		for jti, until := range live {
			if !now.Before(until) {
				delete(live, jti)
			}
		}
		if len(live) == 0 {
			delete(t.sessions, userID)
		}
	}
}
