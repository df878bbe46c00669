package models

import (
	"strings"
	"time"

	dErrors "civic/pkg/domain-errors"
)

// LockoutConfig tunes login lockout. Failures inside Window count toward
// AttemptsPerWindow; failures inside a day count toward HardLockThreshold,
// which locks the identifier for HardLockDuration.
type LockoutConfig struct {
	AttemptsPerWindow int
	Window            time.Duration
	HardLockThreshold int
	HardLockDuration  time.Duration
}

func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		AttemptsPerWindow: 5,
		Window:            15 * time.Minute,
		HardLockThreshold: 10,
		HardLockDuration:  15 * time.Minute,
	}
}

// DailyWindow is how long failures count toward the hard lock.
const DailyWindow = 24 * time.Hour

// AuthLockout tracks failed logins for one email and client address pair.
type AuthLockout struct {
	Identifier    string     `json:"identifier"`
	FailureCount  int        `json:"failure_count"`
	DailyFailures int        `json:"daily_failures"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	LastFailureAt time.Time  `json:"last_failure_at"`
}

// NewLockoutKey builds "<email>:<ip>" with the email lower-cased so case
// variants share one record.
func NewLockoutKey(email, ip string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "lockout identifier cannot be empty")
	}
	return SanitizeKeySegment(email) + ":" + SanitizeKeySegment(ip), nil
}

func (l *AuthLockout) IsLockedAt(now time.Time) bool {
	return l.LockedUntil != nil && now.Before(*l.LockedUntil)
}

// WindowFailures counts only failures still inside the sliding window.
func (l *AuthLockout) WindowFailures(cfg LockoutConfig, now time.Time) int {
	if now.Sub(l.LastFailureAt) >= cfg.Window {
		return 0
	}
	return l.FailureCount
}

// ShouldHardLock reports whether the daily failure count has reached the
// threshold and no lock is currently active.
func (l *AuthLockout) ShouldHardLock(cfg LockoutConfig, now time.Time) bool {
	return cfg.HardLockThreshold > 0 && l.DailyFailures >= cfg.HardLockThreshold && !l.IsLockedAt(now)
}

func (l *AuthLockout) ApplyHardLock(cfg LockoutConfig, now time.Time) {
	until := now.Add(cfg.HardLockDuration)
	l.LockedUntil = &until
}

// LockoutResult is the answer to a pre-login check.
type LockoutResult struct {
	Allowed      bool
	Remaining    int
	RetryAfter   time.Duration
	FailureCount int
}
