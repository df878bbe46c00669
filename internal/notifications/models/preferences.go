package models

import (
	"fmt"
	"maps"
	"time"
	_ "time/tzdata"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

const clockLayout = "15:04"

// QuietHours is a daily window, in the user's timezone, during which
// notifications are stored silently. A window whose start is after its end
// wraps midnight.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

func parseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an HH:MM time", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func (q QuietHours) validate() error {
	if !q.Enabled {
		return nil
	}
	if _, err := parseClock(q.Start); err != nil {
		return err
	}
	if _, err := parseClock(q.End); err != nil {
		return err
	}
	return nil
}

// Contains reports whether local falls inside the window. Start is
// inclusive, end exclusive; equal bounds make an empty window.
func (q QuietHours) Contains(local time.Time) bool {
	if !q.Enabled {
		return false
	}
	start, err := parseClock(q.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(q.End)
	if err != nil {
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	switch {
	case start == end:
		return false
	case start < end:
		return minute >= start && minute < end
	default:
		return minute >= start || minute < end
	}
}

type Preferences struct {
	UserID     id.UserID     `json:"user_id"`
	Email      bool          `json:"email"`
	SMS        bool          `json:"sms"`
	Push       bool          `json:"push"`
	Categories map[Kind]bool `json:"categories"`
	QuietHours QuietHours    `json:"quiet_hours"`
	Timezone   string        `json:"timezone"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// DefaultPreferences applies to users who never saved any.
func DefaultPreferences(userID id.UserID) *Preferences {
	return &Preferences{
		UserID:     userID,
		Email:      true,
		Push:       true,
		Categories: map[Kind]bool{},
		Timezone:   "UTC",
	}
}

// Allows reports whether the user receives kind. Kinds missing from
// Categories are on; system notices cannot be muted.
func (p *Preferences) Allows(kind Kind) bool {
	if kind == KindSystem {
		return true
	}
	on, ok := p.Categories[kind]
	return !ok || on
}

func (p *Preferences) location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Quiet reports whether now falls in the user's quiet hours.
func (p *Preferences) Quiet(now time.Time) bool {
	return p.QuietHours.Contains(now.In(p.location()))
}

// PreferencesPatch carries a partial update; nil fields keep their value and
// Categories merges key by key.
type PreferencesPatch struct {
	Email      *bool           `json:"email,omitempty"`
	SMS        *bool           `json:"sms,omitempty"`
	Push       *bool           `json:"push,omitempty"`
	Categories map[string]bool `json:"categories,omitempty"`
	QuietHours *QuietHours     `json:"quiet_hours,omitempty"`
	Timezone   *string         `json:"timezone,omitempty"`
}

// Apply merges patch into p and validates the result.
func (p *Preferences) Apply(patch *PreferencesPatch, now time.Time) error {
	next := *p
	next.Categories = maps.Clone(p.Categories)
	if next.Categories == nil {
		next.Categories = map[Kind]bool{}
	}
	if patch.Email != nil {
		next.Email = *patch.Email
	}
	if patch.SMS != nil {
		next.SMS = *patch.SMS
	}
	if patch.Push != nil {
		next.Push = *patch.Push
	}
	for raw, on := range patch.Categories {
		kind, err := ParseKind(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown category %q", raw))
		}
		if kind == KindSystem {
			return dErrors.New(dErrors.CodeValidation, "system notifications cannot be muted")
		}
		next.Categories[kind] = on
	}
	if patch.QuietHours != nil {
		next.QuietHours = *patch.QuietHours
	}
	if patch.Timezone != nil {
		if _, err := time.LoadLocation(*patch.Timezone); err != nil || *patch.Timezone == "" {
			return dErrors.New(dErrors.CodeValidation, "unknown timezone")
		}
		next.Timezone = *patch.Timezone
	}
	if err := next.QuietHours.validate(); err != nil {
		return dErrors.New(dErrors.CodeValidation, "quiet hours: "+err.Error())
	}
	next.UpdatedAt = now
	*p = next
	return nil
}
