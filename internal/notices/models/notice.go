package models

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	platformstrings "civic/pkg/platform/strings"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// CanTransitionTo allows draft to published and either to archived.
func (s Status) CanTransitionTo(target Status) bool {
	switch target {
	case StatusPublished:
		return s == StatusDraft
	case StatusArchived:
		return s == StatusDraft || s == StatusPublished
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid notice status")
	}
	return status, nil
}

type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryEmergency   Category = "emergency"
	CategoryMaintenance Category = "maintenance"
	CategoryEvent       Category = "event"
	CategoryTender      Category = "tender"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryGeneral, CategoryEmergency, CategoryMaintenance, CategoryEvent, CategoryTender:
		return true
	}
	return false
}

const (
	MinTitleLength = 5
	MaxTitleLength = 200
	MaxBodyLength  = 10000
	MaxTags        = 10
)

// Notice is a public announcement. An empty WardIDs list means city-wide.
type Notice struct {
	ID          id.NoticeID `json:"id"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Category    Category    `json:"category"`
	WardIDs     []id.WardID `json:"ward_ids"`
	Tags        []string    `json:"tags"`
	Status      Status      `json:"status"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	AuthorID    id.UserID   `json:"author_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Content is the editable part of a notice.
type Content struct {
	Title     string
	Body      string
	Category  Category
	WardIDs   []id.WardID
	Tags      []string
	ExpiresAt *time.Time
}

func (c *Content) validate() error {
	c.Title = strings.TrimSpace(c.Title)
	c.Body = strings.TrimSpace(c.Body)
	if n := utf8.RuneCountInString(c.Title); n < MinTitleLength || n > MaxTitleLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "title must be 5 to 200 characters")
	}
	if c.Body == "" || utf8.RuneCountInString(c.Body) > MaxBodyLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "body must be 1 to 10000 characters")
	}
	if !c.Category.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "category must be general, emergency, maintenance, event or tender")
	}
	c.WardIDs = dedupeWards(c.WardIDs)
	c.Tags = platformstrings.Tags(c.Tags)
	if len(c.Tags) > MaxTags {
		return dErrors.New(dErrors.CodeInvariantViolation, "at most 10 tags are allowed")
	}
	return nil
}

func dedupeWards(in []id.WardID) []id.WardID {
	out := make([]id.WardID, 0, len(in))
	for _, w := range in {
		if !w.IsNil() && !slices.Contains(out, w) {
			out = append(out, w)
		}
	}
	return out
}

func NewNotice(noticeID id.NoticeID, authorID id.UserID, content Content, now time.Time) (*Notice, error) {
	if noticeID.IsNil() || authorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "notice and author IDs are required")
	}
	if err := content.validate(); err != nil {
		return nil, err
	}
	if content.ExpiresAt != nil && !content.ExpiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "expiry must be in the future")
	}
	n := &Notice{
		ID:        noticeID,
		AuthorID:  authorID,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	n.apply(content)
	return n, nil
}

func (n *Notice) apply(c Content) {
	n.Title = c.Title
	n.Body = c.Body
	n.Category = c.Category
	n.WardIDs = c.WardIDs
	n.Tags = c.Tags
	n.ExpiresAt = c.ExpiresAt
}

// Edit replaces the content of a draft.
func (n *Notice) Edit(content Content, now time.Time) error {
	if n.Status != StatusDraft {
		return dErrors.New(dErrors.CodeInvariantViolation, "only drafts can be edited")
	}
	if err := content.validate(); err != nil {
		return err
	}
	if content.ExpiresAt != nil && !content.ExpiresAt.After(now) {
		return dErrors.New(dErrors.CodeInvariantViolation, "expiry must be in the future")
	}
	n.apply(content)
	n.UpdatedAt = now
	return nil
}

func (n *Notice) transition(target Status, now time.Time) error {
	if !n.Status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvariantViolation, "notice is "+string(n.Status))
	}
	n.Status = target
	n.UpdatedAt = now
	return nil
}

// Publish makes a draft visible. A draft whose expiry already passed cannot
// be published.
func (n *Notice) Publish(now time.Time) error {
	if n.ExpiresAt != nil && !n.ExpiresAt.After(now) {
		return dErrors.New(dErrors.CodeInvariantViolation, "notice has already expired")
	}
	if err := n.transition(StatusPublished, now); err != nil {
		return err
	}
	at := now
	n.PublishedAt = &at
	return nil
}

func (n *Notice) Archive(now time.Time) error {
	return n.transition(StatusArchived, now)
}

func (n *Notice) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}

// CityWide reports whether the notice targets every ward.
func (n *Notice) CityWide() bool {
	return len(n.WardIDs) == 0
}

// VisibleIn reports whether a published notice reaches wardID. A nil ward
// sees every live notice.
func (n *Notice) VisibleIn(wardID id.WardID, now time.Time) bool {
	if n.Status != StatusPublished || n.IsExpired(now) {
		return false
	}
	return wardID.IsNil() || n.CityWide() || slices.Contains(n.WardIDs, wardID)
}
