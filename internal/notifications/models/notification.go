// Package models holds in-app notifications and per-user delivery
// preferences.
package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
)

// Kind groups notifications so users can opt out per category.
type Kind string

const (
	KindComplaint  Kind = "complaint"
	KindAssignment Kind = "assignment"
	KindBilling    Kind = "billing"
	KindNotice     Kind = "notice"
	KindBudget     Kind = "budget"
	KindSystem     Kind = "system"
)

var kinds = map[Kind]bool{
	KindComplaint:  true,
	KindAssignment: true,
	KindBilling:    true,
	KindNotice:     true,
	KindBudget:     true,
	KindSystem:     true,
}

func (k Kind) IsValid() bool { return kinds[k] }

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown notification kind")
	}
	return k, nil
}

const (
	MaxTitleLength = 200
	MaxBodyLength  = 2000
)

type Notification struct {
	ID        id.NotificationID `json:"id"`
	UserID    id.UserID         `json:"user_id"`
	Kind      Kind              `json:"kind"`
	Title     string            `json:"title"`
	Body      string            `json:"body,omitempty"`
	Link      string            `json:"link,omitempty"`
	Silent    bool              `json:"silent"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewNotification validates and builds an unread notification.
func NewNotification(notificationID id.NotificationID, userID id.UserID, kind Kind, title, body, link string, now time.Time) (*Notification, error) {
	title = strings.TrimSpace(title)
	switch {
	case userID.IsNil():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "recipient is required")
	case !kind.IsValid():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown notification kind")
	case title == "" || utf8.RuneCountInString(title) > MaxTitleLength:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title must be 1 to 200 characters")
	case utf8.RuneCountInString(body) > MaxBodyLength:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "body must be at most 2000 characters")
	}
	return &Notification{
		ID:        notificationID,
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Link:      link,
		CreatedAt: now,
	}, nil
}

func (n *Notification) IsRead() bool { return n.ReadAt != nil }

// MarkRead is idempotent; the first read time wins.
func (n *Notification) MarkRead(now time.Time) bool {
	if n.ReadAt != nil {
		return false
	}
	n.ReadAt = &now
	return true
}

type Filter struct {
	UnreadOnly bool
	Page       httputil.Page
}
