package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

const MaxCommentLength = 2000

// Comment is one message in a complaint thread. Internal comments are
// visible to staff-side roles only.
type Comment struct {
	ID          id.CommentID   `json:"id"`
	ComplaintID id.ComplaintID `json:"complaint_id"`
	AuthorID    id.UserID      `json:"author_id"`
	Body        string         `json:"body"`
	Internal    bool           `json:"internal"`
	CreatedAt   time.Time      `json:"created_at"`
}

func NewComment(commentID id.CommentID, complaintID id.ComplaintID, authorID id.UserID, body string, internal bool, now time.Time) (*Comment, error) {
	body = strings.TrimSpace(body)
	n := utf8.RuneCountInString(body)
	if n == 0 || n > MaxCommentLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "comment must be 1 to 2000 characters")
	}
	if authorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "comment author is required")
	}
	return &Comment{
		ID:          commentID,
		ComplaintID: complaintID,
		AuthorID:    authorID,
		Body:        body,
		Internal:    internal,
		CreatedAt:   now,
	}, nil
}

// MaxResolutionHours caps an SLA at one year.
const MaxResolutionHours = 24 * 365

// SLAPolicy sets the resolution deadline for a category.
type SLAPolicy struct {
	Category        string    `json:"category"`
	ResolutionHours int       `json:"resolution_hours"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewSLAPolicy(category string, hours int, now time.Time) (*SLAPolicy, error) {
	category = NormalizeCategory(category)
	if err := ValidateCategory(category); err != nil {
		return nil, err
	}
	if hours < 1 || hours > MaxResolutionHours {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "resolution hours must be between 1 and 8760")
	}
	return &SLAPolicy{Category: category, ResolutionHours: hours, UpdatedAt: now}, nil
}

// Resolution is the policy as a duration.
func (p *SLAPolicy) Resolution() time.Duration {
	return time.Duration(p.ResolutionHours) * time.Hour
}
