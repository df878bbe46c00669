package models

import (
	"slices"
	"strings"
	"time"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/httputil"
)

// NoticeRequest is the payload for creating or editing a draft.
type NoticeRequest struct {
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Category  string     `json:"category"`
	WardIDs   []string   `json:"ward_ids,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ToContent parses ward references and defaults the category to general.
func (r *NoticeRequest) ToContent() (Content, error) {
	category := Category(strings.ToLower(strings.TrimSpace(r.Category)))
	if category == "" {
		category = CategoryGeneral
	}
	wards := make([]id.WardID, 0, len(r.WardIDs))
	for _, raw := range r.WardIDs {
		w, err := id.ParseWardID(raw)
		if err != nil {
			return Content{}, dErrors.New(dErrors.CodeValidation, "ward_ids must be valid ward ids")
		}
		wards = append(wards, w)
	}
	return Content{
		Title:     r.Title,
		Body:      r.Body,
		Category:  category,
		WardIDs:   wards,
		Tags:      r.Tags,
		ExpiresAt: r.ExpiresAt,
	}, nil
}

// Filter narrows the staff listing. Zero fields match everything.
type Filter struct {
	Status   Status
	Category Category
	WardID   id.WardID
	Page     httputil.Page
}

func (f Filter) Matches(n *Notice) bool {
	switch {
	case f.Status != "" && n.Status != f.Status:
		return false
	case f.Category != "" && n.Category != f.Category:
		return false
	case !f.WardID.IsNil() && !n.CityWide() && !slices.Contains(n.WardIDs, f.WardID):
		return false
	}
	return true
}
