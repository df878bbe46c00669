package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

var now = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func content() Content {
	return Content{
		Title:    "Water outage on Ridge Road",
		Body:     "Mains repair between 09:00 and 14:00.",
		Category: CategoryMaintenance,
		Tags:     []string{" Water ", "water", "Outage"},
	}
}

func TestNewNotice(t *testing.T) {
	n, err := NewNotice(id.NewNoticeID(), id.NewUserID(), content(), now)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, n.Status)
	assert.Equal(t, []string{"water", "outage"}, n.Tags)
	assert.True(t, n.CityWide())

	c := content()
	c.Title = "Hi"
	_, err = NewNotice(id.NewNoticeID(), id.NewUserID(), c, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	c = content()
	c.Category = "gossip"
	_, err = NewNotice(id.NewNoticeID(), id.NewUserID(), c, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	past := now.Add(-time.Minute)
	c = content()
	c.ExpiresAt = &past
	_, err = NewNotice(id.NewNoticeID(), id.NewUserID(), c, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestLifecycle(t *testing.T) {
	n, err := NewNotice(id.NewNoticeID(), id.NewUserID(), content(), now)
	require.NoError(t, err)

	require.NoError(t, n.Publish(now))
	require.NotNil(t, n.PublishedAt)
	assert.Error(t, n.Edit(content(), now), "published notices are immutable")
	assert.Error(t, n.Publish(now))

	require.NoError(t, n.Archive(now))
	assert.False(t, n.VisibleIn(id.WardID{}, now))
	assert.Error(t, n.Archive(now))
}

func TestVisibleIn(t *testing.T) {
	ward, other := id.NewWardID(), id.NewWardID()
	expires := now.Add(48 * time.Hour)
	c := content()
	c.WardIDs = []id.WardID{ward, ward}
	c.ExpiresAt = &expires
	n, err := NewNotice(id.NewNoticeID(), id.NewUserID(), c, now)
	require.NoError(t, err)
	assert.Len(t, n.WardIDs, 1)
	assert.False(t, n.VisibleIn(ward, now), "drafts are hidden")

	require.NoError(t, n.Publish(now))
	assert.True(t, n.VisibleIn(ward, now))
	assert.True(t, n.VisibleIn(id.WardID{}, now))
	assert.False(t, n.VisibleIn(other, now))
	assert.False(t, n.VisibleIn(ward, expires), "expiry is exclusive")
}

func TestRequestDefaults(t *testing.T) {
	req := NoticeRequest{Title: "Title here", Body: "b", WardIDs: []string{"nope"}}
	_, err := req.ToContent()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	req.WardIDs = nil
	c, err := req.ToContent()
	require.NoError(t, err)
	assert.Equal(t, CategoryGeneral, c.Category)
}
