package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

var filedAt = time.Date(2026, 1, 12, 8, 30, 0, 0, time.UTC)

func newComplaint(t *testing.T, title string) (*Complaint, error) {
	t.Helper()
	return NewComplaint(id.NewComplaintID(), id.NewUserID(), title,
		"Water has been pooling at the junction for days.", "drainage",
		id.NewWardID(), id.DepartmentID{}, "", "", filedAt.Add(72*time.Hour), filedAt)
}

func TestNewComplaintTitleBounds(t *testing.T) {
	for _, title := range []string{"", "Leak", "  Leak  "} {
		_, err := newComplaint(t, title)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation), "title %q", title)
	}
	_, err := newComplaint(t, strings.Repeat("x", MaxTitleLength+1))
	assert.Error(t, err)

	c, err := newComplaint(t, "Leaks")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, c.Status)
	assert.Equal(t, PriorityNormal, c.Priority)
}

func TestNewComplaintRejectsPastDue(t *testing.T) {
	_, err := NewComplaint(id.NewComplaintID(), id.NewUserID(), "Broken bench",
		"The bench slats in the park are split.", "parks", id.NewWardID(), id.DepartmentID{}, "", "",
		filedAt, filedAt)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusSubmitted, StatusAssigned, true},
		{StatusSubmitted, StatusRejected, true},
		{StatusSubmitted, StatusResolved, false},
		{StatusAssigned, StatusInProgress, true},
		{StatusAssigned, StatusSubmitted, true},
		{StatusInProgress, StatusResolved, true},
		{StatusInProgress, StatusRejected, false},
		{StatusResolved, StatusClosed, true},
		{StatusResolved, StatusReopened, true},
		{StatusReopened, StatusAssigned, true},
		{StatusClosed, StatusReopened, false},
		{StatusRejected, StatusSubmitted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
	assert.True(t, StatusClosed.IsTerminal())
	assert.False(t, StatusResolved.IsOpen())
}

func TestLifecycle(t *testing.T) {
	c, err := newComplaint(t, "Blocked drain")
	require.NoError(t, err)
	staff := id.NewUserID()
	now := filedAt.Add(time.Hour)

	require.NoError(t, c.Assign(staff, now))
	assert.True(t, c.HoldsAssignee())
	assert.Error(t, c.Assign(staff, now), "same assignee")

	require.NoError(t, c.TransitionTo(StatusInProgress, "", now))
	assert.Error(t, c.TransitionTo(StatusResolved, "  ", now), "note required")
	require.NoError(t, c.TransitionTo(StatusResolved, "Cleared", now))
	assert.False(t, c.HoldsAssignee())
	require.NotNil(t, c.ResolvedAt)

	assert.Error(t, c.Reopen(now.Add(15*24*time.Hour), 14*24*time.Hour))
	require.NoError(t, c.Reopen(now.Add(24*time.Hour), 14*24*time.Hour))
	assert.Equal(t, StatusReopened, c.Status)
	assert.True(t, c.AssigneeID.IsNil())
	assert.Empty(t, c.ResolutionNote)
}

func TestUnassignClearsAssignee(t *testing.T) {
	c, err := newComplaint(t, "Graffiti on wall")
	require.NoError(t, err)
	require.NoError(t, c.Assign(id.NewUserID(), filedAt))
	require.NoError(t, c.TransitionTo(StatusSubmitted, "", filedAt))
	assert.True(t, c.AssigneeID.IsNil())
	assert.Error(t, c.TransitionTo(StatusAssigned, "", filedAt), "needs an assignee")
}

func TestIsOverdue(t *testing.T) {
	c, err := newComplaint(t, "Fallen tree")
	require.NoError(t, err)
	assert.False(t, c.IsOverdue(filedAt.Add(71*time.Hour)))
	assert.True(t, c.IsOverdue(filedAt.Add(73*time.Hour)))
	require.NoError(t, c.TransitionTo(StatusRejected, "Private land", filedAt))
	assert.False(t, c.IsOverdue(filedAt.Add(73*time.Hour)))
}

func TestCategoryValidation(t *testing.T) {
	assert.NoError(t, ValidateCategory("street_lighting"))
	assert.Error(t, ValidateCategory("x"))
	assert.Error(t, ValidateCategory("Street Lighting"))
}
