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

var now = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

func TestNewWard(t *testing.T) {
	w, err := NewWard(id.NewWardID(), "  Riverside ", " w-12a ", "North", now)
	require.NoError(t, err)
	assert.Equal(t, "Riverside", w.Name)
	assert.Equal(t, "W-12A", w.Code)

	cases := map[string]struct {
		name, code string
	}{
		"name too short":  {"R", "W1"},
		"name too long":   {strings.Repeat("x", 129), "W1"},
		"empty code":      {"Riverside", "  "},
		"code too long":   {"Riverside", strings.Repeat("A", 17)},
		"code with space": {"Riverside", "W 1"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewWard(id.NewWardID(), tc.name, tc.code, "", now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}
}

func TestWardPatchIsAllOrNothing(t *testing.T) {
	w, err := NewWard(id.NewWardID(), "Riverside", "W1", "", now)
	require.NoError(t, err)

	name := "Hillside"
	code := "bad code"
	err = (&WardPatch{Name: &name, Code: &code}).Apply(w)
	require.Error(t, err)
	assert.Equal(t, "Riverside", w.Name)

	code = "w2"
	require.NoError(t, (&WardPatch{Name: &name, Code: &code}).Apply(w))
	assert.Equal(t, "Hillside", w.Name)
	assert.Equal(t, "W2", w.Code)
}

func TestDepartmentDeactivate(t *testing.T) {
	d, err := NewDepartment(id.NewDepartmentID(), "Sanitation", "Waste and drains", now)
	require.NoError(t, err)
	assert.True(t, d.IsActive)

	later := now.Add(time.Hour)
	require.NoError(t, d.Deactivate(later))
	assert.False(t, d.IsActive)
	assert.Equal(t, later, d.UpdatedAt)
	assert.True(t, dErrors.HasCode(d.Deactivate(later), dErrors.CodeInvariantViolation))
}
