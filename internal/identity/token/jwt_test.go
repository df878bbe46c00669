package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

func newService(now time.Time) *JWTService {
	s := NewJWTService("test-signing-key-0123456789", "civic-test", time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestIssueAndValidate(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	svc := newService(now)
	userID := id.NewUserID()

	issued, err := svc.Issue(userID, id.RoleStaff)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	assert.Equal(t, now.Add(time.Hour), issued.ExpiresAt)

	claims, err := svc.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, issued.JTI, claims.ID)

	mw := ToMiddlewareClaims(claims)
	assert.Equal(t, issued.JTI, mw.JTI)
	assert.True(t, issued.ExpiresAt.Equal(mw.ExpiresAt))
}

func TestValidateRejectsExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	issued, err := newService(issuedAt).Issue(id.NewUserID(), id.RoleCitizen)
	require.NoError(t, err)

	_, err = newService(time.Now()).ValidateToken(issued.Token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "token has expired", dErrors.MessageOf(err))
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	issued, err := newService(time.Now()).Issue(id.NewUserID(), id.RoleAdmin)
	require.NoError(t, err)

	other := NewJWTService("another-signing-key-987654321", "civic-test", time.Hour)
	_, err = other.ValidateToken(issued.Token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := newService(time.Now()).ValidateToken("not-a-token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestMiddlewareAdapter(t *testing.T) {
	svc := newService(time.Now())
	userID := id.NewUserID()
	issued, err := svc.Issue(userID, id.RoleSupervisor)
	require.NoError(t, err)

	claims, err := NewMiddlewareAdapter(svc).ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "supervisor", claims.Role)
}
